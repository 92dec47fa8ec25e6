// Package tokens provides character-based token estimation.
//
// The estimator is a fallback for when a provider does not report usage
// telemetry. It is pure and deterministic: the same input always yields the
// same counts, and it must never overwrite real usage numbers.
package tokens

// charsPerToken is the approximation ratio used for all models:
// roughly four characters of English text per token.
const charsPerToken = 4

// Per-message and per-request formatting overhead, in tokens. These account
// for role markers and message boundaries in the chat-completion format.
const (
	messageOverhead = 4
	requestOverhead = 2
)

// EstimateTokens approximates the token count of text as ceil(len(text)/4).
// Empty text estimates to zero.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	return (len(text) + charsPerToken - 1) / charsPerToken
}

// EstimatePromptTokens approximates the prompt-side token count of a
// chat-completion request from its message contents:
//
//	sum(EstimateTokens(content) + 4) + 2
//
// An empty message list estimates to zero.
func EstimatePromptTokens(contents []string) int {
	if len(contents) == 0 {
		return 0
	}

	total := 0
	for _, content := range contents {
		total += EstimateTokens(content) + messageOverhead
	}
	return total + requestOverhead
}
