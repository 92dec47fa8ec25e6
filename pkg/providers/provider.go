// Package providers defines the upstream LLM provider abstraction: a common
// streaming interface, the shared HTTP and stream-decoding machinery, and the
// error taxonomy used to drive fallback decisions.
package providers

import (
	"context"

	"github.com/RenatoSiqueira/smart-summary-sub000/pkg/stream"
)

// Default request parameters applied when Options leaves them unset.
const (
	DefaultMaxOutputTokens = 500
	DefaultTemperature     = 0.7
)

// Options optionally overrides per-request parameters. Zero values mean
// "use the provider default".
type Options struct {
	// Model overrides the provider's default model.
	Model string

	// MaxOutputTokens caps the summary length in tokens.
	MaxOutputTokens int

	// Temperature overrides the sampling temperature.
	Temperature float64
}

// Message is one chat-completion message sent upstream.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Usage is a provider-reported token usage snapshot. Absent counters are
// zero.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Empty reports whether no counter was reported at all.
func (u Usage) Empty() bool {
	return u.PromptTokens == 0 && u.CompletionTokens == 0 && u.TotalTokens == 0
}

// Client is a streaming summarization client for one upstream provider.
//
// Stream converts the input text into a neutral event sequence: a Start event
// is placed on the returned channel synchronously, before any network I/O, so
// callers observe stream initiation even if the request subsequently fails.
// The channel then carries zero or more Chunk events followed by exactly one
// terminal event (Complete or Error) and is closed. Cancelling ctx aborts the
// in-flight upstream read and releases the connection.
type Client interface {
	// Name returns the provider name ("openai", "anthropic").
	Name() string

	// DefaultModel returns the model used when Options.Model is empty.
	DefaultModel() string

	// Stream summarizes text, delivering neutral events as they are decoded.
	Stream(ctx context.Context, text string, opts Options) <-chan stream.Event
}
