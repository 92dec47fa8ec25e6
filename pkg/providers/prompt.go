package providers

import "fmt"

// systemPrompt is the fixed summarization instruction sent to every provider.
const systemPrompt = `You are an expert summarizer. Preserve the key points of the input and never fabricate content that is not present in it. Adapt your style to the detected content type (article, meeting notes, email thread, technical document, etc.). By default produce either 3-7 bullet points or a 60-120 word paragraph, whichever suits the content; for long or complex input you may expand to 150-200 words. When the input contains tasks or decisions, add an "Action Items" or "Key Decisions" section.`

// SummaryMessages builds the two-message prompt for a summarization request:
// the fixed system instruction plus the user message wrapping the input text.
func SummaryMessages(text string) []Message {
	return []Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: fmt.Sprintf("Summarize the following text. Output only the summary, with no preamble.\n\n%s", text)},
	}
}

// MessageContents returns just the content strings, in order. Used for
// prompt-side token estimation.
func MessageContents(messages []Message) []string {
	contents := make([]string, len(messages))
	for i, m := range messages {
		contents[i] = m.Content
	}
	return contents
}
