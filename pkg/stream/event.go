// Package stream defines the provider-agnostic event sequence emitted by the
// summarization pipeline, independent of any upstream provider's wire format.
//
// Every stream follows the same grammar: a single Start event, zero or more
// Chunk events carrying incremental summary text, and exactly one terminal
// event (Complete on success, Error on failure). The concatenation of all
// Chunk contents equals the final summary text.
package stream

import (
	"encoding/json"
	"errors"
	"fmt"
)

// EventType identifies the kind of a stream event.
type EventType string

const (
	// TypeStart marks stream initiation. Emitted exactly once, first.
	TypeStart EventType = "start"

	// TypeChunk carries an incremental fragment of the summary text.
	TypeChunk EventType = "chunk"

	// TypeComplete is the terminal success event.
	TypeComplete EventType = "complete"

	// TypeError is the terminal failure event.
	TypeError EventType = "error"
)

// Result is the payload of a Complete event.
type Result struct {
	// Summary is the full summary text (concatenation of all chunk contents).
	Summary string `json:"summary"`

	// TokensUsed is the total token count, always PromptTokens+CompletionTokens
	// when per-side counts are known.
	TokensUsed int `json:"tokensUsed"`

	// Cost is the request cost in USD.
	Cost float64 `json:"cost"`

	// Model is the model that produced the summary.
	Model string `json:"model"`

	// PromptTokens is the prompt-side token count (0 if unknown).
	PromptTokens int `json:"promptTokens"`

	// CompletionTokens is the completion-side token count (0 if unknown).
	CompletionTokens int `json:"completionTokens"`
}

// Event is one element of the neutral stream.
//
// For Error events, Err carries the typed failure so internal layers can
// classify it (rate limit vs. generic provider failure); only the message
// reaches the wire.
type Event struct {
	Type    EventType
	Content string  // set for Chunk
	Result  *Result // set for Complete
	Err     error   // set for Error
}

// Start returns the stream-initiation event.
func Start() Event {
	return Event{Type: TypeStart}
}

// Chunk returns an incremental content event.
func Chunk(content string) Event {
	return Event{Type: TypeChunk, Content: content}
}

// Complete returns the terminal success event.
func Complete(result *Result) Event {
	return Event{Type: TypeComplete, Result: result}
}

// Fail returns the terminal failure event carrying err.
func Fail(err error) Event {
	return Event{Type: TypeError, Err: err}
}

// Terminal reports whether the event ends the stream.
func (e Event) Terminal() bool {
	return e.Type == TypeComplete || e.Type == TypeError
}

// wireEvent is the JSON shape written to the transport.
type wireEvent struct {
	Type    EventType `json:"type"`
	Content *string   `json:"content,omitempty"`
	Data    *Result   `json:"data,omitempty"`
	Error   *string   `json:"error,omitempty"`
}

// MarshalJSON encodes the event in its wire shape:
//
//	{"type":"start"}
//	{"type":"chunk","content":"..."}
//	{"type":"complete","data":{...}}
//	{"type":"error","error":"..."}
func (e Event) MarshalJSON() ([]byte, error) {
	w := wireEvent{Type: e.Type}

	switch e.Type {
	case TypeStart:
	case TypeChunk:
		w.Content = &e.Content
	case TypeComplete:
		w.Data = e.Result
	case TypeError:
		msg := ""
		if e.Err != nil {
			msg = e.Err.Error()
		}
		w.Error = &msg
	default:
		return nil, fmt.Errorf("unknown event type %q", e.Type)
	}

	return json.Marshal(w)
}

// UnmarshalJSON decodes an event from its wire shape. Error events produce an
// opaque error carrying the wire message.
func (e *Event) UnmarshalJSON(data []byte) error {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	*e = Event{Type: w.Type}
	switch w.Type {
	case TypeStart:
	case TypeChunk:
		if w.Content != nil {
			e.Content = *w.Content
		}
	case TypeComplete:
		e.Result = w.Data
	case TypeError:
		if w.Error != nil {
			e.Err = errors.New(*w.Error)
		}
	default:
		return fmt.Errorf("unknown event type %q", w.Type)
	}

	return nil
}
