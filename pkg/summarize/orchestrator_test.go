package summarize

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/RenatoSiqueira/smart-summary-sub000/pkg/providers"
	"github.com/RenatoSiqueira/smart-summary-sub000/pkg/stream"
)

// fakeClient replays a scripted event sequence and records how it was called.
type fakeClient struct {
	name     string
	events   []stream.Event
	calls    int
	lastText string
	lastOpts providers.Options
}

func (f *fakeClient) Name() string         { return f.name }
func (f *fakeClient) DefaultModel() string { return "fake-model" }

func (f *fakeClient) Stream(_ context.Context, text string, opts providers.Options) <-chan stream.Event {
	f.calls++
	f.lastText = text
	f.lastOpts = opts

	ch := make(chan stream.Event, len(f.events))
	for _, ev := range f.events {
		ch <- ev
	}
	close(ch)
	return ch
}

func successEvents(chunks ...string) []stream.Event {
	events := []stream.Event{stream.Start()}
	var sb strings.Builder
	for _, c := range chunks {
		sb.WriteString(c)
		events = append(events, stream.Chunk(c))
	}
	return append(events, stream.Complete(&stream.Result{Summary: sb.String()}))
}

func failureEvents(err error) []stream.Event {
	return []stream.Event{stream.Start(), stream.Fail(err)}
}

func collectEvents(t *testing.T, events <-chan stream.Event) []stream.Event {
	t.Helper()
	var out []stream.Event
	for ev := range events {
		out = append(out, ev)
	}
	return out
}

func TestStreamSummarizeNoProviders(t *testing.T) {
	orch := NewOrchestrator(nil, nil, nil, nil)
	_, err := orch.StreamSummarize(context.Background(), "text", providers.Options{})

	var ce *providers.ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("error = %v, want *ConfigError", err)
	}
}

func TestStreamSummarizePrimaryOnly(t *testing.T) {
	primary := &fakeClient{name: "openai", events: successEvents("a", "b")}
	orch := NewOrchestrator(primary, nil, nil, nil)

	ch, err := orch.StreamSummarize(context.Background(), "text", providers.Options{})
	if err != nil {
		t.Fatalf("StreamSummarize: %v", err)
	}
	events := collectEvents(t, ch)
	if len(events) != 4 || events[len(events)-1].Type != stream.TypeComplete {
		t.Errorf("unexpected events: %+v", events)
	}
}

func TestStreamSummarizeFallbackOnly(t *testing.T) {
	fallback := &fakeClient{name: "anthropic", events: successEvents("x")}
	orch := NewOrchestrator(nil, fallback, nil, nil)

	ch, err := orch.StreamSummarize(context.Background(), "text", providers.Options{})
	if err != nil {
		t.Fatalf("StreamSummarize: %v", err)
	}
	events := collectEvents(t, ch)
	if fallback.calls != 1 {
		t.Errorf("fallback calls = %d, want 1", fallback.calls)
	}
	if events[len(events)-1].Type != stream.TypeComplete {
		t.Errorf("terminal event = %s, want complete", events[len(events)-1].Type)
	}
}

func TestRateLimitDoesNotTriggerFallback(t *testing.T) {
	primary := &fakeClient{
		name:   "openai",
		events: failureEvents(&providers.RateLimitError{Provider: "openai"}),
	}
	fallback := &fakeClient{name: "anthropic", events: successEvents("never")}
	orch := NewOrchestrator(primary, fallback, nil, nil)

	ch, err := orch.StreamSummarize(context.Background(), "text", providers.Options{})
	if err != nil {
		t.Fatalf("StreamSummarize: %v", err)
	}
	events := collectEvents(t, ch)

	if fallback.calls != 0 {
		t.Errorf("fallback calls = %d, want 0", fallback.calls)
	}
	last := events[len(events)-1]
	if last.Type != stream.TypeError {
		t.Fatalf("terminal event = %s, want error", last.Type)
	}
	var rl *providers.RateLimitError
	if !errors.As(last.Err, &rl) {
		t.Errorf("Err = %v, want *RateLimitError passed through", last.Err)
	}
}

func TestGenericFailureTriggersFallback(t *testing.T) {
	primary := &fakeClient{
		name:   "openai",
		events: failureEvents(&providers.ProviderError{Provider: "openai", StatusCode: 500}),
	}
	fallback := &fakeClient{name: "anthropic", events: successEvents("recovered ", "summary")}
	orch := NewOrchestrator(primary, fallback, nil, nil)

	opts := providers.Options{MaxOutputTokens: 123}
	ch, err := orch.StreamSummarize(context.Background(), "the original text", opts)
	if err != nil {
		t.Fatalf("StreamSummarize: %v", err)
	}
	events := collectEvents(t, ch)

	if fallback.calls != 1 {
		t.Fatalf("fallback calls = %d, want 1", fallback.calls)
	}
	if fallback.lastText != "the original text" {
		t.Errorf("fallback text = %q, want original", fallback.lastText)
	}
	if fallback.lastOpts != opts {
		t.Errorf("fallback opts = %+v, want %+v", fallback.lastOpts, opts)
	}

	// The merged stream must read like a clean single-provider stream:
	// one Start, then the fallback's chunks, then one terminal event. The
	// primary's error and the fallback's duplicate Start never surface.
	var starts, terminals int
	var concat strings.Builder
	for _, ev := range events {
		switch ev.Type {
		case stream.TypeStart:
			starts++
		case stream.TypeChunk:
			concat.WriteString(ev.Content)
		}
		if ev.Terminal() {
			terminals++
		}
	}
	if starts != 1 {
		t.Errorf("start events = %d, want 1", starts)
	}
	if terminals != 1 {
		t.Errorf("terminal events = %d, want 1", terminals)
	}
	last := events[len(events)-1]
	if last.Type != stream.TypeComplete {
		t.Fatalf("terminal event = %s, want complete", last.Type)
	}
	if concat.String() != "recovered summary" || last.Result.Summary != concat.String() {
		t.Errorf("summary %q, chunks %q", last.Result.Summary, concat.String())
	}
}

func TestFallbackFailureSurfaces(t *testing.T) {
	primary := &fakeClient{
		name:   "openai",
		events: failureEvents(&providers.ProviderError{Provider: "openai"}),
	}
	fallback := &fakeClient{
		name:   "anthropic",
		events: failureEvents(&providers.ProviderError{Provider: "anthropic"}),
	}
	orch := NewOrchestrator(primary, fallback, nil, nil)

	ch, _ := orch.StreamSummarize(context.Background(), "text", providers.Options{})
	events := collectEvents(t, ch)

	last := events[len(events)-1]
	if last.Type != stream.TypeError {
		t.Fatalf("terminal event = %s, want error", last.Type)
	}
	var pe *providers.ProviderError
	if !errors.As(last.Err, &pe) || pe.Provider != "anthropic" {
		t.Errorf("Err = %v, want fallback's error", last.Err)
	}
}
