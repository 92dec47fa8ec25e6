package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/RenatoSiqueira/smart-summary-sub000/pkg/config"
	"github.com/RenatoSiqueira/smart-summary-sub000/pkg/providers"
	"github.com/RenatoSiqueira/smart-summary-sub000/pkg/store"
	"github.com/RenatoSiqueira/smart-summary-sub000/pkg/stream"
	"github.com/RenatoSiqueira/smart-summary-sub000/pkg/summarize"
)

// scriptedClient replays a fixed event sequence.
type scriptedClient struct {
	events []stream.Event
}

func (c *scriptedClient) Name() string         { return "scripted" }
func (c *scriptedClient) DefaultModel() string { return "scripted-model" }

func (c *scriptedClient) Stream(_ context.Context, _ string, _ providers.Options) <-chan stream.Event {
	ch := make(chan stream.Event, len(c.events))
	for _, ev := range c.events {
		ch <- ev
	}
	close(ch)
	return ch
}

func testServerConfig() config.ServerConfig {
	return config.ServerConfig{MinInputChars: 10, MaxInputChars: 1000}
}

func newTestHandler(t *testing.T, primary providers.Client, st store.Store) (*Handler, *summarize.Service) {
	t.Helper()
	orch := summarize.NewOrchestrator(primary, nil, nil, nil)
	svc := summarize.NewService(orch, st, nil, nil)
	return NewHandler(svc, st, testServerConfig(), nil, nil), svc
}

// decodeFrames parses an SSE body into its stream events.
func decodeFrames(t *testing.T, body string) []stream.Event {
	t.Helper()
	var events []stream.Event
	for _, frame := range strings.Split(body, "\n\n") {
		frame = strings.TrimSpace(frame)
		if frame == "" {
			continue
		}
		payload, ok := strings.CutPrefix(frame, "data: ")
		if !ok {
			t.Fatalf("frame missing data prefix: %q", frame)
		}
		var ev stream.Event
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			t.Fatalf("decoding frame %q: %v", payload, err)
		}
		events = append(events, ev)
	}
	return events
}

func TestSummarizeEndpoint(t *testing.T) {
	st := store.NewMemoryStore()
	primary := &scriptedClient{events: []stream.Event{
		stream.Start(),
		stream.Chunk("A short "),
		stream.Chunk("summary."),
		stream.Complete(&stream.Result{Summary: "A short summary.", TokensUsed: 12, Model: "scripted-model"}),
	}}
	h, svc := newTestHandler(t, primary, st)
	srv := httptest.NewServer(h.Routes())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/v1/summarize", "application/json",
		strings.NewReader(`{"text":"please summarize this long enough text"}`))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get("Content-Type"); got != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream", got)
	}
	id := resp.Header.Get("X-Request-Id")
	if id == "" {
		t.Error("missing X-Request-Id header")
	}

	body, _ := io.ReadAll(resp.Body)
	events := decodeFrames(t, string(body))
	if len(events) != 4 {
		t.Fatalf("events = %d, want 4: %s", len(events), body)
	}
	if events[0].Type != stream.TypeStart {
		t.Errorf("first event = %s, want start", events[0].Type)
	}
	last := events[len(events)-1]
	if last.Type != stream.TypeComplete || last.Result.Summary != "A short summary." {
		t.Errorf("terminal event = %+v", last)
	}

	// Record update is asynchronous; draining the service makes it visible.
	svc.Close()
	rec, err := st.FindByID(context.Background(), id)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if rec.SummaryText != "A short summary." || !rec.Completed() {
		t.Errorf("record = %+v", rec)
	}
}

func TestSummarizeValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{`},
		{"too short", `{"text":"short"}`},
		{"too long", `{"text":"` + strings.Repeat("a", 2000) + `"}`},
	}

	h, svc := newTestHandler(t, &scriptedClient{}, store.NewMemoryStore())
	defer svc.Close()
	srv := httptest.NewServer(h.Routes())
	defer srv.Close()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(srv.URL+"/v1/summarize", "application/json", strings.NewReader(tt.body))
			if err != nil {
				t.Fatalf("POST: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
			var payload map[string]string
			if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
				t.Fatalf("decoding error body: %v", err)
			}
			if payload["error"] == "" {
				t.Error("missing error message")
			}
		})
	}
}

func TestSummarizeNoProviderReturnsErrorFrame(t *testing.T) {
	st := store.NewMemoryStore()
	orch := summarize.NewOrchestrator(nil, nil, nil, nil)
	svc := summarize.NewService(orch, st, nil, nil)
	defer svc.Close()
	h := NewHandler(svc, st, testServerConfig(), nil, nil)
	srv := httptest.NewServer(h.Routes())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/v1/summarize", "application/json",
		strings.NewReader(`{"text":"please summarize this long enough text"}`))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	events := decodeFrames(t, string(body))
	if len(events) != 1 || events[0].Type != stream.TypeError {
		t.Fatalf("events = %+v, want single error frame", events)
	}
}

func TestGetRequest(t *testing.T) {
	st := store.NewMemoryStore()
	h, svc := newTestHandler(t, &scriptedClient{}, st)
	defer svc.Close()
	srv := httptest.NewServer(h.Routes())
	defer srv.Close()

	if err := st.Create(context.Background(), &store.Record{ID: "abc", InputText: "x"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	resp, err := http.Get(srv.URL + "/v1/requests/abc")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}

	var rec store.Record
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		t.Fatalf("decoding record: %v", err)
	}
	if rec.ID != "abc" {
		t.Errorf("ID = %q, want abc", rec.ID)
	}

	missing, err := http.Get(srv.URL + "/v1/requests/nope")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer missing.Body.Close()
	if missing.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", missing.StatusCode)
	}
}

func TestListRequests(t *testing.T) {
	st := store.NewMemoryStore()
	h, svc := newTestHandler(t, &scriptedClient{}, st)
	defer svc.Close()
	srv := httptest.NewServer(h.Routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/requests?limit=5")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}

	var payload struct {
		Requests []store.Record `json:"requests"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decoding list: %v", err)
	}
	if payload.Requests == nil {
		t.Error("requests must be an empty array, not null")
	}

	bad, err := http.Get(srv.URL + "/v1/requests?limit=zero")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer bad.Body.Close()
	if bad.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", bad.StatusCode)
	}
}

func TestHealthz(t *testing.T) {
	h, svc := newTestHandler(t, &scriptedClient{}, store.NewMemoryStore())
	defer svc.Close()
	srv := httptest.NewServer(h.Routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}
