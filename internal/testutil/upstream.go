// Package testutil provides mock upstream provider servers for tests.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// Upstream is a mock provider API server. It replays a configured response
// per path and counts the requests it receives.
type Upstream struct {
	server    *httptest.Server
	mu        sync.Mutex
	responses map[string]Response
	requests  int
}

// Response defines one mock upstream response.
type Response struct {
	StatusCode  int
	Body        string
	Headers     map[string]string
	StreamLines []string      // written one per flush, newline-terminated
	LineDelay   time.Duration // pause between stream lines
}

// NewUpstream starts a mock upstream server.
func NewUpstream() *Upstream {
	u := &Upstream{responses: make(map[string]Response)}
	u.server = httptest.NewServer(http.HandlerFunc(u.handler))
	return u
}

// URL returns the server's base URL.
func (u *Upstream) URL() string { return u.server.URL }

// Close shuts the server down.
func (u *Upstream) Close() { u.server.Close() }

// SetResponse configures the response for a path.
func (u *Upstream) SetResponse(path string, resp Response) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.responses[path] = resp
}

// RequestCount returns the number of requests received so far.
func (u *Upstream) RequestCount() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.requests
}

func (u *Upstream) handler(w http.ResponseWriter, r *http.Request) {
	u.mu.Lock()
	u.requests++
	resp, ok := u.responses[r.URL.Path]
	u.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}

	for k, v := range resp.Headers {
		w.Header().Set(k, v)
	}

	if len(resp.StreamLines) > 0 {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		flusher, _ := w.(http.Flusher)
		for _, line := range resp.StreamLines {
			fmt.Fprintf(w, "%s\n", line)
			if flusher != nil {
				flusher.Flush()
			}
			if resp.LineDelay > 0 {
				time.Sleep(resp.LineDelay)
			}
		}
		return
	}

	status := resp.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if resp.Body != "" {
		_, _ = w.Write([]byte(resp.Body))
	}
}

// OpenAIStream builds the stream lines of a chat completions response: one
// data: line per content delta, a usage frame, and the [DONE] sentinel.
func OpenAIStream(deltas []string, promptTokens, completionTokens int) []string {
	lines := make([]string, 0, len(deltas)+2)
	for _, d := range deltas {
		lines = append(lines, fmt.Sprintf(
			`data: {"choices":[{"delta":{"content":%q}}]}`, d))
	}
	if promptTokens > 0 || completionTokens > 0 {
		lines = append(lines, fmt.Sprintf(
			`data: {"choices":[],"usage":{"prompt_tokens":%d,"completion_tokens":%d,"total_tokens":%d}}`,
			promptTokens, completionTokens, promptTokens+completionTokens))
	}
	return append(lines, "data: [DONE]")
}

// AnthropicStream builds the stream lines of a messages response: a
// message_start frame with input tokens, one content_block_delta per delta,
// a message_delta with output tokens, and message_stop.
func AnthropicStream(deltas []string, inputTokens, outputTokens int) []string {
	lines := []string{
		"event: message_start",
		fmt.Sprintf(`data: {"type":"message_start","message":{"usage":{"input_tokens":%d,"output_tokens":1}}}`, inputTokens),
	}
	for _, d := range deltas {
		lines = append(lines,
			"event: content_block_delta",
			fmt.Sprintf(`data: {"type":"content_block_delta","delta":{"type":"text_delta","text":%q}}`, d))
	}
	lines = append(lines,
		"event: message_delta",
		fmt.Sprintf(`data: {"type":"message_delta","usage":{"output_tokens":%d}}`, outputTokens),
		"event: message_stop",
		`data: {"type":"message_stop"}`)
	return lines
}
