package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/RenatoSiqueira/smart-summary-sub000/pkg/stream"
)

// errStreamingUnsupported is returned when the response writer cannot flush,
// which would silently buffer the whole stream.
var errStreamingUnsupported = errors.New("response writer does not support streaming")

// eventWriter frames neutral stream events as server-sent events: one
// compact JSON payload per data: line, a blank line between frames, and a
// flush after every frame so chunks reach the client as they arrive.
type eventWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func newEventWriter(w http.ResponseWriter) (*eventWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, errStreamingUnsupported
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	// Tells nginx-style proxies not to buffer the stream.
	h.Set("X-Accel-Buffering", "no")

	return &eventWriter{w: w, flusher: flusher}, nil
}

func (ew *eventWriter) Write(ev stream.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encoding stream event: %w", err)
	}
	if _, err := fmt.Fprintf(ew.w, "data: %s\n\n", payload); err != nil {
		return err
	}
	ew.flusher.Flush()
	return nil
}
