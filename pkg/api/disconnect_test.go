package api

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/RenatoSiqueira/smart-summary-sub000/pkg/providers"
	"github.com/RenatoSiqueira/smart-summary-sub000/pkg/store"
	"github.com/RenatoSiqueira/smart-summary-sub000/pkg/stream"
	"github.com/RenatoSiqueira/smart-summary-sub000/pkg/summarize"
)

// hangingClient emits a start and one chunk, then holds the stream open until
// the request context is canceled.
type hangingClient struct {
	canceled chan struct{}
}

func (c *hangingClient) Name() string         { return "hanging" }
func (c *hangingClient) DefaultModel() string { return "hanging-model" }

func (c *hangingClient) Stream(ctx context.Context, _ string, _ providers.Options) <-chan stream.Event {
	ch := make(chan stream.Event, 2)
	ch <- stream.Start()
	ch <- stream.Chunk("partial ")
	go func() {
		defer close(ch)
		<-ctx.Done()
		close(c.canceled)
	}()
	return ch
}

func TestClientDisconnectCancelsUpstream(t *testing.T) {
	st := store.NewMemoryStore()
	primary := &hangingClient{canceled: make(chan struct{})}
	orch := summarize.NewOrchestrator(primary, nil, nil, nil)
	svc := summarize.NewService(orch, st, nil, nil)
	defer svc.Close()
	h := NewHandler(svc, st, testServerConfig(), nil, nil)
	srv := httptest.NewServer(h.Routes())
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, srv.URL+"/v1/summarize",
		strings.NewReader(`{"text":"please summarize this long enough text"}`))
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	defer resp.Body.Close()

	// Read the start frame and the first chunk, then walk away mid-stream.
	reader := bufio.NewReader(resp.Body)
	frames := 0
	for frames < 2 {
		line, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("reading stream: %v", err)
		}
		if strings.HasPrefix(line, "data: ") {
			frames++
		}
	}
	cancel()

	select {
	case <-primary.canceled:
	case <-time.After(5 * time.Second):
		t.Fatal("upstream context not canceled after client disconnect")
	}
}
