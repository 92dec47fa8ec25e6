// Package openai streams chat completions from the OpenAI API and adapts
// them to the neutral event stream.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/RenatoSiqueira/smart-summary-sub000/pkg/processing/costs"
	"github.com/RenatoSiqueira/smart-summary-sub000/pkg/providers"
	"github.com/RenatoSiqueira/smart-summary-sub000/pkg/stream"
	"github.com/RenatoSiqueira/smart-summary-sub000/pkg/telemetry/metrics"
)

const (
	// ProviderName identifies this client in logs, metrics, and pricing.
	ProviderName = "openai"

	defaultBaseURL  = "https://api.openai.com/v1"
	completionsPath = "/chat/completions"

	dataPrefix   = "data: "
	doneSentinel = "[DONE]"
)

// Client streams summaries from OpenAI's chat completions endpoint.
type Client struct {
	http    *providers.HTTPClient
	model   string
	calc    *costs.Calculator
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Config carries the constructor inputs for an OpenAI client.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
	Calc    *costs.Calculator
	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// New builds an OpenAI streaming client.
func New(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "openai")
	return &Client{
		http:    providers.NewHTTPClient(ProviderName, baseURL, cfg.APIKey, cfg.Timeout, logger),
		model:   cfg.Model,
		calc:    cfg.Calc,
		logger:  logger,
		metrics: cfg.Metrics,
	}
}

func (c *Client) Name() string { return ProviderName }

func (c *Client) DefaultModel() string { return c.model }

type chatRequest struct {
	Model         string              `json:"model"`
	Messages      []providers.Message `json:"messages"`
	Stream        bool                `json:"stream"`
	StreamOptions streamOptions       `json:"stream_options"`
	MaxTokens     int                 `json:"max_tokens"`
	Temperature   float64             `json:"temperature"`
}

type streamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

type chatChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// Stream requests a summary and returns the event channel. The Start event is
// buffered into the channel before the network round trip begins, so the
// caller observes it even when the upstream request fails immediately.
func (c *Client) Stream(ctx context.Context, text string, opts providers.Options) <-chan stream.Event {
	events := make(chan stream.Event, 1)
	events <- stream.Start()

	go func() {
		defer close(events)
		c.run(ctx, text, opts, events)
	}()

	return events
}

func (c *Client) run(ctx context.Context, text string, opts providers.Options, events chan<- stream.Event) {
	started := time.Now()
	model := opts.Model
	if model == "" {
		model = c.model
	}
	maxTokens := opts.MaxOutputTokens
	if maxTokens == 0 {
		maxTokens = providers.DefaultMaxOutputTokens
	}
	temperature := opts.Temperature
	if temperature == 0 {
		temperature = providers.DefaultTemperature
	}

	messages := providers.SummaryMessages(text)
	payload := chatRequest{
		Model:         model,
		Messages:      messages,
		Stream:        true,
		StreamOptions: streamOptions{IncludeUsage: true},
		MaxTokens:     maxTokens,
		Temperature:   temperature,
	}
	headers := map[string]string{
		"Authorization": "Bearer " + c.http.APIKey(),
	}

	body, err := c.http.PostStream(ctx, completionsPath, payload, headers)
	if err != nil {
		c.metrics.RecordRequest(ProviderName, "error", time.Since(started))
		c.emit(ctx, events, stream.Fail(err))
		return
	}
	defer body.Close()

	output, usage, err := providers.RunStream(ctx, body, providers.StreamConfig{
		Provider: ProviderName,
		Decode:   decodeLine,
		Logger:   c.logger,
		Metrics:  c.metrics,
	}, events)
	if err != nil {
		c.metrics.RecordRequest(ProviderName, "error", time.Since(started))
		c.emit(ctx, events, stream.Fail(err))
		return
	}

	result := providers.FinalizeResult(messages, output, usage, model, ProviderName, c.calc)
	c.metrics.RecordRequest(ProviderName, "complete", time.Since(started))
	c.metrics.RecordTokens(ProviderName, result.PromptTokens, result.CompletionTokens)
	c.emit(ctx, events, stream.Complete(result))
}

func (c *Client) emit(ctx context.Context, events chan<- stream.Event, ev stream.Event) {
	select {
	case events <- ev:
	case <-ctx.Done():
	}
}

// decodeLine handles one line of OpenAI's SSE framing. Lines without the data
// prefix carry no payload and are ignored; the [DONE] sentinel ends the
// stream.
func decodeLine(line string) (providers.LineResult, error) {
	if !strings.HasPrefix(line, dataPrefix) {
		return providers.LineResult{}, nil
	}
	payload := strings.TrimPrefix(line, dataPrefix)
	if payload == doneSentinel {
		return providers.LineResult{Done: true}, nil
	}

	var chunk chatChunk
	if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
		return providers.LineResult{}, fmt.Errorf("decoding chat chunk: %w", err)
	}

	var res providers.LineResult
	if len(chunk.Choices) > 0 {
		res.Delta = chunk.Choices[0].Delta.Content
	}
	if chunk.Usage != nil {
		res.Usage = &providers.Usage{
			PromptTokens:     chunk.Usage.PromptTokens,
			CompletionTokens: chunk.Usage.CompletionTokens,
			TotalTokens:      chunk.Usage.TotalTokens,
		}
	}
	return res, nil
}
