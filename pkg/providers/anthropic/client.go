// Package anthropic streams messages from the Anthropic API and adapts them
// to the neutral event stream.
package anthropic

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
	ProviderName = "anthropic"

	defaultBaseURL = "https://api.anthropic.com"
	messagesPath   = "/v1/messages"
	apiVersion     = "2023-06-01"

	dataPrefix = "data: "
)

// Client streams summaries from Anthropic's messages endpoint.
type Client struct {
	http    *providers.HTTPClient
	model   string
	calc    *costs.Calculator
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Config carries the constructor inputs for an Anthropic client.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
	Calc    *costs.Calculator
	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// New builds an Anthropic streaming client.
func New(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "anthropic")
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

type messagesRequest struct {
	Model       string        `json:"model"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	System      string        `json:"system,omitempty"`
	Messages    []wireMessage `json:"messages"`
	Stream      bool          `json:"stream"`
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// messageEvent is the union of the Anthropic stream payloads this client
// cares about; the Type field selects which branch is populated.
type messageEvent struct {
	Type    string `json:"type"`
	Message *struct {
		Usage struct {
			InputTokens  int `json:"input_tokens"`
			OutputTokens int `json:"output_tokens"`
		} `json:"usage"`
	} `json:"message"`
	Delta *struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"delta"`
	Usage *struct {
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// Stream requests a summary and returns the event channel. The Start event is
// buffered into the channel before the network round trip begins.
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
	payload := messagesRequest{
		Model:       model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		Stream:      true,
	}
	// Anthropic carries the system prompt as a top-level field rather than a
	// message role.
	for _, m := range messages {
		if m.Role == "system" {
			payload.System = m.Content
			continue
		}
		payload.Messages = append(payload.Messages, wireMessage{Role: m.Role, Content: m.Content})
	}

	headers := map[string]string{
		"x-api-key":         c.http.APIKey(),
		"anthropic-version": apiVersion,
	}

	body, err := c.http.PostStream(ctx, messagesPath, payload, headers)
	if err != nil {
		c.metrics.RecordRequest(ProviderName, "error", time.Since(started))
		c.emit(ctx, events, stream.Fail(err))
		return
	}
	defer body.Close()

	dec := &decoder{}
	output, usage, err := providers.RunStream(ctx, body, providers.StreamConfig{
		Provider: ProviderName,
		Decode:   dec.decodeLine,
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

// decoder accumulates usage across the stream: input tokens arrive on
// message_start and output tokens arrive (cumulatively) on message_delta, so
// each snapshot merges into the running totals.
type decoder struct {
	usage providers.Usage
}

func (d *decoder) decodeLine(line string) (providers.LineResult, error) {
	// The event: lines duplicate the type field inside each data payload.
	if !strings.HasPrefix(line, dataPrefix) {
		return providers.LineResult{}, nil
	}
	payload := strings.TrimPrefix(line, dataPrefix)

	var ev messageEvent
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return providers.LineResult{}, fmt.Errorf("decoding message event: %w", err)
	}

	switch ev.Type {
	case "message_start":
		if ev.Message != nil {
			d.usage.PromptTokens = ev.Message.Usage.InputTokens
			d.usage.CompletionTokens = ev.Message.Usage.OutputTokens
		}
		return providers.LineResult{Usage: d.snapshot()}, nil

	case "content_block_delta":
		var res providers.LineResult
		if ev.Delta != nil && ev.Delta.Type == "text_delta" {
			res.Delta = ev.Delta.Text
		}
		return res, nil

	case "message_delta":
		if ev.Usage != nil {
			d.usage.CompletionTokens = ev.Usage.OutputTokens
		}
		return providers.LineResult{Usage: d.snapshot()}, nil

	case "message_stop":
		return providers.LineResult{Done: true}, nil
	}

	return providers.LineResult{}, nil
}

func (d *decoder) snapshot() *providers.Usage {
	u := d.usage
	u.TotalTokens = u.PromptTokens + u.CompletionTokens
	return &u
}
