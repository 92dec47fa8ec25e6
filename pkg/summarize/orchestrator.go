// Package summarize coordinates summary streams across providers and ties
// each stream to a durable request record.
package summarize

import (
	"context"
	"errors"
	"log/slog"

	"github.com/RenatoSiqueira/smart-summary-sub000/pkg/providers"
	"github.com/RenatoSiqueira/smart-summary-sub000/pkg/stream"
	"github.com/RenatoSiqueira/smart-summary-sub000/pkg/telemetry/metrics"
)

// Orchestrator selects a provider for each request and applies the fallback
// policy: when the primary fails for any reason other than rate limiting, the
// request is retried once, in full, against the fallback provider. Rate
// limits are surfaced to the caller untouched so their backpressure signal is
// not laundered into extra upstream traffic.
type Orchestrator struct {
	primary  providers.Client
	fallback providers.Client
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// NewOrchestrator builds an orchestrator. Either client may be nil when the
// corresponding provider is not configured; with only a fallback configured
// it serves as the sole provider.
func NewOrchestrator(primary, fallback providers.Client, logger *slog.Logger, m *metrics.Metrics) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		primary:  primary,
		fallback: fallback,
		logger:   logger.With("component", "orchestrator"),
		metrics:  m,
	}
}

// StreamSummarize starts a summary stream for the given text. It returns an
// error without any stream when no provider is configured.
func (o *Orchestrator) StreamSummarize(ctx context.Context, text string, opts providers.Options) (<-chan stream.Event, error) {
	switch {
	case o.primary == nil && o.fallback == nil:
		return nil, &providers.ConfigError{Message: "no summarization provider is configured"}
	case o.primary == nil:
		return o.fallback.Stream(ctx, text, opts), nil
	case o.fallback == nil:
		return o.primary.Stream(ctx, text, opts), nil
	}

	out := make(chan stream.Event, 1)
	go func() {
		defer close(out)
		o.runWithFallback(ctx, text, opts, out)
	}()
	return out, nil
}

func (o *Orchestrator) runWithFallback(ctx context.Context, text string, opts providers.Options, out chan<- stream.Event) {
	primary := o.primary.Stream(ctx, text, opts)

	for ev := range primary {
		if ev.Type != stream.TypeError {
			if !send(ctx, out, ev) {
				return
			}
			continue
		}

		var rateLimited *providers.RateLimitError
		if errors.As(ev.Err, &rateLimited) {
			// Rate limits never trigger fallback; the caller decides when to
			// retry.
			o.logger.Warn("primary provider rate limited",
				"provider", o.primary.Name(), "error", ev.Err)
			send(ctx, out, ev)
			return
		}

		o.logger.Warn("primary provider failed, falling back",
			"provider", o.primary.Name(),
			"fallback", o.fallback.Name(),
			"error", ev.Err)
		o.metrics.RecordFallback()
		o.runFallback(ctx, text, opts, out)
		return
	}
}

// runFallback replays the request on the fallback provider. Its duplicate
// Start event is dropped so the merged stream keeps the single Start the
// primary already emitted.
func (o *Orchestrator) runFallback(ctx context.Context, text string, opts providers.Options, out chan<- stream.Event) {
	started := false
	for ev := range o.fallback.Stream(ctx, text, opts) {
		if ev.Type == stream.TypeStart && !started {
			started = true
			continue
		}
		if !send(ctx, out, ev) {
			return
		}
	}
}

func send(ctx context.Context, out chan<- stream.Event, ev stream.Event) bool {
	select {
	case out <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
