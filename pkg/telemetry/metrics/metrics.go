// Package metrics exposes Prometheus metrics for the summarization pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/RenatoSiqueira/smart-summary-sub000/pkg/config"
)

// Metrics holds the Prometheus instruments recorded across the pipeline.
// All record methods are safe to call on a nil receiver, so components can
// run with metrics disabled.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal       *prometheus.CounterVec
	requestDuration     *prometheus.HistogramVec
	chunksTotal         *prometheus.CounterVec
	tokensTotal         *prometheus.CounterVec
	fallbackTotal       prometheus.Counter
	decodeErrorsTotal   *prometheus.CounterVec
	persistenceFailures *prometheus.CounterVec
}

// New creates and registers the pipeline metrics. If registry is nil, a fresh
// registry is created. Returns nil when metrics are disabled; all record
// methods tolerate that.
func New(cfg config.MetricsConfig, registry *prometheus.Registry) *Metrics {
	if !cfg.Enabled {
		return nil
	}
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	ns := cfg.Namespace
	m := &Metrics{
		registry: registry,

		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "requests_total",
				Help:      "Total number of summarization requests by provider and outcome",
			},
			[]string{"provider", "status"},
		),

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: ns,
				Name:      "request_duration_seconds",
				Help:      "End-to-end duration of summarization streams in seconds",
				Buckets:   cfg.RequestDurationBuckets,
			},
			[]string{"provider"},
		),

		chunksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "stream_chunks_total",
				Help:      "Total number of summary chunks delivered",
			},
			[]string{"provider"},
		),

		tokensTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "tokens_total",
				Help:      "Total tokens accounted, by provider and side",
			},
			[]string{"provider", "type"},
		),

		fallbackTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "provider_fallback_total",
				Help:      "Number of requests retried against the fallback provider",
			},
		),

		decodeErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "decode_errors_total",
				Help:      "Malformed upstream stream fragments skipped",
			},
			[]string{"provider"},
		),

		persistenceFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "persistence_failures_total",
				Help:      "Request record store failures by operation",
			},
			[]string{"operation"},
		),
	}

	registry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.chunksTotal,
		m.tokensTotal,
		m.fallbackTotal,
		m.decodeErrorsTotal,
		m.persistenceFailures,
	)

	return m
}

// Registry returns the underlying Prometheus registry, or nil when metrics
// are disabled.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordRequest records a finished stream with its outcome ("complete",
// "error" or "rate_limited") and duration.
func (m *Metrics) RecordRequest(provider, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(provider, status).Inc()
	m.requestDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordChunk counts one delivered summary chunk.
func (m *Metrics) RecordChunk(provider string) {
	if m == nil {
		return
	}
	m.chunksTotal.WithLabelValues(provider).Inc()
}

// RecordTokens counts accounted tokens for one completed stream.
func (m *Metrics) RecordTokens(provider string, promptTokens, completionTokens int) {
	if m == nil {
		return
	}
	m.tokensTotal.WithLabelValues(provider, "prompt").Add(float64(promptTokens))
	m.tokensTotal.WithLabelValues(provider, "completion").Add(float64(completionTokens))
}

// RecordFallback counts one retry against the fallback provider.
func (m *Metrics) RecordFallback() {
	if m == nil {
		return
	}
	m.fallbackTotal.Inc()
}

// RecordDecodeError counts one malformed upstream fragment that was skipped.
func (m *Metrics) RecordDecodeError(provider string) {
	if m == nil {
		return
	}
	m.decodeErrorsTotal.WithLabelValues(provider).Inc()
}

// RecordPersistenceFailure counts one record store failure ("create" or
// "update").
func (m *Metrics) RecordPersistenceFailure(operation string) {
	if m == nil {
		return
	}
	m.persistenceFailures.WithLabelValues(operation).Inc()
}
