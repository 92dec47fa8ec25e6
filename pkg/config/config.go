// Package config defines the configuration for the smart-summary proxy and
// the loading, defaulting, and validation passes applied to it.
package config

import "time"

// Config is the root configuration structure.
type Config struct {
	// Server contains HTTP server configuration.
	Server ServerConfig `yaml:"server"`

	// Providers contains configuration for the upstream LLM providers.
	// A provider with an empty API key is not instantiated.
	Providers ProvidersConfig `yaml:"providers"`

	// Pricing contains the per-model price table used for cost accounting.
	Pricing PricingConfig `yaml:"pricing"`

	// Storage contains configuration for the request record store.
	Storage StorageConfig `yaml:"storage"`

	// Retention contains configuration for pruning old request records.
	Retention RetentionConfig `yaml:"retention"`

	// Telemetry contains logging and metrics configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains configuration for the HTTP server.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on ("host:port").
	// Default: "127.0.0.1:8080"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out response writes.
	// Zero means no timeout; streams are long-lived, so the default is zero
	// and request lifetime is bounded by the client connection instead.
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the keep-alive idle timeout.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MinInputChars is the minimum accepted input text length.
	// Default: 10
	MinInputChars int `yaml:"min_input_chars"`

	// MaxInputChars is the maximum accepted input text length.
	// Default: 50000
	MaxInputChars int `yaml:"max_input_chars"`
}

// ProvidersConfig holds the per-provider settings. OpenAI is the primary
// provider and Anthropic the fallback.
type ProvidersConfig struct {
	OpenAI    ProviderConfig `yaml:"openai"`
	Anthropic ProviderConfig `yaml:"anthropic"`
}

// ProviderConfig contains configuration for a single upstream provider.
type ProviderConfig struct {
	// APIKey authenticates against the provider. Empty means the provider
	// is not configured and will not be instantiated.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's API endpoint, mainly for testing.
	BaseURL string `yaml:"base_url"`

	// Model is the default model used when a request does not override it.
	Model string `yaml:"model"`

	// Timeout is the HTTP client timeout for the initial response. It does
	// not bound the streaming read, which lives as long as the request
	// context.
	// Default: 60s
	Timeout time.Duration `yaml:"timeout"`
}

// ModelPrice is the USD price per 1000 tokens for one model tier.
type ModelPrice struct {
	// Prompt is the cost per 1000 prompt tokens.
	Prompt float64 `yaml:"prompt"`

	// Completion is the cost per 1000 completion tokens.
	Completion float64 `yaml:"completion"`
}

// PricingConfig maps provider name -> model name substring -> price tier.
// The "default" model key within a provider is that provider's fallback tier
// when no substring matches.
type PricingConfig struct {
	// Models is the price table. Keys of the outer map are provider names
	// ("openai", "anthropic"); keys of the inner map are model name
	// substrings or "default".
	Models map[string]map[string]ModelPrice `yaml:"models"`
}

// StorageConfig selects and configures the request record store backend.
type StorageConfig struct {
	// Backend is "sqlite" or "memory".
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// SQLite configures the sqlite backend.
	SQLite SQLiteConfig `yaml:"sqlite"`
}

// SQLiteConfig contains configuration for the SQLite record store.
type SQLiteConfig struct {
	// Path is the database file path.
	// Default: "data/requests.db"
	Path string `yaml:"path"`

	// Driver selects the database/sql driver: "sqlite3" (cgo,
	// mattn/go-sqlite3) or "sqlite" (pure Go, modernc.org/sqlite).
	// Default: "sqlite3"
	Driver string `yaml:"driver"`

	// MaxOpenConns is the maximum number of open connections.
	// Default: 10
	MaxOpenConns int `yaml:"max_open_conns"`

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int `yaml:"max_idle_conns"`

	// WALMode enables Write-Ahead Logging for better concurrency.
	// Default: true
	WALMode bool `yaml:"wal_mode"`

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// RetentionConfig controls pruning of old request records. Pruning is an
// operational concern outside the streaming path: the proxy itself never
// deletes records.
type RetentionConfig struct {
	// MaxAge is how long completed records are retained. Zero disables
	// deletion.
	// Default: 720h (30 days)
	MaxAge time.Duration `yaml:"max_age"`

	// StaleAfter is the age past which a record that never completed
	// (e.g. the process crashed mid-stream) is marked failed. Zero
	// disables reconciliation.
	// Default: 24h
	StaleAfter time.Duration `yaml:"stale_after"`

	// Schedule is a standard cron expression for the pruning job.
	// Empty disables the scheduler.
	// Default: "0 3 * * *" (daily at 3 AM)
	Schedule string `yaml:"schedule"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	// Default: "info"
	Level string `yaml:"level"`

	// Format is "json" or "text".
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file:line in log records.
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	// Enabled controls whether metrics are collected and served.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Namespace is the Prometheus metric namespace.
	// Default: "smartsummary"
	Namespace string `yaml:"namespace"`

	// RequestDurationBuckets are histogram buckets for request duration
	// in seconds.
	RequestDurationBuckets []float64 `yaml:"request_duration_buckets"`
}
