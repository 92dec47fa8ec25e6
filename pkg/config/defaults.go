package config

import "time"

// Default models per provider.
const (
	DefaultOpenAIModel    = "gpt-4o-mini"
	DefaultAnthropicModel = "claude-3-5-haiku-20241022"
)

// ApplyDefaults fills in default values for any unset configuration fields.
// It is called after loading and before validation.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = "127.0.0.1:8080"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	// WriteTimeout intentionally defaults to zero: SSE responses are
	// long-lived and must not be cut off by the server.
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = 120 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 30 * time.Second
	}
	if cfg.Server.MinInputChars == 0 {
		cfg.Server.MinInputChars = 10
	}
	if cfg.Server.MaxInputChars == 0 {
		cfg.Server.MaxInputChars = 50000
	}

	applyProviderDefaults(&cfg.Providers.OpenAI, DefaultOpenAIModel)
	applyProviderDefaults(&cfg.Providers.Anthropic, DefaultAnthropicModel)

	if cfg.Pricing.Models == nil {
		cfg.Pricing.Models = DefaultPricing()
	}

	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "sqlite"
	}
	if cfg.Storage.SQLite.Path == "" {
		cfg.Storage.SQLite.Path = "data/requests.db"
	}
	if cfg.Storage.SQLite.Driver == "" {
		cfg.Storage.SQLite.Driver = "sqlite3"
	}
	if cfg.Storage.SQLite.MaxOpenConns == 0 {
		cfg.Storage.SQLite.MaxOpenConns = 10
	}
	if cfg.Storage.SQLite.MaxIdleConns == 0 {
		cfg.Storage.SQLite.MaxIdleConns = 5
	}
	if cfg.Storage.SQLite.BusyTimeout == 0 {
		cfg.Storage.SQLite.BusyTimeout = 5 * time.Second
		cfg.Storage.SQLite.WALMode = true
	}

	if cfg.Retention.MaxAge == 0 {
		cfg.Retention.MaxAge = 720 * time.Hour
	}
	if cfg.Retention.StaleAfter == 0 {
		cfg.Retention.StaleAfter = 24 * time.Hour
	}
	if cfg.Retention.Schedule == "" {
		cfg.Retention.Schedule = "0 3 * * *"
	}

	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = "info"
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = "json"
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Enabled = true
		cfg.Telemetry.Metrics.Namespace = "smartsummary"
	}
	if len(cfg.Telemetry.Metrics.RequestDurationBuckets) == 0 {
		// LLM streaming latencies span 100ms to 30s.
		cfg.Telemetry.Metrics.RequestDurationBuckets = []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0}
	}
}

func applyProviderDefaults(p *ProviderConfig, defaultModel string) {
	if p.Model == "" {
		p.Model = defaultModel
	}
	if p.Timeout == 0 {
		p.Timeout = 60 * time.Second
	}
}

// DefaultPricing returns the built-in price table (USD per 1000 tokens).
// Model keys are matched as substrings against the model name actually used.
func DefaultPricing() map[string]map[string]ModelPrice {
	return map[string]map[string]ModelPrice{
		"openai": {
			"gpt-4o-mini":   {Prompt: 0.00015, Completion: 0.0006},
			"gpt-4o":        {Prompt: 0.0025, Completion: 0.01},
			"gpt-4":         {Prompt: 0.03, Completion: 0.06},
			"gpt-3.5-turbo": {Prompt: 0.0005, Completion: 0.0015},
			"default":       {Prompt: 0.0015, Completion: 0.002},
		},
		"anthropic": {
			"claude-3-5-haiku":  {Prompt: 0.0008, Completion: 0.004},
			"claude-3-5-sonnet": {Prompt: 0.003, Completion: 0.015},
			"claude-3-opus":     {Prompt: 0.015, Completion: 0.075},
			"default":           {Prompt: 0.003, Completion: 0.015},
		},
		"default": {
			"default": {Prompt: 0.001, Completion: 0.002},
		},
	}
}
