package config

import (
	"fmt"
	"net"

	"github.com/robfig/cron/v3"
)

// Validate checks the configuration for inconsistencies. It is called after
// defaults and environment overrides have been applied.
func Validate(cfg *Config) error {
	if _, _, err := net.SplitHostPort(cfg.Server.ListenAddress); err != nil {
		return fmt.Errorf("invalid server.listen_address %q: %w", cfg.Server.ListenAddress, err)
	}

	if cfg.Server.MinInputChars < 0 {
		return fmt.Errorf("server.min_input_chars must be >= 0, got %d", cfg.Server.MinInputChars)
	}
	if cfg.Server.MaxInputChars < cfg.Server.MinInputChars {
		return fmt.Errorf("server.max_input_chars (%d) must be >= server.min_input_chars (%d)",
			cfg.Server.MaxInputChars, cfg.Server.MinInputChars)
	}

	switch cfg.Storage.Backend {
	case "sqlite", "memory":
	default:
		return fmt.Errorf("unknown storage.backend %q (want \"sqlite\" or \"memory\")", cfg.Storage.Backend)
	}

	switch cfg.Storage.SQLite.Driver {
	case "sqlite3", "sqlite":
	default:
		return fmt.Errorf("unknown storage.sqlite.driver %q (want \"sqlite3\" or \"sqlite\")", cfg.Storage.SQLite.Driver)
	}

	if cfg.Retention.Schedule != "" {
		if _, err := cron.ParseStandard(cfg.Retention.Schedule); err != nil {
			return fmt.Errorf("invalid retention.schedule %q: %w", cfg.Retention.Schedule, err)
		}
	}

	for provider, models := range cfg.Pricing.Models {
		for model, price := range models {
			if price.Prompt < 0 || price.Completion < 0 {
				return fmt.Errorf("pricing.models[%s][%s]: prices must be >= 0", provider, model)
			}
		}
	}

	switch cfg.Telemetry.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown telemetry.logging.level %q", cfg.Telemetry.Logging.Level)
	}

	switch cfg.Telemetry.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("unknown telemetry.logging.format %q", cfg.Telemetry.Logging.Format)
	}

	return nil
}
