package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from a YAML file, applies defaults, and validates
// the result. An empty path yields a configuration built entirely from
// defaults and environment overrides.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
		}
	}

	ApplyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// applyEnvOverrides applies environment variable overrides. Variables use the
// format SMARTSUMMARY_SECTION_FIELD and always take precedence over the file.
func applyEnvOverrides(cfg *Config) {
	setString := func(key string, dst *string) {
		if val := os.Getenv(key); val != "" {
			*dst = val
		}
	}
	setDuration := func(key string, dst *time.Duration) {
		if val := os.Getenv(key); val != "" {
			if d, err := time.ParseDuration(val); err == nil {
				*dst = d
			}
		}
	}
	setInt := func(key string, dst *int) {
		if val := os.Getenv(key); val != "" {
			if n, err := strconv.Atoi(val); err == nil {
				*dst = n
			}
		}
	}

	setString("SMARTSUMMARY_SERVER_LISTEN_ADDRESS", &cfg.Server.ListenAddress)
	setDuration("SMARTSUMMARY_SERVER_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	setDuration("SMARTSUMMARY_SERVER_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)
	setInt("SMARTSUMMARY_SERVER_MAX_INPUT_CHARS", &cfg.Server.MaxInputChars)

	setString("SMARTSUMMARY_OPENAI_API_KEY", &cfg.Providers.OpenAI.APIKey)
	setString("SMARTSUMMARY_OPENAI_BASE_URL", &cfg.Providers.OpenAI.BaseURL)
	setString("SMARTSUMMARY_OPENAI_MODEL", &cfg.Providers.OpenAI.Model)
	setString("SMARTSUMMARY_ANTHROPIC_API_KEY", &cfg.Providers.Anthropic.APIKey)
	setString("SMARTSUMMARY_ANTHROPIC_BASE_URL", &cfg.Providers.Anthropic.BaseURL)
	setString("SMARTSUMMARY_ANTHROPIC_MODEL", &cfg.Providers.Anthropic.Model)

	setString("SMARTSUMMARY_STORAGE_BACKEND", &cfg.Storage.Backend)
	setString("SMARTSUMMARY_STORAGE_SQLITE_PATH", &cfg.Storage.SQLite.Path)
	setString("SMARTSUMMARY_STORAGE_SQLITE_DRIVER", &cfg.Storage.SQLite.Driver)

	setString("SMARTSUMMARY_LOG_LEVEL", &cfg.Telemetry.Logging.Level)
	setString("SMARTSUMMARY_LOG_FORMAT", &cfg.Telemetry.Logging.Format)
}
