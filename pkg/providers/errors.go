package providers

import (
	"fmt"
	"time"
)

// ConfigError indicates no usable provider configuration. It fails a request
// before any stream event is emitted.
type ConfigError struct {
	// Message describes what is missing.
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("provider configuration error: %s", e.Message)
}

// RateLimitError represents an upstream rate limit (HTTP 429). Rate limits
// never trigger fallback; the caller decides when to retry.
type RateLimitError struct {
	// Provider is the name of the provider that rate limited the request.
	Provider string

	// RetryAfter is the wait duration suggested by the provider, if any.
	RetryAfter time.Duration

	// Message is the error message from the provider.
	Message string
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("provider %q rate limit exceeded (retry after %s): %s",
			e.Provider, e.RetryAfter, e.Message)
	}
	return fmt.Sprintf("provider %q rate limit exceeded: %s", e.Provider, e.Message)
}

// ProviderError represents any other upstream failure: bad status, malformed
// or empty body, or a network error. When the failing provider is the primary
// and a fallback is configured, this error triggers one retry.
type ProviderError struct {
	// Provider is the name of the provider that failed.
	Provider string

	// StatusCode is the HTTP status code (0 if not applicable).
	StatusCode int

	// Message is the error message.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider %q error (status %d): %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("provider %q error: %s", e.Provider, e.Message)
}

// Unwrap returns the underlying error for error chain support.
func (e *ProviderError) Unwrap() error {
	return e.Cause
}
