package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// maxErrorBodyBytes bounds how much of an upstream error body is read.
const maxErrorBodyBytes = 64 * 1024

// HTTPClient is the shared HTTP layer for provider adapters. It issues the
// streaming request, classifies non-success responses into the provider error
// taxonomy, and leaves the response body open for the stream decoder.
type HTTPClient struct {
	provider string
	baseURL  string
	apiKey   string
	client   *http.Client
	logger   *slog.Logger
}

// NewHTTPClient creates the shared HTTP layer for one provider. The timeout
// bounds connection establishment and response headers only; the streaming
// body read is bounded by the request context, not by a client timeout.
func NewHTTPClient(provider, baseURL, apiKey string, timeout time.Duration, logger *slog.Logger) *HTTPClient {
	if logger == nil {
		logger = slog.Default()
	}

	transport := &http.Transport{
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		ResponseHeaderTimeout: timeout,
		ForceAttemptHTTP2:     true,
	}

	return &HTTPClient{
		provider: provider,
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiKey:   apiKey,
		client:   &http.Client{Transport: transport},
		logger:   logger.With("provider", provider),
	}
}

// Provider returns the provider name this client serves.
func (c *HTTPClient) Provider() string {
	return c.provider
}

// APIKey returns the configured API key.
func (c *HTTPClient) APIKey() string {
	return c.apiKey
}

// PostStream sends a JSON POST and returns the open response body on success.
// Non-success statuses are classified: 429 becomes a *RateLimitError carrying
// any Retry-After duration; everything else becomes a *ProviderError with the
// status code and the message extracted from the error body. The caller owns
// closing the returned body.
func (c *HTTPClient) PostStream(ctx context.Context, path string, payload any, headers map[string]string) (io.ReadCloser, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &ProviderError{
			Provider: c.provider,
			Message:  "failed to encode request",
			Cause:    err,
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, &ProviderError{
			Provider: c.provider,
			Message:  "failed to create request",
			Cause:    err,
		}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	c.logger.Debug("sending streaming request", "url", req.URL.String())

	resp, err := c.client.Do(req)
	if err != nil {
		// Cancellation is the caller's doing, not an upstream failure.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &ProviderError{
			Provider: c.provider,
			Message:  "request failed",
			Cause:    err,
		}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp.Body, nil
	}

	errorBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	resp.Body.Close()
	message := errorMessage(errorBody)

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &RateLimitError{
			Provider:   c.provider,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Message:    message,
		}
	}

	return nil, &ProviderError{
		Provider:   c.provider,
		StatusCode: resp.StatusCode,
		Message:    message,
	}
}

// errorMessage extracts a human-readable message from an upstream error body,
// preferring the JSON error envelope and falling back to the raw text.
func errorMessage(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return "empty response body"
	}

	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if envelope.Error.Message != "" {
			return envelope.Error.Message
		}
		if envelope.Message != "" {
			return envelope.Message
		}
	}

	return trimmed
}

// parseRetryAfter parses a Retry-After header value, supporting both
// delay-seconds and HTTP-date formats.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}

	var seconds int
	if _, err := fmt.Sscanf(header, "%d", &seconds); err == nil {
		return time.Duration(seconds) * time.Second
	}

	if t, err := http.ParseTime(header); err == nil {
		return time.Until(t)
	}

	return 0
}
