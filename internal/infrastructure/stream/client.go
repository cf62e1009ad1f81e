// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package stream talks to the video and chat platform REST APIs.
package stream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/victor-cyril/Agenda-AI/internal/domain"
	"github.com/victor-cyril/Agenda-AI/internal/logging"
	"github.com/victor-cyril/Agenda-AI/internal/observability/metrics"
)

const (
	// VideoBaseURL is the base URL of the video API
	VideoBaseURL = "https://video.stream-io-api.com/api/v2/video"
	// ChatBaseURL is the base URL of the chat API
	ChatBaseURL = "https://chat.stream-io-api.com"
	// DefaultClientTimeout is the default HTTP client timeout for platform requests
	DefaultClientTimeout = 30 * time.Second
	// Default retry configuration
	DefaultMaxRetries        = 3
	DefaultInitialBackoff    = 500 * time.Millisecond
	DefaultMaxBackoff        = 10 * time.Second
	DefaultBackoffMultiplier = 2.0
)

// Config holds the configuration of the platform clients
type Config struct {
	APIKey    string
	APISecret string
	// Optional: override base URLs for testing
	VideoBaseURL string
	ChatBaseURL  string
	// AgentBridgeURL is the realtime bridge that attaches AI participants to calls.
	AgentBridgeURL string
	// Optional: override timeout for HTTP requests
	Timeout time.Duration
	// Optional: retry configuration
	MaxRetries        int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
}

func (c *Config) setDefaults() {
	if c.VideoBaseURL == "" {
		c.VideoBaseURL = VideoBaseURL
	}
	if c.ChatBaseURL == "" {
		c.ChatBaseURL = ChatBaseURL
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultClientTimeout
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.InitialBackoff == 0 {
		c.InitialBackoff = DefaultInitialBackoff
	}
	if c.MaxBackoff == 0 {
		c.MaxBackoff = DefaultMaxBackoff
	}
	if c.BackoffMultiplier == 0 {
		c.BackoffMultiplier = DefaultBackoffMultiplier
	}
}

// APIError is a non-2xx answer of the platform.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("platform API returned status %d: %s", e.StatusCode, e.Body)
}

// client performs authenticated requests with retries. It is shared by the video and chat clients.
type client struct {
	name       string
	httpClient *http.Client
	config     Config
	tokens     *TokenIssuer
	metrics    *metrics.Metrics
}

func newClient(name string, config Config, m *metrics.Metrics) *client {
	config.setDefaults()
	return &client{
		name: name,
		httpClient: &http.Client{
			Timeout:   config.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		config:  config,
		tokens:  NewTokenIssuer(config.APISecret),
		metrics: m,
	}
}

// shouldRetry determines if an error or HTTP status code should be retried
func shouldRetry(statusCode int, err error) bool {
	if err != nil {
		return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
	}
	return statusCode >= http.StatusInternalServerError || statusCode == http.StatusTooManyRequests
}

// calculateBackoff calculates the backoff duration for a retry attempt with jitter
func (c *client) calculateBackoff(attempt int) time.Duration {
	if attempt <= 0 {
		return c.config.InitialBackoff
	}

	backoff := float64(c.config.InitialBackoff) * math.Pow(c.config.BackoffMultiplier, float64(attempt))
	if time.Duration(backoff) > c.config.MaxBackoff {
		backoff = float64(c.config.MaxBackoff)
	}

	// ±25% jitter
	jitter := backoff * 0.25 * (rand.Float64()*2 - 1)
	backoffWithJitter := time.Duration(backoff + jitter)
	if backoffWithJitter < c.config.InitialBackoff {
		backoffWithJitter = c.config.InitialBackoff
	}
	return backoffWithJitter
}

// do sends body as JSON to baseURL+path and decodes the answer into out when out is not nil.
func (c *client) do(ctx context.Context, method, baseURL, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	target, err := url.Parse(baseURL + path)
	if err != nil {
		return fmt.Errorf("invalid request URL: %w", err)
	}
	query := target.Query()
	query.Set("api_key", c.config.APIKey)
	target.RawQuery = query.Encode()

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := c.calculateBackoff(attempt - 1)
			slog.WarnContext(ctx, "platform request failed, retrying",
				"client", c.name,
				"method", method,
				"path", path,
				"attempt", attempt,
				"max_retries", c.config.MaxRetries,
				"backoff", backoff.String(),
				logging.ErrKey, lastErr)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		statusCode, err := c.attempt(ctx, method, target.String(), payload, out)
		if err == nil {
			return nil
		}
		lastErr = err
		if !shouldRetry(statusCode, transportError(statusCode, err)) {
			break
		}
	}

	slog.ErrorContext(ctx, "platform request failed",
		"client", c.name,
		"method", method,
		"path", path,
		logging.ErrKey, lastErr)
	return toDomainError(lastErr)
}

// transportError returns err when no HTTP answer was received.
func transportError(statusCode int, err error) error {
	if statusCode == 0 {
		return err
	}
	return nil
}

func (c *client) attempt(ctx context.Context, method, target string, payload []byte, out any) (int, error) {
	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	token, err := c.tokens.ServerToken()
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", token)
	req.Header.Set("stream-auth-type", "jwt")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveOutbound(c.name, "error", time.Since(start))
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()
	c.metrics.ObserveOutbound(c.name, strconv.Itoa(resp.StatusCode), time.Since(start))

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return resp.StatusCode, &APIError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	slog.DebugContext(ctx, "platform request completed",
		"client", c.name,
		"method", method,
		"status", resp.StatusCode,
		"duration", time.Since(start).String())

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, domain.NewInternalError("failed to decode platform response", err)
		}
	}
	return resp.StatusCode, nil
}

func toDomainError(err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusNotFound:
			return domain.NewNotFoundError("platform resource not found", err)
		case apiErr.StatusCode >= http.StatusInternalServerError, apiErr.StatusCode == http.StatusTooManyRequests:
			return domain.NewUnavailableError("platform is unavailable", err)
		}
		return domain.NewInternalError("platform rejected the request", err)
	}
	if domain.GetErrorType(err) != domain.ErrorTypeInternal {
		return err
	}
	return domain.NewUnavailableError("platform request failed", err)
}
