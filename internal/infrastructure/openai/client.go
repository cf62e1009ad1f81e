// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package openai is a chat completions client for OpenAI-compatible APIs.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/oauth2"

	"github.com/victor-cyril/Agenda-AI/internal/domain"
	"github.com/victor-cyril/Agenda-AI/internal/domain/models"
	"github.com/victor-cyril/Agenda-AI/internal/observability/metrics"
)

const (
	// BaseURL is the default API base URL
	BaseURL = "https://api.openai.com/v1"
	// DefaultModel is used when neither the client nor the request names a model
	DefaultModel = "gpt-4o"
	// DefaultClientTimeout bounds a completion request
	DefaultClientTimeout = 2 * time.Minute
)

// Config holds the configuration of the completions client
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Client implements domain.CompletionClient.
type Client struct {
	httpClient *http.Client
	config     Config
	metrics    *metrics.Metrics
}

var _ domain.CompletionClient = (*Client)(nil)

// NewClient creates a completions client. The API key is sent as a bearer token.
func NewClient(config Config, m *metrics.Metrics) *Client {
	if config.BaseURL == "" {
		config.BaseURL = BaseURL
	}
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultClientTimeout
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: config.Timeout,
			Transport: &oauth2.Transport{
				Base:   otelhttp.NewTransport(http.DefaultTransport),
				Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: config.APIKey, TokenType: "Bearer"}),
			},
		},
		config:  config,
		metrics: m,
	}
}

type chatChoice struct {
	Index        int                      `json:"index"`
	Message      models.CompletionMessage `json:"message"`
	FinishReason string                   `json:"finish_reason"`
}

type chatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type chatResponse struct {
	ID      string       `json:"id"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
	Usage   chatUsage    `json:"usage"`
}

// Complete sends a chat completion request and returns the content of the first choice.
// A response without choices yields an empty string.
func (c *Client) Complete(ctx context.Context, req models.CompletionRequest) (string, error) {
	if req.Model == "" {
		req.Model = c.config.Model
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", domain.NewInternalError("failed to encode completion request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", domain.NewInternalError("failed to create completion request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.metrics.ObserveOutbound("openai", "error", time.Since(start))
		return "", domain.NewUnavailableError("completion request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()
	c.metrics.ObserveOutbound("openai", strconv.Itoa(resp.StatusCode), time.Since(start))

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", domain.NewUnavailableError("failed to read completion response", err)
	}
	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
		if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
			return "", domain.NewUnavailableError("completion API is unavailable", err)
		}
		return "", domain.NewInternalError("completion API rejected the request", err)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return "", domain.NewInternalError("failed to decode completion response", err)
	}

	slog.DebugContext(ctx, "completion received",
		"model", chatResp.Model,
		"choices", len(chatResp.Choices),
		"total_tokens", chatResp.Usage.TotalTokens,
		"duration", time.Since(start).String())

	if len(chatResp.Choices) == 0 {
		return "", nil
	}
	return chatResp.Choices[0].Message.Content, nil
}
