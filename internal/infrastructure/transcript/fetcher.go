// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package transcript downloads transcript documents.
package transcript

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/victor-cyril/Agenda-AI/internal/domain"
	"github.com/victor-cyril/Agenda-AI/internal/observability/metrics"
)

const (
	// DefaultTimeout bounds a transcript download.
	DefaultTimeout = 30 * time.Second
	// MaxTranscriptBytes caps the size of a transcript document.
	MaxTranscriptBytes = 32 << 20
)

// Fetcher implements domain.TranscriptSource over HTTP.
type Fetcher struct {
	httpClient *http.Client
	metrics    *metrics.Metrics
}

var _ domain.TranscriptSource = (*Fetcher)(nil)

// NewFetcher creates a fetcher whose requests time out after timeout.
func NewFetcher(timeout time.Duration, m *metrics.Metrics) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Fetcher{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		metrics: m,
	}
}

// Fetch downloads the document at url and returns it as text.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", domain.NewValidationError("invalid transcript URL", err)
	}

	start := time.Now()
	resp, err := f.httpClient.Do(req)
	if err != nil {
		f.metrics.ObserveOutbound("transcript", "error", time.Since(start))
		return "", domain.NewUnavailableError("failed to download transcript", err)
	}
	defer func() { _ = resp.Body.Close() }()
	f.metrics.ObserveOutbound("transcript", strconv.Itoa(resp.StatusCode), time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", domain.NewUnavailableError("failed to download transcript",
			fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxTranscriptBytes+1))
	if err != nil {
		return "", domain.NewUnavailableError("failed to read transcript", err)
	}
	if len(body) > MaxTranscriptBytes {
		return "", domain.NewValidationError(fmt.Sprintf("transcript exceeds %d bytes", MaxTranscriptBytes))
	}
	return string(body), nil
}
