// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package middleware

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/victor-cyril/Agenda-AI/internal/logging"
)

// MaxWebhookBodyBytes bounds the size of a captured webhook body.
const MaxWebhookBodyBytes = 1 << 20

// WebhookBodyContextKey is the context key for storing raw webhook body
type WebhookBodyContextKey struct{}

// WebhookBodyCaptureMiddleware captures the raw request body of requests to path and
// stores it in the request context, so the signature is checked against the exact bytes sent.
func WebhookBodyCaptureMiddleware(path string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == path {
				body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxWebhookBodyBytes))
				if err != nil {
					slog.WarnContext(r.Context(), "failed to read webhook body", logging.ErrKey, err)
					http.Error(w, "Failed to read request body", http.StatusBadRequest)
					return
				}
				_ = r.Body.Close()

				// The next handler can still read the body.
				r.Body = io.NopCloser(bytes.NewReader(body))

				ctx := context.WithValue(r.Context(), WebhookBodyContextKey{}, body)
				r = r.WithContext(ctx)
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GetRawBodyFromContext extracts the raw body from the context
func GetRawBodyFromContext(ctx context.Context) ([]byte, bool) {
	body, ok := ctx.Value(WebhookBodyContextKey{}).([]byte)
	return body, ok
}
