// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package constants

// Constants for the HTTP request headers
const (
	// RequestIDHeader is the header name for the request ID
	RequestIDHeader string = "X-REQUEST-ID"

	// SignatureHeader carries the hex HMAC-SHA256 of the webhook body
	SignatureHeader string = "x-signature"

	// APIKeyHeader carries the platform API key of the webhook sender
	APIKeyHeader string = "x-api-key"
)

// HTTP routes served by the service.
const (
	WebhookPath = "/api/webhook"
	LivezPath   = "/livez"
	ReadyzPath  = "/readyz"
	MetricsPath = "/metrics"
)

// contextRequestID is the type for the request ID context key
type contextRequestID string

// RequestIDContextID is the context ID for the request ID
const RequestIDContextID contextRequestID = "X-REQUEST-ID"
