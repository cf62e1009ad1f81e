// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package stream

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"strings"
)

// Webhook validation errors.
var (
	ErrValidatorNotConfigured = errors.New("webhook secret not configured")
	ErrAPIKeyMismatch         = errors.New("webhook api key does not match")
	ErrSignatureMismatch      = errors.New("webhook signature does not match expected signature")
)

// WebhookValidator checks platform webhook signatures: the hex HMAC-SHA256 of the raw
// body keyed with the API secret.
type WebhookValidator struct {
	APIKey    string
	APISecret string
}

// NewWebhookValidator creates a new webhook validator
func NewWebhookValidator(apiKey, apiSecret string) *WebhookValidator {
	return &WebhookValidator{
		APIKey:    apiKey,
		APISecret: apiSecret,
	}
}

// ValidateSignature validates the api key and signature of a webhook body
func (v *WebhookValidator) ValidateSignature(body []byte, signature, apiKey string) error {
	if v.APISecret == "" || v.APIKey == "" {
		return ErrValidatorNotConfigured
	}

	if !subtleEqual(apiKey, v.APIKey) {
		slog.Warn("webhook api key does not match the configured key")
		return ErrAPIKeyMismatch
	}

	h := hmac.New(sha256.New, []byte(v.APISecret))
	h.Write(body)
	expected := h.Sum(nil)

	got, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil || !hmac.Equal(got, expected) {
		slog.Warn("webhook signature does not match expected signature")
		return ErrSignatureMismatch
	}

	return nil
}

func subtleEqual(a, b string) bool {
	return hmac.Equal([]byte(a), []byte(b))
}

// Sign returns the signature the platform sends for body.
func (v *WebhookValidator) Sign(body []byte) string {
	h := hmac.New(sha256.New, []byte(v.APISecret))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// MockWebhookValidator accepts every signature. It is used for local development only.
type MockWebhookValidator struct{}

// NewMockWebhookValidator creates a new mock webhook validator
func NewMockWebhookValidator() *MockWebhookValidator {
	return &MockWebhookValidator{}
}

// ValidateSignature always returns nil for mock mode
func (m *MockWebhookValidator) ValidateSignature(body []byte, signature, apiKey string) error {
	slog.Debug("mock webhook validator - bypassing signature validation")
	return nil
}
