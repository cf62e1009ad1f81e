// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/victor-cyril/Agenda-AI/internal/domain"
)

var (
	_ domain.WebhookValidator = (*WebhookValidator)(nil)
	_ domain.WebhookValidator = (*MockWebhookValidator)(nil)
)

func TestWebhookValidator_ValidateSignature(t *testing.T) {
	validator := NewWebhookValidator(testKey, testSecret)
	body := []byte(`{"type":"call.session_started"}`)
	signature := validator.Sign(body)

	tests := []struct {
		name      string
		validator *WebhookValidator
		body      []byte
		signature string
		apiKey    string
		expected  error
	}{
		{name: "valid", validator: validator, body: body, signature: signature, apiKey: testKey},
		{name: "wrong api key", validator: validator, body: body, signature: signature, apiKey: "other", expected: ErrAPIKeyMismatch},
		{name: "tampered body", validator: validator, body: []byte(`{"type":"call.session_ended"}`), signature: signature, apiKey: testKey, expected: ErrSignatureMismatch},
		{name: "signature not hex", validator: validator, body: body, signature: "zz", apiKey: testKey, expected: ErrSignatureMismatch},
		{name: "secret not configured", validator: NewWebhookValidator(testKey, ""), body: body, signature: signature, apiKey: testKey, expected: ErrValidatorNotConfigured},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.validator.ValidateSignature(tt.body, tt.signature, tt.apiKey)
			if tt.expected == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.expected)
			}
		})
	}
}

func TestMockWebhookValidator(t *testing.T) {
	assert.NoError(t, NewMockWebhookValidator().ValidateSignature([]byte("{}"), "anything", "key"))
}
