// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"errors"
	"log/slog"

	"github.com/victor-cyril/Agenda-AI/internal/domain"
	"github.com/victor-cyril/Agenda-AI/internal/domain/models"
	"github.com/victor-cyril/Agenda-AI/internal/infrastructure/stream"
	"github.com/victor-cyril/Agenda-AI/internal/logging"
)

// WebhookVerifier authenticates webhook deliveries before anything reads them.
type WebhookVerifier struct {
	validator domain.WebhookValidator
}

// NewWebhookVerifier creates a verifier that checks signatures with validator.
func NewWebhookVerifier(validator domain.WebhookValidator) *WebhookVerifier {
	return &WebhookVerifier{validator: validator}
}

// ServiceReady reports whether the verifier has a validator.
func (v *WebhookVerifier) ServiceReady() bool {
	return v != nil && v.validator != nil
}

// Verify checks the credentials of a delivery and only then decodes its body.
func (v *WebhookVerifier) Verify(rawBody []byte, signature, apiKey string) (models.WebhookEvent, error) {
	if signature == "" || apiKey == "" {
		return nil, domain.NewMissingCredentialsError("missing signature or api key")
	}

	if err := v.validator.ValidateSignature(rawBody, signature, apiKey); err != nil {
		if errors.Is(err, stream.ErrValidatorNotConfigured) {
			slog.Error("webhook validator is not configured", logging.ErrKey, err, logging.PriorityCritical())
			return nil, domain.NewInternalError("webhook validation is not configured", err)
		}
		return nil, domain.NewUnauthorizedError("invalid webhook signature", err)
	}

	event, err := models.ParseWebhookEvent(rawBody)
	if err != nil {
		return nil, domain.NewValidationError("invalid webhook payload", err)
	}

	return event, nil
}
