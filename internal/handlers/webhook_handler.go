// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package handlers adapts transports to the meeting lifecycle services: the webhook HTTP
// endpoint and the background job names.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/victor-cyril/Agenda-AI/internal/domain"
	"github.com/victor-cyril/Agenda-AI/internal/logging"
	"github.com/victor-cyril/Agenda-AI/internal/middleware"
	"github.com/victor-cyril/Agenda-AI/internal/service"
	"github.com/victor-cyril/Agenda-AI/pkg/constants"
)

// WebhookHandler serves the platform webhook endpoint.
type WebhookHandler struct {
	verifier   *service.WebhookVerifier
	dispatcher *service.WebhookDispatcher
}

// NewWebhookHandler creates the webhook endpoint handler.
func NewWebhookHandler(verifier *service.WebhookVerifier, dispatcher *service.WebhookDispatcher) *WebhookHandler {
	return &WebhookHandler{
		verifier:   verifier,
		dispatcher: dispatcher,
	}
}

// HandlerReady reports whether the services behind the endpoint are wired.
func (h *WebhookHandler) HandlerReady() bool {
	return h.verifier.ServiceReady() && h.dispatcher.ServiceReady()
}

type okResponse struct {
	Status string `json:"status"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed", Code: domain.CodeMalformedPayload})
		return
	}

	body, ok := middleware.GetRawBodyFromContext(ctx)
	if !ok {
		var err error
		body, err = io.ReadAll(http.MaxBytesReader(w, r.Body, middleware.MaxWebhookBodyBytes))
		if err != nil {
			h.writeError(w, r, domain.NewValidationError("unable to read request body", err))
			return
		}
	}

	event, err := h.verifier.Verify(body, r.Header.Get(constants.SignatureHeader), r.Header.Get(constants.APIKeyHeader))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.dispatcher.Dispatch(ctx, event); err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, okResponse{Status: "ok"})
}

// statusCode maps a domain error to the HTTP status returned to the webhook sender.
// Every server-side failure is a 500 so that the sender redelivers.
func statusCode(err error) int {
	switch domain.GetErrorType(err) {
	case domain.ErrorTypeValidation:
		return http.StatusBadRequest
	case domain.ErrorTypeUnauthorized:
		return http.StatusUnauthorized
	case domain.ErrorTypeNotFound:
		return http.StatusNotFound
	case domain.ErrorTypeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *WebhookHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusCode(err)
	message := http.StatusText(status)
	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) && status < http.StatusInternalServerError {
		message = domainErr.Message
	}

	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "webhook delivery failed", logging.ErrKey, err, "status", status)
	} else {
		slog.WarnContext(r.Context(), "webhook delivery rejected", logging.ErrKey, err, "status", status)
	}

	writeJSON(w, status, errorResponse{Error: message, Code: domain.GetErrorCode(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
