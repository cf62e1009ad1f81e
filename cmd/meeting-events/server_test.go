// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victor-cyril/Agenda-AI/internal/domain"
	"github.com/victor-cyril/Agenda-AI/internal/domain/mocks"
	"github.com/victor-cyril/Agenda-AI/internal/handlers"
	"github.com/victor-cyril/Agenda-AI/internal/infrastructure/messaging"
	"github.com/victor-cyril/Agenda-AI/internal/infrastructure/sqlstore"
	"github.com/victor-cyril/Agenda-AI/internal/infrastructure/stream"
	"github.com/victor-cyril/Agenda-AI/internal/jobs"
	"github.com/victor-cyril/Agenda-AI/internal/observability/metrics"
	"github.com/victor-cyril/Agenda-AI/internal/service"
	"github.com/victor-cyril/Agenda-AI/pkg/constants"
)

func newTestApp(t *testing.T, connected bool) *app {
	t.Helper()
	ctx := context.Background()

	db, err := sqlstore.Open(ctx, sqlstore.DriverSQLite, fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate(ctx))

	conn := &messaging.MockNATSConn{}
	conn.On("IsConnected").Return(connected)

	registry := newRegistry()
	m := metrics.NewMetrics(registry)

	store := domain.NewMockMeetingStore()
	video := &mocks.MockVideoPlatform{}
	completions := &mocks.MockCompletionClient{}
	dispatcher := service.NewWebhookDispatcher(store, store, video, &mocks.RecordingJobPublisher{}, domain.NewMockLedger(), m)
	jobHandlers := handlers.NewJobHandlers(
		service.NewTranscriptPipeline(store, store, &mocks.MockTranscriptSource{}, completions),
		service.NewChatPipeline(store, &mocks.MockChatPlatform{}, completions),
		service.NewAgentConnection(store, store, video),
	)
	runner := jobs.NewRunner(domain.NewMockStepStore(), &mocks.MockDeadLetterPublisher{}, jobs.WithMetrics(m))
	jobHandlers.Register(runner)

	return &app{
		Webhook:   handlers.NewWebhookHandler(service.NewWebhookVerifier(stream.NewWebhookValidator("key", "secret")), dispatcher),
		Jobs:      jobHandlers,
		Runner:    runner,
		Registry:  registry,
		DB:        db,
		Messaging: messaging.NewMessageBuilder(conn, nil, m),
	}
}

func serve(handler http.Handler, method, path string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHandler_HealthChecks(t *testing.T) {
	handler := newHandler(newTestApp(t, true))

	rec := serve(handler, http.MethodGet, constants.LivezPath, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK\n", rec.Body.String())

	rec = serve(handler, http.MethodGet, constants.ReadyzPath, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(constants.RequestIDHeader))
}

func TestHandler_NotReadyWithoutNATS(t *testing.T) {
	handler := newHandler(newTestApp(t, false))

	rec := serve(handler, http.MethodGet, constants.ReadyzPath, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = serve(handler, http.MethodGet, constants.LivezPath, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandler_Metrics(t *testing.T) {
	handler := newHandler(newTestApp(t, true))

	rec := serve(handler, http.MethodPost, constants.WebhookPath, strings.NewReader(`{"type":"call.session_started"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(handler, http.MethodGet, constants.MetricsPath, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestHandler_WebhookRejectsBadSignature(t *testing.T) {
	handler := newHandler(newTestApp(t, true))

	req := httptest.NewRequest(http.MethodPost, constants.WebhookPath, strings.NewReader(`{"type":"call.session_started"}`))
	req.Header.Set(constants.SignatureHeader, "nope")
	req.Header.Set(constants.APIKeyHeader, "key")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, fmt.Sprintf(`{"error":"invalid webhook signature","code":%q}`, domain.CodeInvalidSignature), rec.Body.String())
}

func TestHandler_UnknownRoute(t *testing.T) {
	handler := newHandler(newTestApp(t, true))
	rec := serve(handler, http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
