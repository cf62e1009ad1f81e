// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package messaging

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/victor-cyril/Agenda-AI/internal/domain"
	"github.com/victor-cyril/Agenda-AI/internal/domain/models"
	"github.com/victor-cyril/Agenda-AI/internal/logging"
	"github.com/victor-cyril/Agenda-AI/internal/observability/metrics"
)

// INatsConn is a NATS connection interface needed for the health check.
type INatsConn interface {
	IsConnected() bool
}

// INatsJetStream is the JetStream publish interface needed by [MessageBuilder].
type INatsJetStream interface {
	PublishMsg(ctx context.Context, msg *nats.Msg, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// MessageBuilder is the builder for job messages and sends them to the NATS server.
type MessageBuilder struct {
	NatsConn  INatsConn
	JetStream INatsJetStream
	Metrics   *metrics.Metrics
	now       func() time.Time
}

// NewMessageBuilder creates a new MessageBuilder.
func NewMessageBuilder(natsConn INatsConn, js INatsJetStream, m *metrics.Metrics) *MessageBuilder {
	return &MessageBuilder{
		NatsConn:  natsConn,
		JetStream: js,
		Metrics:   m,
		now:       time.Now,
	}
}

// sendMessage publishes the message to the jobs stream. msgID is used by the stream to
// drop duplicates published within its duplicate window.
func (m *MessageBuilder) sendMessage(ctx context.Context, subject, msgID string, data []byte) (*jetstream.PubAck, error) {
	msg := nats.NewMsg(subject)
	msg.Data = data
	if msgID != "" {
		msg.Header.Set(jetstream.MsgIDHeader, msgID)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(http.Header(msg.Header)))

	ack, err := m.JetStream.PublishMsg(ctx, msg)
	if err != nil {
		slog.ErrorContext(ctx, "error sending message to NATS", logging.ErrKey, err, "subject", subject)
		return nil, err
	}
	slog.DebugContext(ctx, "sent message to NATS", "subject", subject, "sequence", ack.Sequence, "duplicate", ack.Duplicate)
	return ack, nil
}

// PublishJob enqueues a job on its subject, using the job id as the message id.
func (m *MessageBuilder) PublishJob(ctx context.Context, job models.JobEnvelope) error {
	data, err := json.Marshal(job)
	if err != nil {
		slog.ErrorContext(ctx, "error marshalling job into JSON", logging.ErrKey, err)
		return domain.NewInternalError("failed to encode job", err)
	}

	ack, err := m.sendMessage(ctx, models.JobSubject(job.Name), job.ID, data)
	if err != nil {
		return domain.NewUnavailableError("failed to enqueue job", err)
	}
	if ack.Duplicate {
		slog.InfoContext(ctx, "job already enqueued", "job", job.Name, "job_id", job.ID)
		return nil
	}

	m.Metrics.ObserveEnqueue(job.Name)
	slog.InfoContext(ctx, "job enqueued", "job", job.Name, "job_id", job.ID)
	return nil
}

// PublishDeadLetter copies a failed job to its dead letter subject.
func (m *MessageBuilder) PublishDeadLetter(ctx context.Context, job models.JobEnvelope, cause error) error {
	letter := models.DeadLetter{
		Job:      job,
		FailedAt: m.now().UTC(),
	}
	if cause != nil {
		letter.Error = cause.Error()
	}

	data, err := json.Marshal(letter)
	if err != nil {
		slog.ErrorContext(ctx, "error marshalling dead letter into JSON", logging.ErrKey, err)
		return err
	}

	_, err = m.sendMessage(ctx, models.DeadLetterSubject(job.Name), "dead-"+job.ID, data)
	return err
}

// IsReady reports whether the NATS connection is up.
func (m *MessageBuilder) IsReady() error {
	if m.NatsConn == nil || !m.NatsConn.IsConnected() {
		return domain.NewUnavailableError("NATS connection is not established", domain.ErrServiceUnavailable)
	}
	return nil
}
