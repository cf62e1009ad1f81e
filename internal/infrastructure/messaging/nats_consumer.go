// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/victor-cyril/Agenda-AI/internal/domain/models"
	"github.com/victor-cyril/Agenda-AI/internal/jobs"
	"github.com/victor-cyril/Agenda-AI/internal/logging"
	"github.com/victor-cyril/Agenda-AI/pkg/concurrent"
)

// Consumer defaults.
const (
	DefaultDuplicateWindow = 2 * time.Minute
	DefaultAckWait         = 5 * time.Minute
	DefaultWorkers         = 4
)

// INatsMsg is the part of jetstream.Msg the consumer acts on.
type INatsMsg interface {
	Data() []byte
	Headers() nats.Header
	Metadata() (*jetstream.MsgMetadata, error)
	Ack() error
	NakWithDelay(delay time.Duration) error
	InProgress() error
	Term() error
}

// JobExecutor runs one delivery of a job.
type JobExecutor interface {
	Execute(ctx context.Context, job jobs.Job) jobs.Result
	Names() []string
	Policy() jobs.RetryPolicy
}

// JobStreamConfig returns the configuration of the jobs stream.
func JobStreamConfig() jetstream.StreamConfig {
	return jetstream.StreamConfig{
		Name:        models.JobsStream,
		Description: "Background jobs of the meeting event pipeline",
		Subjects:    []string{models.JobsWildcardSubject},
		Retention:   jetstream.WorkQueuePolicy,
		Storage:     jetstream.FileStorage,
		Duplicates:  DefaultDuplicateWindow,
	}
}

// JobConsumerConfig returns the durable consumer configuration of a job.
func JobConsumerConfig(name string, policy jobs.RetryPolicy, ackWait time.Duration) jetstream.ConsumerConfig {
	maxDeliver := policy.MaxDeliver
	if maxDeliver <= 0 {
		maxDeliver = -1
	}
	return jetstream.ConsumerConfig{
		Durable:       models.ConsumerName(name),
		Description:   "Consumer for " + name,
		FilterSubject: models.JobSubject(name),
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       ackWait,
		MaxDeliver:    maxDeliver,
	}
}

// JobConsumer pulls jobs from the jobs stream and hands them to the executor.
type JobConsumer struct {
	js       jetstream.JetStream
	executor JobExecutor
	workers  int
	ackWait  time.Duration
}

// ConsumerOption configures a JobConsumer.
type ConsumerOption func(*JobConsumer)

// WithWorkers sets how many jobs run at the same time.
func WithWorkers(n int) ConsumerOption {
	return func(c *JobConsumer) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithAckWait sets how long a delivery may stay unacknowledged before redelivery.
func WithAckWait(d time.Duration) ConsumerOption {
	return func(c *JobConsumer) {
		if d > 0 {
			c.ackWait = d
		}
	}
}

// NewJobConsumer creates a consumer of every job registered with executor.
func NewJobConsumer(js jetstream.JetStream, executor JobExecutor, opts ...ConsumerOption) *JobConsumer {
	c := &JobConsumer{
		js:       js,
		executor: executor,
		workers:  DefaultWorkers,
		ackWait:  DefaultAckWait,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run creates the stream and consumers, then processes jobs until ctx is cancelled.
func (c *JobConsumer) Run(ctx context.Context) error {
	stream, err := c.js.CreateOrUpdateStream(ctx, JobStreamConfig())
	if err != nil {
		return fmt.Errorf("creating stream %s: %w", models.JobsStream, err)
	}

	deliveries := make(chan INatsMsg)
	var tasks []concurrent.Task

	for _, name := range c.executor.Names() {
		consumer, err := stream.CreateOrUpdateConsumer(ctx, JobConsumerConfig(name, c.executor.Policy(), c.ackWait))
		if err != nil {
			return fmt.Errorf("creating consumer for %s: %w", name, err)
		}
		slog.InfoContext(ctx, "consuming jobs", "job", name, "subject", models.JobSubject(name))
		tasks = append(tasks, func(ctx context.Context) error {
			return c.pull(ctx, name, consumer, deliveries)
		})
	}

	for range c.workers {
		tasks = append(tasks, func(ctx context.Context) error {
			for {
				select {
				case <-ctx.Done():
					return nil
				case msg := <-deliveries:
					c.Handle(ctx, msg)
				}
			}
		})
	}

	pool := concurrent.NewWorkerPool(len(tasks))
	return pool.Run(ctx, tasks...)
}

func (c *JobConsumer) pull(ctx context.Context, name string, consumer jetstream.Consumer, out chan<- INatsMsg) error {
	iter, err := consumer.Messages(jetstream.PullMaxMessages(c.workers))
	if err != nil {
		return fmt.Errorf("pulling %s jobs: %w", name, err)
	}
	go func() {
		<-ctx.Done()
		iter.Stop()
	}()

	for {
		msg, err := iter.Next()
		if err != nil {
			if errors.Is(err, jetstream.ErrMsgIteratorClosed) || ctx.Err() != nil {
				return nil
			}
			slog.WarnContext(ctx, "error pulling job", logging.ErrKey, err, "job", name)
			continue
		}
		select {
		case out <- msg:
		case <-ctx.Done():
			return nil
		}
	}
}

// Handle executes one delivery and acknowledges it according to the result.
func (c *JobConsumer) Handle(ctx context.Context, msg INatsMsg) {
	var env models.JobEnvelope
	if err := json.Unmarshal(msg.Data(), &env); err != nil || env.Name == "" {
		slog.ErrorContext(ctx, "dropping malformed job message", logging.ErrKey, err, logging.PriorityCritical())
		c.settle(ctx, msg.Term, "term")
		return
	}

	attempt := 1
	if meta, err := msg.Metadata(); err == nil && meta.NumDelivered > 0 {
		attempt = int(meta.NumDelivered)
	}

	if msg.Headers() != nil {
		ctx = otel.GetTextMapPropagator().Extract(ctx, propagation.HeaderCarrier(http.Header(msg.Headers())))
	}

	stop := c.keepAlive(ctx, msg)
	result := c.executor.Execute(ctx, jobs.Job{JobEnvelope: env, Attempt: attempt})
	stop()

	switch result.Outcome {
	case jobs.OutcomeCompleted, jobs.OutcomeSkipped:
		c.settle(ctx, msg.Ack, "ack")
	case jobs.OutcomeRetry:
		c.settle(ctx, func() error { return msg.NakWithDelay(result.Delay) }, "nak")
	case jobs.OutcomeDeadLettered:
		c.settle(ctx, msg.Term, "term")
	}
}

// keepAlive extends the ack deadline while a job runs.
func (c *JobConsumer) keepAlive(ctx context.Context, msg INatsMsg) func() {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(c.ackWait / 2)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := msg.InProgress(); err != nil {
					slog.WarnContext(ctx, "error extending job deadline", logging.ErrKey, err)
				}
			}
		}
	}()
	return func() { close(done) }
}

func (c *JobConsumer) settle(ctx context.Context, fn func() error, action string) {
	if err := fn(); err != nil {
		slog.ErrorContext(ctx, "error settling job message", logging.ErrKey, err, "action", action)
	}
}
