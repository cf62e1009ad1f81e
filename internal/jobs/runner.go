// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package jobs runs multi-step background jobs with memoized steps, bounded retries and
// dead lettering.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/victor-cyril/Agenda-AI/internal/domain"
	"github.com/victor-cyril/Agenda-AI/internal/domain/models"
	"github.com/victor-cyril/Agenda-AI/internal/logging"
	"github.com/victor-cyril/Agenda-AI/internal/observability/metrics"
)

// Job is one delivery of an enqueued job.
type Job struct {
	models.JobEnvelope
	// Attempt is the 1-based delivery count.
	Attempt int
}

// Handler executes a job. Step results are memoized through steps.
type Handler func(ctx context.Context, job Job, steps *Steps) error

// Outcome tells the consumer what to do with the delivery.
type Outcome int

const (
	// OutcomeCompleted acknowledges the delivery.
	OutcomeCompleted Outcome = iota
	// OutcomeSkipped acknowledges the delivery; the job ended early on purpose.
	OutcomeSkipped
	// OutcomeRetry asks for redelivery after Result.Delay.
	OutcomeRetry
	// OutcomeDeadLettered terminates the delivery; the job was copied to the dead letter subject.
	OutcomeDeadLettered
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return metrics.OutcomeOK
	case OutcomeSkipped:
		return metrics.OutcomeSkipped
	case OutcomeRetry:
		return metrics.OutcomeRetried
	case OutcomeDeadLettered:
		return metrics.OutcomeDeadLettered
	}
	return "unknown"
}

// Result is the outcome of one execution.
type Result struct {
	Outcome Outcome
	Delay   time.Duration
	Err     error
}

// Runner dispatches jobs to their handlers.
type Runner struct {
	store       domain.StepStore
	deadLetters domain.DeadLetterPublisher
	policy      RetryPolicy
	metrics     *metrics.Metrics

	mu       sync.RWMutex
	handlers map[string]Handler
}

// Option configures a Runner.
type Option func(*Runner)

// WithMetrics records job outcomes in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Runner) {
		r.metrics = m
	}
}

// WithRetryPolicy replaces the default retry policy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(r *Runner) {
		r.policy = p
	}
}

// NewRunner creates a Runner that memoizes steps in store and dead-letters through deadLetters.
func NewRunner(store domain.StepStore, deadLetters domain.DeadLetterPublisher, opts ...Option) *Runner {
	r := &Runner{
		store:       store,
		deadLetters: deadLetters,
		policy:      DefaultRetryPolicy(),
		handlers:    make(map[string]Handler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register binds a handler to a job name.
func (r *Runner) Register(name string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = h
}

// Names returns the registered job names, sorted.
func (r *Runner) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Policy returns the retry policy of the runner.
func (r *Runner) Policy() RetryPolicy {
	return r.policy
}

// Execute runs one delivery of job and decides what happens to it next.
func (r *Runner) Execute(ctx context.Context, job Job) Result {
	ctx = logging.WithJob(ctx, job.Name, job.ID, job.Attempt)
	ctx, span := otel.Tracer("jobs").Start(ctx, "job "+job.Name)
	defer span.End()
	span.SetAttributes(
		attribute.String("job.name", job.Name),
		attribute.String("job.id", job.ID),
		attribute.Int("job.attempt", job.Attempt),
	)

	start := time.Now()
	result := r.execute(ctx, job)
	r.metrics.ObserveJob(job.Name, result.Outcome.String(), time.Since(start))

	if result.Err != nil && result.Outcome != OutcomeSkipped {
		span.RecordError(result.Err)
		span.SetStatus(codes.Error, result.Err.Error())
	}
	return result
}

func (r *Runner) execute(ctx context.Context, job Job) Result {
	r.mu.RLock()
	handler, ok := r.handlers[job.Name]
	r.mu.RUnlock()
	if !ok {
		return r.deadLetter(ctx, job, Permanent(fmt.Errorf("no handler registered for job %q", job.Name)))
	}

	slog.DebugContext(ctx, "executing job")

	err := runHandler(ctx, handler, job, NewSteps(job.ID, r.store, r.metrics))
	switch {
	case err == nil:
		slog.InfoContext(ctx, "job completed")
		return Result{Outcome: OutcomeCompleted}
	case IsSkip(err):
		slog.InfoContext(ctx, "job ended early", "reason", err.Error())
		return Result{Outcome: OutcomeSkipped, Err: err}
	case IsPermanent(err), r.policy.Exhausted(job.Attempt):
		return r.deadLetter(ctx, job, err)
	default:
		delay := r.policy.Backoff(job.Attempt)
		slog.WarnContext(ctx, "job failed, will retry", logging.ErrKey, err, "delay", delay.String())
		return Result{Outcome: OutcomeRetry, Delay: delay, Err: err}
	}
}

func (r *Runner) deadLetter(ctx context.Context, job Job, cause error) Result {
	if err := r.deadLetters.PublishDeadLetter(ctx, job.JobEnvelope, cause); err != nil {
		delay := r.policy.Backoff(job.Attempt)
		slog.ErrorContext(ctx, "failed to dead-letter job, will retry", logging.ErrKey, err, "cause", cause.Error())
		return Result{Outcome: OutcomeRetry, Delay: delay, Err: cause}
	}
	slog.ErrorContext(ctx, "job moved to dead letter subject",
		logging.ErrKey, cause,
		logging.PriorityCritical(),
	)
	return Result{Outcome: OutcomeDeadLettered, Err: cause}
}

func runHandler(ctx context.Context, h Handler, job Job, steps *Steps) (err error) {
	defer func() {
		if p := recover(); p != nil {
			slog.ErrorContext(ctx, "job handler panicked", "panic", p, "stack", string(debug.Stack()))
			err = fmt.Errorf("job handler panicked: %v", p)
		}
	}()
	return h(ctx, job, steps)
}
