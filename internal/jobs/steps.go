// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/victor-cyril/Agenda-AI/internal/domain"
	"github.com/victor-cyril/Agenda-AI/internal/logging"
	"github.com/victor-cyril/Agenda-AI/internal/observability/metrics"
)

// StepFunc computes the result of a step.
type StepFunc func(ctx context.Context) (any, error)

// Steps memoizes the named steps of one job. A step that succeeded once for a job id
// returns its stored result on every later execution of that job.
type Steps struct {
	jobID   string
	store   domain.StepStore
	metrics *metrics.Metrics
}

// NewSteps creates the step handle of a job.
func NewSteps(jobID string, store domain.StepStore, m *metrics.Metrics) *Steps {
	return &Steps{jobID: jobID, store: store, metrics: m}
}

// Run returns the stored result of step name into out, or runs fn, stores its result and
// decodes it into out. out may be nil for steps whose result is not needed.
func (s *Steps) Run(ctx context.Context, name string, out any, fn StepFunc) error {
	ctx = logging.AppendCtx(ctx, slog.String(logging.StepKey, name))

	cached, found, err := s.store.GetStep(ctx, s.jobID, name)
	if err != nil {
		return fmt.Errorf("loading step %q: %w", name, err)
	}
	s.metrics.ObserveStep(found)
	if found {
		slog.DebugContext(ctx, "step result reused")
		return decodeStep(name, cached, out)
	}

	result, err := fn(ctx)
	if err != nil {
		if IsSkip(err) {
			return err
		}
		return &StepError{Step: name, Err: err}
	}

	encoded, err := msgpack.Marshal(result)
	if err != nil {
		return Permanent(fmt.Errorf("encoding step %q: %w", name, err))
	}

	if err := s.store.PutStep(ctx, s.jobID, name, encoded); err != nil {
		// The step already ran; failing here would run it again on retry.
		slog.ErrorContext(ctx, "failed to store step result", logging.ErrKey, err)
	} else {
		slog.DebugContext(ctx, "step completed")
	}

	return decodeStep(name, encoded, out)
}

func decodeStep(name string, data []byte, out any) error {
	if out == nil {
		return nil
	}
	if err := msgpack.Unmarshal(data, out); err != nil {
		return Permanent(fmt.Errorf("decoding step %q: %w", name, err))
	}
	return nil
}

// Step runs fn as a memoized step of s and returns its typed result.
func Step[T any](ctx context.Context, s *Steps, name string, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := s.Run(ctx, name, &out, func(ctx context.Context) (any, error) {
		return fn(ctx)
	})
	return out, err
}

// Do runs fn as a memoized step of s that has no result.
func Do(ctx context.Context, s *Steps, name string, fn func(ctx context.Context) error) error {
	return s.Run(ctx, name, nil, func(ctx context.Context) (any, error) {
		return true, fn(ctx)
	})
}
