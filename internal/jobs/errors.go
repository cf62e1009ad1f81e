// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package jobs

import (
	"errors"
	"fmt"
)

// SkipError ends a job execution early without failing it.
type SkipError struct {
	Reason string
}

func (e *SkipError) Error() string {
	return "job skipped: " + e.Reason
}

// Skip returns an error that ends the job silently. The job is acknowledged.
func Skip(reason string, args ...any) error {
	if len(args) > 0 {
		reason = fmt.Sprintf(reason, args...)
	}
	return &SkipError{Reason: reason}
}

// IsSkip reports whether err ends the job silently.
func IsSkip(err error) bool {
	var skip *SkipError
	return errors.As(err, &skip)
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string {
	return e.err.Error()
}

func (e *permanentError) Unwrap() error {
	return e.err
}

// Permanent marks err as not worth retrying. The job goes straight to the dead letter subject.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// StepError is returned when a step function fails.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %q: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
