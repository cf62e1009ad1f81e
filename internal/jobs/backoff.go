// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package jobs

import "time"

// Default retry policy values.
const (
	DefaultMaxDeliver  = 10
	DefaultBackoffBase = 5 * time.Second
	DefaultBackoffMax  = 10 * time.Minute
)

// RetryPolicy bounds how often and how fast a failing job is redelivered.
type RetryPolicy struct {
	// MaxDeliver is the number of deliveries after which a failing job is dead-lettered.
	MaxDeliver  int
	BackoffBase time.Duration
	BackoffMax  time.Duration
}

// DefaultRetryPolicy returns the policy used when nothing is configured.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxDeliver:  DefaultMaxDeliver,
		BackoffBase: DefaultBackoffBase,
		BackoffMax:  DefaultBackoffMax,
	}
}

// Backoff returns the redelivery delay after the given 1-based delivery attempt failed:
// BackoffBase * 2^(attempt-1), capped at BackoffMax.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	base := p.BackoffBase
	if base <= 0 {
		base = DefaultBackoffBase
	}
	limit := p.BackoffMax
	if limit <= 0 {
		limit = DefaultBackoffMax
	}

	delay := base
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= limit || delay <= 0 {
			return limit
		}
	}
	if delay > limit {
		return limit
	}
	return delay
}

// Exhausted reports whether the attempt was the last one allowed.
func (p RetryPolicy) Exhausted(attempt int) bool {
	return p.MaxDeliver > 0 && attempt >= p.MaxDeliver
}
