// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package domain

import (
	"context"

	"github.com/victor-cyril/Agenda-AI/internal/domain/models"
)

// JobPublisher enqueues background jobs.
type JobPublisher interface {
	// PublishJob enqueues the job. Publishing the same job id twice within the
	// duplicate window enqueues it once.
	PublishJob(ctx context.Context, job models.JobEnvelope) error
}

// DeadLetterPublisher receives jobs that exhausted their deliveries.
type DeadLetterPublisher interface {
	PublishDeadLetter(ctx context.Context, job models.JobEnvelope, cause error) error
}

// MessagingHealth reports whether the messaging connection is usable.
type MessagingHealth interface {
	IsReady() error
}
