// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package mocks

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/victor-cyril/Agenda-AI/internal/domain/models"
)

// MockJobPublisher implements JobPublisher for testing
type MockJobPublisher struct {
	mock.Mock
}

func (m *MockJobPublisher) PublishJob(ctx context.Context, job models.JobEnvelope) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

// MockDeadLetterPublisher implements DeadLetterPublisher for testing
type MockDeadLetterPublisher struct {
	mock.Mock
}

func (m *MockDeadLetterPublisher) PublishDeadLetter(ctx context.Context, job models.JobEnvelope, cause error) error {
	args := m.Called(ctx, job, cause)
	return args.Error(0)
}

// RecordingJobPublisher records published jobs and drops duplicate ids, like the
// JetStream duplicate window does.
type RecordingJobPublisher struct {
	mu   sync.Mutex
	Jobs []models.JobEnvelope
	seen map[string]struct{}
	Err  error
}

func (p *RecordingJobPublisher) PublishJob(ctx context.Context, job models.JobEnvelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	if p.seen == nil {
		p.seen = make(map[string]struct{})
	}
	if _, ok := p.seen[job.ID]; ok {
		return nil
	}
	p.seen[job.ID] = struct{}{}
	p.Jobs = append(p.Jobs, job)
	return nil
}

// Published returns a copy of the jobs published with the given name.
func (p *RecordingJobPublisher) Published(name string) []models.JobEnvelope {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []models.JobEnvelope
	for _, job := range p.Jobs {
		if job.Name == name {
			out = append(out, job)
		}
	}
	return out
}
