// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/victor-cyril/Agenda-AI/internal/domain"
	"github.com/victor-cyril/Agenda-AI/internal/domain/mocks"
	"github.com/victor-cyril/Agenda-AI/internal/domain/models"
	"github.com/victor-cyril/Agenda-AI/internal/jobs"
)

// newTestStore returns a store holding user u1 (Ada), agent a1 (Tutor) and meeting m1
// in the given status.
func newTestStore(status models.MeetingStatus) *domain.MockMeetingStore {
	store := domain.NewMockMeetingStore()
	store.AddUser("u1", "Ada")
	store.AddAgent(models.Agent{
		ID:           "a1",
		Name:         "Tutor",
		UserID:       "u1",
		Instructions: "Be a patient tutor.",
	})
	store.AddMeeting(models.Meeting{
		ID:      "m1",
		Name:    "Standup",
		UserID:  "u1",
		AgentID: "a1",
		Status:  status,
	})
	return store
}

// testRunner executes jobs with in-memory step results and no dead lettering.
type testRunner struct {
	*jobs.Runner
	Steps       *domain.MockStepStore
	DeadLetters *mocks.MockDeadLetterPublisher
}

func newTestRunner() *testRunner {
	steps := domain.NewMockStepStore()
	deadLetters := &mocks.MockDeadLetterPublisher{}
	return &testRunner{
		Runner:      jobs.NewRunner(steps, deadLetters),
		Steps:       steps,
		DeadLetters: deadLetters,
	}
}

func (r *testRunner) run(t *testing.T, envelope models.JobEnvelope, attempt int) jobs.Result {
	t.Helper()
	return r.Execute(context.Background(), jobs.Job{JobEnvelope: envelope, Attempt: attempt})
}

func newEnvelope(t *testing.T, name, id string, payload any) models.JobEnvelope {
	t.Helper()
	envelope, err := models.NewJobEnvelope(name, id, payload)
	require.NoError(t, err)
	return envelope
}
