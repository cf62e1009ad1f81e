// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/victor-cyril/Agenda-AI/internal/domain"
	"github.com/victor-cyril/Agenda-AI/internal/domain/mocks"
	"github.com/victor-cyril/Agenda-AI/internal/domain/models"
	"github.com/victor-cyril/Agenda-AI/internal/jobs"
	"github.com/victor-cyril/Agenda-AI/internal/service"
)

func TestJobHandlers_Register(t *testing.T) {
	store := domain.NewMockMeetingStore()
	store.AddAgent(models.Agent{ID: "a1", Name: "Tutor", Instructions: "Be brief."})
	store.AddMeeting(models.Meeting{ID: "m1", AgentID: "a1", Status: models.MeetingStatusActive})

	video := &mocks.MockVideoPlatform{}
	chat := &mocks.MockChatPlatform{}
	completions := &mocks.MockCompletionClient{}

	h := NewJobHandlers(
		service.NewTranscriptPipeline(store, store, &mocks.MockTranscriptSource{}, completions),
		service.NewChatPipeline(store, chat, completions),
		service.NewAgentConnection(store, store, video),
	)
	require.True(t, h.HandlerReady())

	runner := jobs.NewRunner(domain.NewMockStepStore(), &mocks.MockDeadLetterPublisher{})
	h.Register(runner)
	assert.ElementsMatch(t, models.JobNames, runner.Names())

	video.On("ConnectAgent", mock.Anything, "default", "m1", mock.Anything).Return(nil).Once()
	video.On("SendAgentMessage", mock.Anything, "default", "m1", "a1", service.AgentGreeting).Return(nil).Once()

	envelope, err := models.NewJobEnvelope(models.JobConnectAgent, "connect-agent-m1", models.ConnectAgentPayload{MeetingID: "m1", AgentID: "a1"})
	require.NoError(t, err)
	result := runner.Execute(context.Background(), jobs.Job{JobEnvelope: envelope, Attempt: 1})
	assert.Equal(t, jobs.OutcomeCompleted, result.Outcome, "%v", result.Err)
	video.AssertExpectations(t)
}
