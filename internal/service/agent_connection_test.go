// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/victor-cyril/Agenda-AI/internal/domain"
	"github.com/victor-cyril/Agenda-AI/internal/domain/mocks"
	"github.com/victor-cyril/Agenda-AI/internal/domain/models"
	"github.com/victor-cyril/Agenda-AI/internal/jobs"
)

func newAgentConnectionFixture(status models.MeetingStatus) (*domain.MockMeetingStore, *mocks.MockVideoPlatform, *testRunner) {
	store := newTestStore(status)
	video := &mocks.MockVideoPlatform{}
	runner := newTestRunner()
	runner.Register(models.JobConnectAgent, NewAgentConnection(store, store, video).Run)
	return store, video, runner
}

func connectJob(t *testing.T, agentID string) models.JobEnvelope {
	return newEnvelope(t, models.JobConnectAgent, "connect-agent-m1", models.ConnectAgentPayload{MeetingID: "m1", AgentID: agentID})
}

func TestAgentConnection_ConnectsAndGreets(t *testing.T) {
	_, video, runner := newAgentConnectionFixture(models.MeetingStatusActive)

	video.On("ConnectAgent", mock.Anything, "default", "m1", domain.AgentSession{
		AgentID:      "a1",
		Instructions: "Be a patient tutor.",
		Voice:        AgentVoice,
	}).Return(nil).Once()
	video.On("SendAgentMessage", mock.Anything, "default", "m1", "a1", AgentGreeting).Return(nil).Once()

	result := runner.run(t, connectJob(t, "a1"), 1)
	assert.Equal(t, jobs.OutcomeCompleted, result.Outcome)
	video.AssertExpectations(t)
}

func TestAgentConnection_GreetingRetryDoesNotReconnect(t *testing.T) {
	_, video, runner := newAgentConnectionFixture(models.MeetingStatusActive)

	video.On("ConnectAgent", mock.Anything, "default", "m1", mock.Anything).Return(nil).Once()
	video.On("SendAgentMessage", mock.Anything, "default", "m1", "a1", AgentGreeting).Return(domain.NewUnavailableError("bridge busy")).Once()
	video.On("SendAgentMessage", mock.Anything, "default", "m1", "a1", AgentGreeting).Return(nil).Once()

	job := connectJob(t, "a1")
	assert.Equal(t, jobs.OutcomeRetry, runner.run(t, job, 1).Outcome)
	assert.Equal(t, jobs.OutcomeCompleted, runner.run(t, job, 2).Outcome)

	video.AssertNumberOfCalls(t, "ConnectAgent", 1)
	video.AssertNumberOfCalls(t, "SendAgentMessage", 2)
}

func TestAgentConnection_SkipsInactiveMeeting(t *testing.T) {
	_, video, runner := newAgentConnectionFixture(models.MeetingStatusProcessing)

	result := runner.run(t, connectJob(t, "a1"), 1)
	assert.Equal(t, jobs.OutcomeSkipped, result.Outcome)
	video.AssertNotCalled(t, "ConnectAgent", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAgentConnection_UnknownAgentDeadLetters(t *testing.T) {
	_, video, runner := newAgentConnectionFixture(models.MeetingStatusActive)
	runner.DeadLetters.On("PublishDeadLetter", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

	result := runner.run(t, connectJob(t, "ghost"), 1)
	assert.Equal(t, jobs.OutcomeDeadLettered, result.Outcome)
	video.AssertNotCalled(t, "ConnectAgent", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	runner.DeadLetters.AssertExpectations(t)
}
