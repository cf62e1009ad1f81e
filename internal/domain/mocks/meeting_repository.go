// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/victor-cyril/Agenda-AI/internal/domain/models"
)

// MockMeetingRepository implements MeetingRepository for testing
type MockMeetingRepository struct {
	mock.Mock
}

func (m *MockMeetingRepository) GetMeeting(ctx context.Context, meetingID string) (*models.Meeting, error) {
	args := m.Called(ctx, meetingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Meeting), args.Error(1)
}

func (m *MockMeetingRepository) GetMeetingWithAgent(ctx context.Context, meetingID string, status models.MeetingStatus) (*models.MeetingWithAgent, error) {
	args := m.Called(ctx, meetingID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MeetingWithAgent), args.Error(1)
}

func (m *MockMeetingRepository) CompareAndSwapStatus(ctx context.Context, meetingID string, from, to models.MeetingStatus, patch models.MeetingPatch) (bool, error) {
	args := m.Called(ctx, meetingID, from, to, patch)
	return args.Bool(0), args.Error(1)
}

func (m *MockMeetingRepository) SetTranscriptURL(ctx context.Context, meetingID, url string) (bool, error) {
	args := m.Called(ctx, meetingID, url)
	return args.Bool(0), args.Error(1)
}

func (m *MockMeetingRepository) SetRecordingURL(ctx context.Context, meetingID, url string) (bool, error) {
	args := m.Called(ctx, meetingID, url)
	return args.Bool(0), args.Error(1)
}

// MockAgentRepository implements AgentRepository for testing
type MockAgentRepository struct {
	mock.Mock
}

func (m *MockAgentRepository) GetAgent(ctx context.Context, agentID string) (*models.Agent, error) {
	args := m.Called(ctx, agentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Agent), args.Error(1)
}

// MockSpeakerDirectory implements SpeakerDirectory for testing
type MockSpeakerDirectory struct {
	mock.Mock
}

func (m *MockSpeakerDirectory) UserNames(ctx context.Context, ids []string) (map[string]string, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]string), args.Error(1)
}

func (m *MockSpeakerDirectory) AgentNames(ctx context.Context, ids []string) (map[string]string, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]string), args.Error(1)
}

// MockIdempotencyLedger implements IdempotencyLedger for testing
type MockIdempotencyLedger struct {
	mock.Mock
}

func (m *MockIdempotencyLedger) Claim(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyLedger) Release(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}
