// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/victor-cyril/Agenda-AI/internal/domain"
	"github.com/victor-cyril/Agenda-AI/internal/domain/models"
)

// MockVideoPlatform implements VideoPlatform for testing
type MockVideoPlatform struct {
	mock.Mock
}

func (m *MockVideoPlatform) EndCall(ctx context.Context, callType, callID string) error {
	args := m.Called(ctx, callType, callID)
	return args.Error(0)
}

func (m *MockVideoPlatform) ConnectAgent(ctx context.Context, callType, callID string, session domain.AgentSession) error {
	args := m.Called(ctx, callType, callID, session)
	return args.Error(0)
}

func (m *MockVideoPlatform) SendAgentMessage(ctx context.Context, callType, callID, agentID, text string) error {
	args := m.Called(ctx, callType, callID, agentID, text)
	return args.Error(0)
}

func (m *MockVideoPlatform) CreateUserToken(userID string, ttl time.Duration) (string, error) {
	args := m.Called(userID, ttl)
	return args.String(0), args.Error(1)
}

// MockChatPlatform implements ChatPlatform for testing
type MockChatPlatform struct {
	mock.Mock
}

func (m *MockChatPlatform) QueryChannel(ctx context.Context, channelType, channelID string) ([]models.ChatMessage, error) {
	args := m.Called(ctx, channelType, channelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ChatMessage), args.Error(1)
}

func (m *MockChatPlatform) UpsertUser(ctx context.Context, user models.ChatUser) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockChatPlatform) SendMessage(ctx context.Context, channelType, channelID string, from models.ChatUser, text string) error {
	args := m.Called(ctx, channelType, channelID, from, text)
	return args.Error(0)
}

func (m *MockChatPlatform) CreateUserToken(userID string, ttl time.Duration) (string, error) {
	args := m.Called(userID, ttl)
	return args.String(0), args.Error(1)
}

// MockCompletionClient implements CompletionClient for testing
type MockCompletionClient struct {
	mock.Mock
}

func (m *MockCompletionClient) Complete(ctx context.Context, req models.CompletionRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

// MockTranscriptSource implements TranscriptSource for testing
type MockTranscriptSource struct {
	mock.Mock
}

func (m *MockTranscriptSource) Fetch(ctx context.Context, url string) (string, error) {
	args := m.Called(ctx, url)
	return args.String(0), args.Error(1)
}

// MockWebhookValidator implements WebhookValidator for testing
type MockWebhookValidator struct {
	mock.Mock
}

func (m *MockWebhookValidator) ValidateSignature(body []byte, signature, apiKey string) error {
	args := m.Called(body, signature, apiKey)
	return args.Error(0)
}
