// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package domain

import (
	"context"
	"time"

	"github.com/victor-cyril/Agenda-AI/internal/domain/models"
)

// AgentSession describes how an AI participant behaves once attached to a call.
type AgentSession struct {
	AgentID      string
	Instructions string
	Voice        string
}

// VideoPlatform is the command surface of the video call platform.
type VideoPlatform interface {
	// EndCall ends the call. Ending a call that already ended is not an error.
	EndCall(ctx context.Context, callType, callID string) error
	// ConnectAgent attaches an AI participant to the call.
	ConnectAgent(ctx context.Context, callType, callID string, session AgentSession) error
	// SendAgentMessage sends an utterance as the connected agent.
	SendAgentMessage(ctx context.Context, callType, callID, agentID, text string) error
	CreateUserToken(userID string, ttl time.Duration) (string, error)
}

// ChatPlatform is the command surface of the chat platform.
type ChatPlatform interface {
	// QueryChannel opens the channel and returns its recent messages, oldest first.
	QueryChannel(ctx context.Context, channelType, channelID string) ([]models.ChatMessage, error)
	UpsertUser(ctx context.Context, user models.ChatUser) error
	SendMessage(ctx context.Context, channelType, channelID string, from models.ChatUser, text string) error
	CreateUserToken(userID string, ttl time.Duration) (string, error)
}

// CompletionClient generates text from a list of messages.
type CompletionClient interface {
	// Complete returns the content of the first choice, empty when there is none.
	Complete(ctx context.Context, req models.CompletionRequest) (string, error)
}

// TranscriptSource fetches transcript documents.
type TranscriptSource interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// WebhookValidator checks the signature of a webhook body.
type WebhookValidator interface {
	ValidateSignature(body []byte, signature, apiKey string) error
}
