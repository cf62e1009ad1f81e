// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package stream

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/victor-cyril/Agenda-AI/internal/domain"
	"github.com/victor-cyril/Agenda-AI/internal/domain/models"
	"github.com/victor-cyril/Agenda-AI/internal/observability/metrics"
)

// queryMessagesLimit bounds the messages returned when a channel is watched.
const queryMessagesLimit = 50

// ChatClient implements domain.ChatPlatform.
type ChatClient struct {
	*client
}

var _ domain.ChatPlatform = (*ChatClient)(nil)

// NewChatClient creates a chat API client.
func NewChatClient(config Config, m *metrics.Metrics) *ChatClient {
	return &ChatClient{client: newClient("stream_chat", config, m)}
}

func channelPath(channelType, channelID string) string {
	return fmt.Sprintf("/channels/%s/%s", url.PathEscape(channelType), url.PathEscape(channelID))
}

type queryChannelRequest struct {
	State    bool                `json:"state"`
	Watch    bool                `json:"watch"`
	Messages queryMessagesPaging `json:"messages"`
}

type queryMessagesPaging struct {
	Limit int `json:"limit"`
}

type channelMessage struct {
	ID   string          `json:"id"`
	Text string          `json:"text"`
	User models.ChatUser `json:"user"`
}

type queryChannelResponse struct {
	Messages []channelMessage `json:"messages"`
}

// QueryChannel returns the recent messages of the channel, oldest first.
func (c *ChatClient) QueryChannel(ctx context.Context, channelType, channelID string) ([]models.ChatMessage, error) {
	var resp queryChannelResponse
	err := c.do(ctx, "POST", c.config.ChatBaseURL, channelPath(channelType, channelID)+"/query", queryChannelRequest{
		State:    true,
		Watch:    true,
		Messages: queryMessagesPaging{Limit: queryMessagesLimit},
	}, &resp)
	if err != nil {
		return nil, err
	}

	messages := make([]models.ChatMessage, 0, len(resp.Messages))
	for _, msg := range resp.Messages {
		messages = append(messages, models.ChatMessage{ID: msg.ID, Text: msg.Text, UserID: msg.User.ID})
	}
	return messages, nil
}

type upsertUsersRequest struct {
	Users map[string]models.ChatUser `json:"users"`
}

// UpsertUser creates or updates a chat user.
func (c *ChatClient) UpsertUser(ctx context.Context, user models.ChatUser) error {
	return c.do(ctx, "POST", c.config.ChatBaseURL, "/users", upsertUsersRequest{
		Users: map[string]models.ChatUser{user.ID: user},
	}, nil)
}

type sendMessageRequest struct {
	Message outgoingMessage `json:"message"`
}

type outgoingMessage struct {
	Text   string          `json:"text"`
	UserID string          `json:"user_id"`
	User   models.ChatUser `json:"user"`
}

// SendMessage posts text to the channel on behalf of from.
func (c *ChatClient) SendMessage(ctx context.Context, channelType, channelID string, from models.ChatUser, text string) error {
	return c.do(ctx, "POST", c.config.ChatBaseURL, channelPath(channelType, channelID)+"/message", sendMessageRequest{
		Message: outgoingMessage{Text: text, UserID: from.ID, User: from},
	}, nil)
}

// CreateUserToken issues a client token for the chat SDK.
func (c *ChatClient) CreateUserToken(userID string, ttl time.Duration) (string, error) {
	return c.tokens.UserToken(userID, ttl)
}
