// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package stream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/victor-cyril/Agenda-AI/internal/domain"
	"github.com/victor-cyril/Agenda-AI/internal/observability/metrics"
)

// VideoClient implements domain.VideoPlatform.
type VideoClient struct {
	*client
}

var _ domain.VideoPlatform = (*VideoClient)(nil)

// NewVideoClient creates a video API client.
func NewVideoClient(config Config, m *metrics.Metrics) *VideoClient {
	return &VideoClient{client: newClient("stream_video", config, m)}
}

func callPath(callType, callID string) string {
	return fmt.Sprintf("/call/%s/%s", url.PathEscape(callType), url.PathEscape(callID))
}

// EndCall marks the call as ended for every participant.
func (c *VideoClient) EndCall(ctx context.Context, callType, callID string) error {
	err := c.do(ctx, "POST", c.config.VideoBaseURL, callPath(callType, callID)+"/mark_ended", struct{}{}, nil)
	if err != nil && domain.GetErrorType(err) == domain.ErrorTypeNotFound {
		slog.InfoContext(ctx, "call already gone, nothing to end", "call_type", callType, "call_id", callID)
		return nil
	}
	return err
}

type connectAgentRequest struct {
	CallType     string `json:"call_type"`
	CallID       string `json:"call_id"`
	AgentUserID  string `json:"agent_user_id"`
	Instructions string `json:"instructions"`
	Voice        string `json:"voice,omitempty"`
}

type agentMessageRequest struct {
	CallType string `json:"call_type"`
	CallID   string `json:"call_id"`
	Text     string `json:"text"`
}

// ConnectAgent asks the realtime bridge to join the call as the agent.
func (c *VideoClient) ConnectAgent(ctx context.Context, callType, callID string, session domain.AgentSession) error {
	if c.config.AgentBridgeURL == "" {
		return domain.NewUnavailableError("agent bridge is not configured", errors.New("empty agent bridge URL"))
	}
	return c.do(ctx, "POST", c.config.AgentBridgeURL, "/agents/connect", connectAgentRequest{
		CallType:     callType,
		CallID:       callID,
		AgentUserID:  session.AgentID,
		Instructions: session.Instructions,
		Voice:        session.Voice,
	}, nil)
}

// SendAgentMessage makes the connected agent say text.
func (c *VideoClient) SendAgentMessage(ctx context.Context, callType, callID, agentID, text string) error {
	if c.config.AgentBridgeURL == "" {
		return domain.NewUnavailableError("agent bridge is not configured", errors.New("empty agent bridge URL"))
	}
	path := fmt.Sprintf("/agents/%s/messages", url.PathEscape(agentID))
	return c.do(ctx, "POST", c.config.AgentBridgeURL, path, agentMessageRequest{
		CallType: callType,
		CallID:   callID,
		Text:     text,
	}, nil)
}

// CreateUserToken issues a client token for the video SDK.
func (c *VideoClient) CreateUserToken(userID string, ttl time.Duration) (string, error) {
	return c.tokens.UserToken(userID, ttl)
}
