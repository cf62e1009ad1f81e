// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/victor-cyril/Agenda-AI/internal/domain"
	"github.com/victor-cyril/Agenda-AI/internal/domain/models"
	"github.com/victor-cyril/Agenda-AI/internal/jobs"
	"github.com/victor-cyril/Agenda-AI/internal/logging"
)

// Agent connection step names.
const (
	StepLoadAgent    = "load-agent"
	StepConnectAgent = "connect-agent"
	StepSendGreeting = "send-greeting"
)

// Agent session defaults.
const (
	AgentVoice    = "alloy"
	AgentGreeting = "Hello?"
)

// AgentConnection attaches the meeting's agent to a live call and makes it speak first.
type AgentConnection struct {
	Meetings domain.MeetingRepository
	Agents   domain.AgentRepository
	Video    domain.VideoPlatform
}

// NewAgentConnection creates the agent connection job handler.
func NewAgentConnection(meetings domain.MeetingRepository, agents domain.AgentRepository, video domain.VideoPlatform) *AgentConnection {
	return &AgentConnection{
		Meetings: meetings,
		Agents:   agents,
		Video:    video,
	}
}

// ServiceReady checks if the job handler has all its dependencies.
func (c *AgentConnection) ServiceReady() bool {
	return c.Meetings != nil && c.Agents != nil && c.Video != nil
}

// Run executes a meetings/connect-agent job.
func (c *AgentConnection) Run(ctx context.Context, job jobs.Job, steps *jobs.Steps) error {
	var payload models.ConnectAgentPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return jobs.Permanent(fmt.Errorf("decoding payload: %w", err))
	}
	if payload.MeetingID == "" || payload.AgentID == "" {
		return jobs.Permanent(errors.New("payload requires meetingId and agentId"))
	}
	ctx = logging.WithMeeting(ctx, payload.MeetingID)

	meeting, err := c.Meetings.GetMeeting(ctx, payload.MeetingID)
	if err != nil {
		if errors.Is(err, domain.ErrMeetingNotFound) {
			return jobs.Skip("meeting no longer exists")
		}
		return err
	}
	if meeting.Status != models.MeetingStatusActive {
		return jobs.Skip("meeting is %s, not active", meeting.Status)
	}

	agent, err := jobs.Step(ctx, steps, StepLoadAgent, func(ctx context.Context) (models.Agent, error) {
		agent, err := c.Agents.GetAgent(ctx, payload.AgentID)
		if err != nil {
			if errors.Is(err, domain.ErrAgentNotFound) {
				return models.Agent{}, jobs.Permanent(err)
			}
			return models.Agent{}, err
		}
		return *agent, nil
	})
	if err != nil {
		return err
	}

	err = jobs.Do(ctx, steps, StepConnectAgent, func(ctx context.Context) error {
		return c.Video.ConnectAgent(ctx, models.CallTypeDefault, payload.MeetingID, domain.AgentSession{
			AgentID:      agent.ID,
			Instructions: agent.Instructions,
			Voice:        AgentVoice,
		})
	})
	if err != nil {
		slog.ErrorContext(ctx, "error connecting agent to call", logging.ErrKey, err, "agent_id", agent.ID)
		return err
	}

	return jobs.Do(ctx, steps, StepSendGreeting, func(ctx context.Context) error {
		return c.Video.SendAgentMessage(ctx, models.CallTypeDefault, payload.MeetingID, agent.ID, AgentGreeting)
	})
}

// ignoreMeetingNotFound turns a missing meeting into a logged no-op.
func ignoreMeetingNotFound(ctx context.Context, err error) error {
	if errors.Is(err, domain.ErrMeetingNotFound) {
		slog.InfoContext(ctx, "meeting no longer exists")
		return nil
	}
	return err
}
