// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/victor-cyril/Agenda-AI/internal/domain"
	"github.com/victor-cyril/Agenda-AI/internal/domain/models"
	"github.com/victor-cyril/Agenda-AI/internal/jobs"
	"github.com/victor-cyril/Agenda-AI/internal/logging"
	"github.com/victor-cyril/Agenda-AI/pkg/utils"
)

// Chat pipeline step names.
const (
	StepFindMeeting      = "find-meeting"
	StepLoadHistory      = "load-history"
	StepGenerateResponse = "generate-response"
	StepSendResponse     = "send-response"
)

// ChatPipeline answers chat messages posted in the channel of a completed meeting,
// speaking as the meeting's agent.
type ChatPipeline struct {
	Meetings    domain.MeetingRepository
	Chat        domain.ChatPlatform
	Completions domain.CompletionClient
}

// NewChatPipeline creates a chat pipeline.
func NewChatPipeline(meetings domain.MeetingRepository, chat domain.ChatPlatform, completions domain.CompletionClient) *ChatPipeline {
	return &ChatPipeline{
		Meetings:    meetings,
		Chat:        chat,
		Completions: completions,
	}
}

// ServiceReady checks if the pipeline has all its dependencies.
func (p *ChatPipeline) ServiceReady() bool {
	return p.Meetings != nil && p.Chat != nil && p.Completions != nil
}

// Run executes a meetings/chat-message job.
func (p *ChatPipeline) Run(ctx context.Context, job jobs.Job, steps *jobs.Steps) error {
	var payload models.ChatMessagePayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return jobs.Permanent(fmt.Errorf("decoding payload: %w", err))
	}
	if payload.UserID == "" || payload.ChannelID == "" || payload.Text == "" {
		return jobs.Permanent(errors.New("payload requires userId, channelId and text"))
	}
	ctx = logging.WithMeeting(ctx, payload.ChannelID)

	meeting, err := jobs.Step(ctx, steps, StepFindMeeting, func(ctx context.Context) (models.MeetingWithAgent, error) {
		found, err := p.Meetings.GetMeetingWithAgent(ctx, payload.ChannelID, models.MeetingStatusCompleted)
		if err != nil {
			if errors.Is(err, domain.ErrMeetingNotFound) {
				return models.MeetingWithAgent{}, jobs.Skip("no completed meeting for channel %s", payload.ChannelID)
			}
			return models.MeetingWithAgent{}, err
		}
		return *found, nil
	})
	if err != nil {
		return err
	}

	agent := meeting.Agent
	if payload.UserID == agent.ID {
		return jobs.Skip("message was sent by the agent")
	}

	history, err := jobs.Step(ctx, steps, StepLoadHistory, func(ctx context.Context) ([]models.CompletionMessage, error) {
		messages, err := p.Chat.QueryChannel(ctx, models.ChannelTypeMessaging, payload.ChannelID)
		if err != nil {
			return nil, err
		}
		return models.ConversationHistory(messages, agent.ID, models.ChatHistoryLimit), nil
	})
	if err != nil {
		return err
	}

	reply, err := jobs.Step(ctx, steps, StepGenerateResponse, func(ctx context.Context) (string, error) {
		request := models.CompletionRequest{
			Messages: make([]models.CompletionMessage, 0, len(history)+2),
		}
		request.Messages = append(request.Messages, models.CompletionMessage{
			Role:    models.RoleSystem,
			Content: chatInstructions(utils.Value(meeting.Summary), agent.Instructions),
		})
		request.Messages = append(request.Messages, history...)
		request.Messages = append(request.Messages, models.CompletionMessage{Role: models.RoleUser, Content: payload.Text})

		text, err := p.Completions.Complete(ctx, request)
		if err != nil {
			return "", err
		}
		if text == "" {
			return "", jobs.Skip("completion returned no content")
		}
		return text, nil
	})
	if err != nil {
		return err
	}

	from := models.ChatUser{
		ID:    agent.ID,
		Name:  agent.Name,
		Image: avatarURI(agent.Name),
	}

	return jobs.Do(ctx, steps, StepSendResponse, func(ctx context.Context) error {
		if err := p.Chat.UpsertUser(ctx, from); err != nil {
			return err
		}
		return p.Chat.SendMessage(ctx, models.ChannelTypeMessaging, payload.ChannelID, from, reply)
	})
}
