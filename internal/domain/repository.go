// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package domain

import (
	"context"

	"github.com/victor-cyril/Agenda-AI/internal/domain/models"
)

// MeetingRepository defines the meeting storage operations used by the event pipeline.
// Every status change goes through CompareAndSwapStatus.
type MeetingRepository interface {
	// GetMeeting returns ErrMeetingNotFound when no meeting has the id.
	GetMeeting(ctx context.Context, meetingID string) (*models.Meeting, error)

	// GetMeetingWithAgent returns the meeting joined with its agent when the meeting has the
	// given status, ErrMeetingNotFound otherwise.
	GetMeetingWithAgent(ctx context.Context, meetingID string, status models.MeetingStatus) (*models.MeetingWithAgent, error)

	// CompareAndSwapStatus moves the meeting from one status to another and writes patch in the
	// same statement. It reports false, without error, when the meeting is absent or not in from.
	CompareAndSwapStatus(ctx context.Context, meetingID string, from, to models.MeetingStatus, patch models.MeetingPatch) (bool, error)

	// SetTranscriptURL and SetRecordingURL update the field whatever the status.
	// They report false when the meeting does not exist.
	SetTranscriptURL(ctx context.Context, meetingID, url string) (bool, error)
	SetRecordingURL(ctx context.Context, meetingID, url string) (bool, error)
}

// AgentRepository defines the agent lookups used by the event pipeline.
type AgentRepository interface {
	// GetAgent returns ErrAgentNotFound when no agent has the id.
	GetAgent(ctx context.Context, agentID string) (*models.Agent, error)
}

// SpeakerDirectory resolves transcript speaker ids against the user and agent tables.
type SpeakerDirectory interface {
	UserNames(ctx context.Context, ids []string) (map[string]string, error)
	AgentNames(ctx context.Context, ids []string) (map[string]string, error)
}

// StepStore persists memoized job step results.
type StepStore interface {
	// GetStep reports false when the step has no stored result.
	GetStep(ctx context.Context, jobID, step string) ([]byte, bool, error)
	PutStep(ctx context.Context, jobID, step string, result []byte) error
}

// IdempotencyLedger records claims on keys so that an action happens once per key.
type IdempotencyLedger interface {
	// Claim reports true when the caller is the first to claim the key.
	Claim(ctx context.Context, key string) (bool, error)
	// Release removes a claim so that the key can be claimed again.
	Release(ctx context.Context, key string) error
}
