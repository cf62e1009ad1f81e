// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import (
	"time"
)

// MeetingStatus is the lifecycle status of a meeting.
type MeetingStatus string

// Meeting lifecycle statuses.
const (
	MeetingStatusUpcoming   MeetingStatus = "upcoming"
	MeetingStatusActive     MeetingStatus = "active"
	MeetingStatusProcessing MeetingStatus = "processing"
	MeetingStatusCompleted  MeetingStatus = "completed"
	MeetingStatusCancelled  MeetingStatus = "cancelled"
)

// Valid reports whether s is one of the known statuses.
func (s MeetingStatus) Valid() bool {
	switch s {
	case MeetingStatusUpcoming, MeetingStatusActive, MeetingStatusProcessing,
		MeetingStatusCompleted, MeetingStatusCancelled:
		return true
	}
	return false
}

func (s MeetingStatus) String() string {
	return string(s)
}

// Meeting is the relational representation of a meeting.
type Meeting struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	UserID        string        `json:"user_id"`
	AgentID       string        `json:"agent_id"`
	Status        MeetingStatus `json:"status"`
	TranscriptURL *string       `json:"transcript_url,omitempty"`
	RecordingURL  *string       `json:"recording_url,omitempty"`
	Summary       *string       `json:"summary,omitempty"`
	StartedAt     *time.Time    `json:"started_at,omitempty"`
	EndedAt       *time.Time    `json:"ended_at,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// Agent is an AI participant owned by a user.
type Agent struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	UserID       string    `json:"user_id"`
	Instructions string    `json:"instructions"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// MeetingWithAgent is a meeting joined with its assigned agent.
type MeetingWithAgent struct {
	Meeting
	Agent Agent `json:"agent"`
}

// MeetingPatch holds the fields written together with a status transition.
// Nil fields are left untouched.
type MeetingPatch struct {
	StartedAt *time.Time
	EndedAt   *time.Time
	Summary   *string
}
