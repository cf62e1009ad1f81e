// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import (
	"crypto/sha256"
	"encoding/json"
	"time"

	"github.com/akamensky/base58"
	"github.com/google/uuid"
)

// Background job names.
const (
	JobMeetingProcessing = "meetings/processing"
	JobChatMessage       = "meetings/chat-message"
	JobConnectAgent      = "meetings/connect-agent"
)

// JobNames lists every job the service consumes.
var JobNames = []string{
	JobMeetingProcessing,
	JobChatMessage,
	JobConnectAgent,
}

// JobEnvelope is the wire format of an enqueued background job.
type JobEnvelope struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Payload    json.RawMessage `json:"payload"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

// NewJobEnvelope builds an envelope for payload. An empty id gets a random one.
func NewJobEnvelope(name, id string, payload any) (JobEnvelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return JobEnvelope{}, err
	}
	if id == "" {
		id = uuid.NewString()
	}
	return JobEnvelope{
		ID:         id,
		Name:       name,
		Payload:    raw,
		EnqueuedAt: time.Now().UTC(),
	}, nil
}

// MeetingProcessingPayload is the payload of the transcript processing job.
type MeetingProcessingPayload struct {
	MeetingID     string `json:"meetingId"`
	TranscriptURL string `json:"transcriptUrl"`
}

// ChatMessagePayload is the payload of the chat response job.
type ChatMessagePayload struct {
	UserID    string `json:"userId"`
	ChannelID string `json:"channelId"`
	Text      string `json:"text"`
	MessageID string `json:"messageId,omitempty"`
}

// ConnectAgentPayload is the payload of the agent connection job.
type ConnectAgentPayload struct {
	MeetingID string `json:"meetingId"`
	AgentID   string `json:"agentId"`
}

// TranscriptJobKey derives the idempotency key of a transcript processing job.
// The same meeting and transcript location always yield the same key.
func TranscriptJobKey(meetingID, transcriptURL string) string {
	sum := sha256.Sum256([]byte(meetingID + "\n" + transcriptURL))
	return base58.Encode(sum[:])
}

// ConnectAgentJobKey is the id of the agent connection job of a meeting.
func ConnectAgentJobKey(meetingID string) string {
	return "connect-agent-" + meetingID
}

// ChatJobKey derives the id of a chat message job for a message without a platform id.
// Redeliveries of the same message yield the same key.
func ChatJobKey(channelID, userID, text string, sentAt time.Time) string {
	sum := sha256.Sum256([]byte(channelID + "\n" + userID + "\n" + sentAt.UTC().Format(time.RFC3339Nano) + "\n" + text))
	return base58.Encode(sum[:])
}

// DeadLetter is published on the dead letter subject of a job that will not be retried.
type DeadLetter struct {
	Job      JobEnvelope `json:"job"`
	Error    string      `json:"error"`
	FailedAt time.Time   `json:"failed_at"`
}
