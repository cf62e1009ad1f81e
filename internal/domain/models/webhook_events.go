// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Webhook event types sent by the video and chat platform.
const (
	EventTypeSessionStarted         = "call.session_started"
	EventTypeSessionEnded           = "call.session_ended"
	EventTypeTranscriptionReady     = "call.transcription_ready"
	EventTypeRecordingReady         = "call.recording_ready"
	EventTypeSessionParticipantLeft = "call.session_participant_left"
	EventTypeMessageNew             = "message.new"
)

// Call and channel types used for meetings.
const (
	CallTypeDefault      = "default"
	ChannelTypeMessaging = "messaging"
)

// WebhookEvent is a verified webhook delivery. The concrete type is one of
// the *Event types in this file, or UnrecognizedEvent.
type WebhookEvent interface {
	EventType() string
	isWebhookEvent()
}

// StreamUser is a user reference inside webhook payloads.
type StreamUser struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Image string `json:"image,omitempty"`
}

// StreamCallCustom holds the custom data attached to a call when it was created.
type StreamCallCustom struct {
	MeetingID string `json:"meetingId"`
}

// StreamCall is the call object embedded in session events.
type StreamCall struct {
	ID     string           `json:"id"`
	Type   string           `json:"type"`
	CID    string           `json:"cid"`
	Custom StreamCallCustom `json:"custom"`
}

// StreamCallArtifact is a transcription or recording file produced for a call.
type StreamCallArtifact struct {
	URL       string     `json:"url"`
	Filename  string     `json:"filename,omitempty"`
	SessionID string     `json:"session_id,omitempty"`
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`
}

// StreamParticipant is the participant object of participant events.
type StreamParticipant struct {
	UserSessionID string     `json:"user_session_id,omitempty"`
	Role          string     `json:"role,omitempty"`
	User          StreamUser `json:"user"`
}

// StreamMessage is the chat message object of message events.
type StreamMessage struct {
	ID        string      `json:"id"`
	Text      string      `json:"text"`
	User      *StreamUser `json:"user,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// SessionStartedEvent is sent when the first participant joins a call.
type SessionStartedEvent struct {
	CallCID   string     `json:"call_cid"`
	SessionID string     `json:"session_id"`
	Call      StreamCall `json:"call"`
	CreatedAt time.Time  `json:"created_at"`
}

// SessionEndedEvent is sent when the call session ends.
type SessionEndedEvent struct {
	CallCID   string     `json:"call_cid"`
	SessionID string     `json:"session_id"`
	Call      StreamCall `json:"call"`
	CreatedAt time.Time  `json:"created_at"`
}

// TranscriptionReadyEvent is sent when a call transcript has been stored.
type TranscriptionReadyEvent struct {
	CallCID       string              `json:"call_cid"`
	Transcription *StreamCallArtifact `json:"call_transcription,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
}

// RecordingReadyEvent is sent when a call recording has been stored.
type RecordingReadyEvent struct {
	CallCID   string              `json:"call_cid"`
	Recording *StreamCallArtifact `json:"call_recording,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
}

// ParticipantLeftEvent is sent when a participant leaves the call session.
type ParticipantLeftEvent struct {
	CallCID     string            `json:"call_cid"`
	SessionID   string            `json:"session_id"`
	Participant StreamParticipant `json:"participant"`
	CreatedAt   time.Time         `json:"created_at"`
}

// MessageNewEvent is sent when a message is posted to a chat channel.
type MessageNewEvent struct {
	CID         string         `json:"cid"`
	ChannelID   string         `json:"channel_id"`
	ChannelType string         `json:"channel_type"`
	Message     *StreamMessage `json:"message,omitempty"`
	User        *StreamUser    `json:"user,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// UnrecognizedEvent is any event whose type this service does not handle.
type UnrecognizedEvent struct {
	Type string
}

func (SessionStartedEvent) EventType() string     { return EventTypeSessionStarted }
func (SessionEndedEvent) EventType() string       { return EventTypeSessionEnded }
func (TranscriptionReadyEvent) EventType() string { return EventTypeTranscriptionReady }
func (RecordingReadyEvent) EventType() string     { return EventTypeRecordingReady }
func (ParticipantLeftEvent) EventType() string    { return EventTypeSessionParticipantLeft }
func (MessageNewEvent) EventType() string         { return EventTypeMessageNew }
func (e UnrecognizedEvent) EventType() string     { return e.Type }

func (SessionStartedEvent) isWebhookEvent()     {}
func (SessionEndedEvent) isWebhookEvent()       {}
func (TranscriptionReadyEvent) isWebhookEvent() {}
func (RecordingReadyEvent) isWebhookEvent()     {}
func (ParticipantLeftEvent) isWebhookEvent()    {}
func (MessageNewEvent) isWebhookEvent()         {}
func (UnrecognizedEvent) isWebhookEvent()       {}

// MeetingID returns the meeting id stored on the call, falling back to the call cid.
func (e SessionStartedEvent) MeetingID() string {
	return callMeetingID(e.Call, e.CallCID)
}

// MeetingID returns the meeting id stored on the call, falling back to the call cid.
func (e SessionEndedEvent) MeetingID() string {
	return callMeetingID(e.Call, e.CallCID)
}

// TranscriptURL returns the transcript location, empty when the event carries none.
func (e TranscriptionReadyEvent) TranscriptURL() string {
	if e.Transcription == nil {
		return ""
	}
	return strings.TrimSpace(e.Transcription.URL)
}

// RecordingURL returns the recording location, empty when the event carries none.
func (e RecordingReadyEvent) RecordingURL() string {
	if e.Recording == nil {
		return ""
	}
	return strings.TrimSpace(e.Recording.URL)
}

// SenderID returns the id of the user who posted the message.
func (e MessageNewEvent) SenderID() string {
	if e.User != nil && e.User.ID != "" {
		return e.User.ID
	}
	if e.Message != nil && e.Message.User != nil {
		return e.Message.User.ID
	}
	return ""
}

// Text returns the message text.
func (e MessageNewEvent) Text() string {
	if e.Message == nil {
		return ""
	}
	return e.Message.Text
}

// SentAt returns when the message was posted, falling back to the event time.
func (e MessageNewEvent) SentAt() time.Time {
	if e.Message != nil && !e.Message.CreatedAt.IsZero() {
		return e.Message.CreatedAt
	}
	return e.CreatedAt
}

// MessageID returns the platform id of the message.
func (e MessageNewEvent) MessageID() string {
	if e.Message == nil {
		return ""
	}
	return e.Message.ID
}

func callMeetingID(call StreamCall, callCID string) string {
	if id := strings.TrimSpace(call.Custom.MeetingID); id != "" {
		return id
	}
	if id, ok := MeetingIDFromCallCID(callCID); ok {
		return id
	}
	return ""
}

// MeetingIDFromCallCID extracts the meeting id from a composite "<type>:<id>" call identifier.
// The id is everything after the first colon.
func MeetingIDFromCallCID(callCID string) (string, bool) {
	_, id, found := strings.Cut(callCID, ":")
	if !found || id == "" {
		return "", false
	}
	return id, true
}

// ParseWebhookEvent decodes a webhook body into its typed event.
func ParseWebhookEvent(body []byte) (WebhookEvent, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decoding webhook envelope: %w", err)
	}

	var event WebhookEvent
	var err error
	switch envelope.Type {
	case EventTypeSessionStarted:
		event, err = decodeEvent[SessionStartedEvent](body)
	case EventTypeSessionEnded:
		event, err = decodeEvent[SessionEndedEvent](body)
	case EventTypeTranscriptionReady:
		event, err = decodeEvent[TranscriptionReadyEvent](body)
	case EventTypeRecordingReady:
		event, err = decodeEvent[RecordingReadyEvent](body)
	case EventTypeSessionParticipantLeft:
		event, err = decodeEvent[ParticipantLeftEvent](body)
	case EventTypeMessageNew:
		event, err = decodeEvent[MessageNewEvent](body)
	default:
		return UnrecognizedEvent{Type: envelope.Type}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("decoding %s event: %w", envelope.Type, err)
	}
	return event, nil
}

func decodeEvent[T WebhookEvent](body []byte) (WebhookEvent, error) {
	var event T
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, err
	}
	return event, nil
}
