// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"

	"github.com/victor-cyril/Agenda-AI/internal/domain"
	"github.com/victor-cyril/Agenda-AI/internal/domain/models"
	"github.com/victor-cyril/Agenda-AI/internal/logging"
	"github.com/victor-cyril/Agenda-AI/internal/observability/metrics"
)

// WebhookDispatcher applies verified webhook events to meetings and enqueues the
// background jobs they trigger.
type WebhookDispatcher struct {
	Lifecycle *MeetingLifecycle
	Meetings  domain.MeetingRepository
	Agents    domain.AgentRepository
	Video     domain.VideoPlatform
	Jobs      domain.JobPublisher
	Ledger    domain.IdempotencyLedger
	Metrics   *metrics.Metrics
}

// NewWebhookDispatcher creates a dispatcher. The metrics may be nil.
func NewWebhookDispatcher(
	meetings domain.MeetingRepository,
	agents domain.AgentRepository,
	video domain.VideoPlatform,
	jobs domain.JobPublisher,
	ledger domain.IdempotencyLedger,
	m *metrics.Metrics,
) *WebhookDispatcher {
	return &WebhookDispatcher{
		Lifecycle: NewMeetingLifecycle(meetings),
		Meetings:  meetings,
		Agents:    agents,
		Video:     video,
		Jobs:      jobs,
		Ledger:    ledger,
		Metrics:   m,
	}
}

// ServiceReady checks if the dispatcher has all its dependencies.
func (d *WebhookDispatcher) ServiceReady() bool {
	return d.Lifecycle.ServiceReady() &&
		d.Meetings != nil &&
		d.Agents != nil &&
		d.Video != nil &&
		d.Jobs != nil &&
		d.Ledger != nil
}

// Dispatch handles one verified event. A nil error means the delivery is acknowledged,
// including deliveries that changed nothing.
func (d *WebhookDispatcher) Dispatch(ctx context.Context, event models.WebhookEvent) (err error) {
	ctx = logging.AppendCtx(ctx, slog.String(logging.EventTypeKey, event.EventType()))

	outcome := metrics.OutcomeOK
	defer func() {
		if p := recover(); p != nil {
			slog.ErrorContext(ctx, "panic while handling webhook event", "panic", p, "stack", string(debug.Stack()))
			err = domain.NewInternalError("error handling webhook event", fmt.Errorf("panic: %v", p))
		}
		if err != nil {
			outcome = errorOutcome(err)
		}
		d.Metrics.ObserveWebhook(event.EventType(), outcome)
	}()

	var changed bool
	switch e := event.(type) {
	case models.SessionStartedEvent:
		changed, err = d.handleSessionStarted(ctx, e)
	case models.SessionEndedEvent:
		changed, err = d.handleSessionEnded(ctx, e)
	case models.TranscriptionReadyEvent:
		changed, err = d.handleTranscriptionReady(ctx, e)
	case models.RecordingReadyEvent:
		changed, err = d.handleRecordingReady(ctx, e)
	case models.ParticipantLeftEvent:
		changed, err = d.handleParticipantLeft(ctx, e)
	case models.MessageNewEvent:
		changed, err = d.handleMessageNew(ctx, e)
	default:
		slog.InfoContext(ctx, "ignoring unrecognized webhook event")
	}

	if err == nil && !changed {
		outcome = metrics.OutcomeNoop
	}
	return err
}

func errorOutcome(err error) string {
	switch domain.GetErrorType(err) {
	case domain.ErrorTypeValidation, domain.ErrorTypeUnauthorized, domain.ErrorTypeNotFound:
		return metrics.OutcomeRejected
	}
	return metrics.OutcomeFailed
}

func (d *WebhookDispatcher) handleSessionStarted(ctx context.Context, event models.SessionStartedEvent) (bool, error) {
	meetingID := event.MeetingID()
	if meetingID == "" {
		return false, domain.NewMissingFieldsError("missing meeting id")
	}
	ctx = logging.WithMeeting(ctx, meetingID)

	meeting, err := d.Meetings.GetMeeting(ctx, meetingID)
	if err != nil {
		if errors.Is(err, domain.ErrMeetingNotFound) {
			return false, domain.NewNotFoundError("meeting not found", err)
		}
		slog.ErrorContext(ctx, "error getting meeting", logging.ErrKey, err)
		return false, err
	}

	switch meeting.Status {
	case models.MeetingStatusUpcoming:
		if _, err := d.Agents.GetAgent(ctx, meeting.AgentID); err != nil {
			if errors.Is(err, domain.ErrAgentNotFound) {
				return false, domain.NewNotFoundError("agent not found", err)
			}
			slog.ErrorContext(ctx, "error getting agent", logging.ErrKey, err, "agent_id", meeting.AgentID)
			return false, err
		}

		applied, err := d.Lifecycle.Start(ctx, meetingID)
		if err != nil {
			return false, err
		}
		if !applied {
			return false, domain.NewNotFoundError("no upcoming meeting found", domain.ErrMeetingNotFound)
		}
		if _, err := d.enqueueConnectAgent(ctx, meeting); err != nil {
			return true, err
		}
		return true, nil

	case models.MeetingStatusActive:
		// A delivery that started the meeting but failed to enqueue the agent connection
		// left the connection unclaimed. Any other replay is rejected.
		enqueued, err := d.enqueueConnectAgent(ctx, meeting)
		if err != nil {
			return false, err
		}
		if !enqueued {
			return false, domain.NewNotFoundError("no upcoming meeting found", domain.ErrMeetingNotFound)
		}
		slog.InfoContext(ctx, "enqueued agent connection for a started meeting")
		return true, nil
	}

	slog.InfoContext(ctx, "session started for a meeting that is not upcoming", "status", meeting.Status)
	return false, domain.NewNotFoundError("no upcoming meeting found", domain.ErrMeetingNotFound)
}

// enqueueConnectAgent publishes the agent connection job of meeting once. It reports false
// when the job was already enqueued.
func (d *WebhookDispatcher) enqueueConnectAgent(ctx context.Context, meeting *models.Meeting) (bool, error) {
	key := models.ConnectAgentJobKey(meeting.ID)
	claimed, err := d.Ledger.Claim(ctx, key)
	if err != nil {
		slog.ErrorContext(ctx, "error claiming agent connection", logging.ErrKey, err)
		return false, err
	}
	if !claimed {
		slog.DebugContext(ctx, "agent connection already enqueued", "job_id", key)
		return false, nil
	}

	job, err := models.NewJobEnvelope(models.JobConnectAgent, key, models.ConnectAgentPayload{
		MeetingID: meeting.ID,
		AgentID:   meeting.AgentID,
	})
	if err != nil {
		err = domain.NewInternalError("error building connect agent job", err)
	} else {
		err = d.Jobs.PublishJob(ctx, job)
	}
	if err != nil {
		slog.ErrorContext(ctx, "error enqueuing agent connection", logging.ErrKey, err)
		if releaseErr := d.Ledger.Release(ctx, key); releaseErr != nil {
			slog.ErrorContext(ctx, "error releasing agent connection claim", logging.ErrKey, releaseErr, logging.PriorityCritical())
		}
		return false, err
	}
	return true, nil
}

func (d *WebhookDispatcher) handleSessionEnded(ctx context.Context, event models.SessionEndedEvent) (bool, error) {
	meetingID := event.MeetingID()
	if meetingID == "" {
		return false, domain.NewMissingFieldsError("missing meeting id")
	}
	ctx = logging.WithMeeting(ctx, meetingID)

	return d.Lifecycle.End(ctx, meetingID)
}

func (d *WebhookDispatcher) handleTranscriptionReady(ctx context.Context, event models.TranscriptionReadyEvent) (bool, error) {
	meetingID, ok := models.MeetingIDFromCallCID(event.CallCID)
	if !ok {
		return false, domain.NewMissingFieldsError("missing call_cid")
	}
	ctx = logging.WithMeeting(ctx, meetingID)

	transcriptURL := event.TranscriptURL()
	if transcriptURL == "" {
		slog.InfoContext(ctx, "transcription event has no url")
		return false, nil
	}

	updated, err := d.Meetings.SetTranscriptURL(ctx, meetingID, transcriptURL)
	if err != nil {
		slog.ErrorContext(ctx, "error saving transcript url", logging.ErrKey, err)
		return false, err
	}
	if !updated {
		slog.InfoContext(ctx, "no meeting for transcription event")
		return false, nil
	}

	key := models.TranscriptJobKey(meetingID, transcriptURL)
	claimed, err := d.Ledger.Claim(ctx, key)
	if err != nil {
		slog.ErrorContext(ctx, "error claiming transcript job", logging.ErrKey, err)
		return true, err
	}
	if !claimed {
		slog.InfoContext(ctx, "transcript job already enqueued", "job_id", key)
		return true, nil
	}

	job, err := models.NewJobEnvelope(models.JobMeetingProcessing, key, models.MeetingProcessingPayload{
		MeetingID:     meetingID,
		TranscriptURL: transcriptURL,
	})
	if err == nil {
		err = d.Jobs.PublishJob(ctx, job)
	}
	if err != nil {
		slog.ErrorContext(ctx, "error enqueuing transcript job", logging.ErrKey, err)
		if releaseErr := d.Ledger.Release(ctx, key); releaseErr != nil {
			slog.ErrorContext(ctx, "error releasing transcript job claim", logging.ErrKey, releaseErr, logging.PriorityCritical())
		}
		return true, err
	}

	return true, nil
}

func (d *WebhookDispatcher) handleRecordingReady(ctx context.Context, event models.RecordingReadyEvent) (bool, error) {
	meetingID, ok := models.MeetingIDFromCallCID(event.CallCID)
	if !ok {
		return false, domain.NewMissingFieldsError("missing call_cid")
	}
	ctx = logging.WithMeeting(ctx, meetingID)

	recordingURL := event.RecordingURL()
	if recordingURL == "" {
		slog.InfoContext(ctx, "recording event has no url")
		return false, nil
	}

	updated, err := d.Meetings.SetRecordingURL(ctx, meetingID, recordingURL)
	if err != nil {
		slog.ErrorContext(ctx, "error saving recording url", logging.ErrKey, err)
		return false, err
	}
	if !updated {
		slog.InfoContext(ctx, "no meeting for recording event")
	}
	return updated, nil
}

func (d *WebhookDispatcher) handleParticipantLeft(ctx context.Context, event models.ParticipantLeftEvent) (bool, error) {
	meetingID, ok := models.MeetingIDFromCallCID(event.CallCID)
	if !ok {
		return false, domain.NewMissingFieldsError("missing call_cid")
	}
	ctx = logging.WithMeeting(ctx, meetingID)

	if err := d.Video.EndCall(ctx, models.CallTypeDefault, meetingID); err != nil {
		slog.ErrorContext(ctx, "error ending call", logging.ErrKey, err)
		return false, err
	}
	return true, nil
}

func (d *WebhookDispatcher) handleMessageNew(ctx context.Context, event models.MessageNewEvent) (bool, error) {
	userID := event.SenderID()
	channelID := event.ChannelID
	text := event.Text()

	var missing []string
	if userID == "" {
		missing = append(missing, "user.id")
	}
	if channelID == "" {
		missing = append(missing, "channel_id")
	}
	if strings.TrimSpace(text) == "" {
		missing = append(missing, "message.text")
	}
	if len(missing) > 0 {
		return false, domain.NewMissingFieldsError("missing required fields: " + strings.Join(missing, ", "))
	}
	ctx = logging.WithMeeting(ctx, channelID)

	jobID := event.MessageID()
	if jobID == "" {
		jobID = models.ChatJobKey(channelID, userID, text, event.SentAt())
	}
	job, err := models.NewJobEnvelope(models.JobChatMessage, jobID, models.ChatMessagePayload{
		UserID:    userID,
		ChannelID: channelID,
		Text:      text,
		MessageID: event.MessageID(),
	})
	if err != nil {
		return false, domain.NewInternalError("error building chat message job", err)
	}
	if err := d.Jobs.PublishJob(ctx, job); err != nil {
		slog.ErrorContext(ctx, "error enqueuing chat message job", logging.ErrKey, err)
		return false, err
	}

	return true, nil
}
