// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"

	"github.com/victor-cyril/Agenda-AI/internal/domain"
	"github.com/victor-cyril/Agenda-AI/internal/domain/models"
	"github.com/victor-cyril/Agenda-AI/internal/jobs"
	"github.com/victor-cyril/Agenda-AI/internal/logging"
	"github.com/victor-cyril/Agenda-AI/pkg/concurrent"
)

// Transcript pipeline step names.
const (
	StepFetchTranscript = "fetch-transcript"
	StepParseTranscript = "parse-transcript"
	StepAddSpeakers     = "add-speakers"
	StepSummarize       = "summarize"
	StepSaveSummary     = "save-summary"
)

// TranscriptPipeline turns the transcript of an ended meeting into its summary.
type TranscriptPipeline struct {
	Lifecycle   *MeetingLifecycle
	Meetings    domain.MeetingRepository
	Speakers    domain.SpeakerDirectory
	Transcripts domain.TranscriptSource
	Completions domain.CompletionClient
}

// NewTranscriptPipeline creates a transcript pipeline.
func NewTranscriptPipeline(
	meetings domain.MeetingRepository,
	speakers domain.SpeakerDirectory,
	transcripts domain.TranscriptSource,
	completions domain.CompletionClient,
) *TranscriptPipeline {
	return &TranscriptPipeline{
		Lifecycle:   NewMeetingLifecycle(meetings),
		Meetings:    meetings,
		Speakers:    speakers,
		Transcripts: transcripts,
		Completions: completions,
	}
}

// ServiceReady checks if the pipeline has all its dependencies.
func (p *TranscriptPipeline) ServiceReady() bool {
	return p.Lifecycle.ServiceReady() &&
		p.Speakers != nil &&
		p.Transcripts != nil &&
		p.Completions != nil
}

// Run executes a meetings/processing job.
func (p *TranscriptPipeline) Run(ctx context.Context, job jobs.Job, steps *jobs.Steps) error {
	var payload models.MeetingProcessingPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return jobs.Permanent(fmt.Errorf("decoding payload: %w", err))
	}
	if payload.MeetingID == "" || payload.TranscriptURL == "" {
		return jobs.Permanent(fmt.Errorf("payload requires meetingId and transcriptUrl"))
	}
	ctx = logging.WithMeeting(ctx, payload.MeetingID)

	raw, err := jobs.Step(ctx, steps, StepFetchTranscript, func(ctx context.Context) (string, error) {
		text, err := p.Transcripts.Fetch(ctx, payload.TranscriptURL)
		if domain.GetErrorType(err) == domain.ErrorTypeValidation {
			// An oversized document or a bad URL fails the same way on every attempt.
			return "", jobs.Permanent(err)
		}
		return text, err
	})
	if err != nil {
		return err
	}

	items, err := jobs.Step(ctx, steps, StepParseTranscript, func(ctx context.Context) ([]models.TranscriptItem, error) {
		items, err := models.ParseTranscript(raw)
		if err != nil {
			// The fetched document is cached; parsing it again cannot succeed.
			return nil, jobs.Permanent(err)
		}
		return items, nil
	})
	if err != nil {
		return err
	}

	annotated, err := jobs.Step(ctx, steps, StepAddSpeakers, func(ctx context.Context) ([]models.AnnotatedTranscriptItem, error) {
		names, err := p.resolveSpeakers(ctx, models.SpeakerIDs(items))
		if err != nil {
			return nil, err
		}
		return models.AnnotateSpeakers(items, names), nil
	})
	if err != nil {
		return err
	}

	summary, err := jobs.Step(ctx, steps, StepSummarize, func(ctx context.Context) (string, error) {
		return p.summarize(ctx, annotated)
	})
	if err != nil {
		return err
	}

	return jobs.Do(ctx, steps, StepSaveSummary, func(ctx context.Context) error {
		return p.saveSummary(ctx, payload.MeetingID, summary)
	})
}

// resolveSpeakers looks the ids up as users and as agents at the same time.
// A user name wins when an id exists in both tables.
func (p *TranscriptPipeline) resolveSpeakers(ctx context.Context, ids []string) (map[string]string, error) {
	if len(ids) == 0 {
		return map[string]string{}, nil
	}

	var users, agents map[string]string
	err := concurrent.NewWorkerPool(2).Run(ctx,
		func(ctx context.Context) error {
			var err error
			users, err = p.Speakers.UserNames(ctx, ids)
			return err
		},
		func(ctx context.Context) error {
			var err error
			agents, err = p.Speakers.AgentNames(ctx, ids)
			return err
		},
	)
	if err != nil {
		return nil, fmt.Errorf("resolving speakers: %w", err)
	}

	names := make(map[string]string, len(users)+len(agents))
	maps.Copy(names, agents)
	maps.Copy(names, users)
	return names, nil
}

func (p *TranscriptPipeline) summarize(ctx context.Context, transcript []models.AnnotatedTranscriptItem) (string, error) {
	encoded, err := json.Marshal(transcript)
	if err != nil {
		return "", jobs.Permanent(fmt.Errorf("encoding transcript: %w", err))
	}

	summary, err := p.Completions.Complete(ctx, models.CompletionRequest{
		Messages: []models.CompletionMessage{
			{Role: models.RoleSystem, Content: summarizerInstructions},
			{Role: models.RoleUser, Content: summarizeRequestPrefix + string(encoded)},
		},
	})
	if err != nil {
		return "", err
	}
	if summary == "" {
		return "", jobs.Skip("summarizer returned no content")
	}
	return summary, nil
}

func (p *TranscriptPipeline) saveSummary(ctx context.Context, meetingID, summary string) error {
	applied, err := p.Lifecycle.Complete(ctx, meetingID, summary)
	if err != nil || applied {
		return err
	}

	meeting, err := p.Meetings.GetMeeting(ctx, meetingID)
	if err != nil {
		return ignoreMeetingNotFound(ctx, err)
	}

	if meeting.Status == models.MeetingStatusActive {
		// The transcript arrived before the session ended; wait for the end event.
		return fmt.Errorf("meeting %s is still active", meetingID)
	}

	slog.InfoContext(ctx, "summary not saved, meeting is not processing", "status", meeting.Status.String())
	return nil
}
