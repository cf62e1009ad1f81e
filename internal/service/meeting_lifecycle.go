// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/victor-cyril/Agenda-AI/internal/domain"
	"github.com/victor-cyril/Agenda-AI/internal/domain/models"
	"github.com/victor-cyril/Agenda-AI/internal/logging"
	"github.com/victor-cyril/Agenda-AI/pkg/utils"
)

// transitions is the meeting state machine. The cancelled branch is driven by the
// meeting management UI; the event pipeline never requests it.
var transitions = map[models.MeetingStatus][]models.MeetingStatus{
	models.MeetingStatusUpcoming:   {models.MeetingStatusActive, models.MeetingStatusCancelled},
	models.MeetingStatusActive:     {models.MeetingStatusProcessing},
	models.MeetingStatusProcessing: {models.MeetingStatusCompleted},
}

// Allowed reports whether a meeting may move from one status to the other.
func Allowed(from, to models.MeetingStatus) bool {
	return slices.Contains(transitions[from], to)
}

// MeetingLifecycle advances meetings through their statuses. Every change is a
// compare-and-swap on the expected current status, so replayed and out-of-order
// deliveries become no-ops.
type MeetingLifecycle struct {
	meetings domain.MeetingRepository
	now      func() time.Time
}

// NewMeetingLifecycle creates a MeetingLifecycle over the meeting repository.
func NewMeetingLifecycle(meetings domain.MeetingRepository) *MeetingLifecycle {
	return &MeetingLifecycle{
		meetings: meetings,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// ServiceReady reports whether the lifecycle has a repository.
func (l *MeetingLifecycle) ServiceReady() bool {
	return l != nil && l.meetings != nil
}

// Transition moves the meeting from one status to another and writes patch with it.
// It reports false when the meeting was not in from.
func (l *MeetingLifecycle) Transition(ctx context.Context, meetingID string, from, to models.MeetingStatus, patch models.MeetingPatch) (bool, error) {
	if !Allowed(from, to) {
		return false, domain.NewInternalError(fmt.Sprintf("transition %s -> %s is not allowed", from, to))
	}

	applied, err := l.meetings.CompareAndSwapStatus(ctx, meetingID, from, to, patch)
	if err != nil {
		slog.ErrorContext(ctx, "error updating meeting status", logging.ErrKey, err,
			"from", from.String(),
			"to", to.String(),
		)
		return false, err
	}

	if !applied {
		slog.InfoContext(ctx, "meeting not in expected status, transition skipped",
			"from", from.String(),
			"to", to.String(),
		)
		return false, nil
	}

	slog.InfoContext(ctx, "meeting status changed", "from", from.String(), "to", to.String())
	return true, nil
}

// Start moves an upcoming meeting to active and records when it started.
func (l *MeetingLifecycle) Start(ctx context.Context, meetingID string) (bool, error) {
	return l.Transition(ctx, meetingID, models.MeetingStatusUpcoming, models.MeetingStatusActive, models.MeetingPatch{StartedAt: utils.Ptr(l.now())})
}

// End moves an active meeting to processing and records when it ended.
func (l *MeetingLifecycle) End(ctx context.Context, meetingID string) (bool, error) {
	return l.Transition(ctx, meetingID, models.MeetingStatusActive, models.MeetingStatusProcessing, models.MeetingPatch{EndedAt: utils.Ptr(l.now())})
}

// Complete moves a processing meeting to completed with its summary.
func (l *MeetingLifecycle) Complete(ctx context.Context, meetingID, summary string) (bool, error) {
	return l.Transition(ctx, meetingID, models.MeetingStatusProcessing, models.MeetingStatusCompleted, models.MeetingPatch{Summary: utils.Ptr(summary)})
}
