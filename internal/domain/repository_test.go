// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package domain

import (
	"context"
	"testing"
	"time"

	"github.com/victor-cyril/Agenda-AI/internal/domain/models"
)

var (
	_ MeetingRepository = (*MockMeetingStore)(nil)
	_ AgentRepository   = (*MockMeetingStore)(nil)
	_ SpeakerDirectory  = (*MockMeetingStore)(nil)
)

func TestMockMeetingStore_CompareAndSwapStatus(t *testing.T) {
	ctx := context.Background()
	store := NewMockMeetingStore()
	store.AddMeeting(models.Meeting{ID: "m1", Status: models.MeetingStatusUpcoming})

	startedAt := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

	// Wrong precondition is a no-op
	applied, err := store.CompareAndSwapStatus(ctx, "m1", models.MeetingStatusActive, models.MeetingStatusProcessing, models.MeetingPatch{})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if applied {
		t.Error("expected transition from the wrong status not to apply")
	}

	applied, err = store.CompareAndSwapStatus(ctx, "m1", models.MeetingStatusUpcoming, models.MeetingStatusActive, models.MeetingPatch{StartedAt: &startedAt})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !applied {
		t.Fatal("expected transition to apply")
	}

	m, _ := store.Meeting("m1")
	if m.Status != models.MeetingStatusActive {
		t.Errorf("expected status active, got %q", m.Status)
	}
	if m.StartedAt == nil || !m.StartedAt.Equal(startedAt) {
		t.Errorf("expected startedAt %v, got %v", startedAt, m.StartedAt)
	}

	// Missing meeting is a no-op, not an error
	applied, err = store.CompareAndSwapStatus(ctx, "missing", models.MeetingStatusUpcoming, models.MeetingStatusActive, models.MeetingPatch{})
	if err != nil || applied {
		t.Errorf("expected (false, nil) for a missing meeting, got (%v, %v)", applied, err)
	}
}

func TestMockMeetingStore_GetMeetingWithAgent(t *testing.T) {
	ctx := context.Background()
	store := NewMockMeetingStore()
	store.AddAgent(models.Agent{ID: "a1", Name: "Helper"})
	store.AddMeeting(models.Meeting{ID: "m1", AgentID: "a1", Status: models.MeetingStatusCompleted})

	got, err := store.GetMeetingWithAgent(ctx, "m1", models.MeetingStatusCompleted)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got.Agent.Name != "Helper" {
		t.Errorf("expected agent Helper, got %q", got.Agent.Name)
	}

	if _, err := store.GetMeetingWithAgent(ctx, "m1", models.MeetingStatusActive); err != ErrMeetingNotFound {
		t.Errorf("expected ErrMeetingNotFound, got %v", err)
	}
}

func TestMockMeetingStore_SpeakerNames(t *testing.T) {
	ctx := context.Background()
	store := NewMockMeetingStore()
	store.AddUser("u1", "Ada")
	store.AddAgent(models.Agent{ID: "a1", Name: "Helper"})

	users, _ := store.UserNames(ctx, []string{"u1", "a1", "x"})
	agents, _ := store.AgentNames(ctx, []string{"u1", "a1", "x"})

	if len(users) != 1 || users["u1"] != "Ada" {
		t.Errorf("unexpected users %v", users)
	}
	if len(agents) != 1 || agents["a1"] != "Helper" {
		t.Errorf("unexpected agents %v", agents)
	}
}
