// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package sqlstore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victor-cyril/Agenda-AI/internal/domain"
	"github.com/victor-cyril/Agenda-AI/internal/domain/models"
)

var (
	_ domain.MeetingRepository = (*MeetingRepository)(nil)
	_ domain.AgentRepository   = (*AgentRepository)(nil)
	_ domain.SpeakerDirectory  = (*SpeakerDirectory)(nil)
)

func TestRebind(t *testing.T) {
	query := `UPDATE meeting SET a = ?, b = ? WHERE id = ?`

	assert.Equal(t, query, rebind(DriverSQLite, query))
	assert.Equal(t, `UPDATE meeting SET a = $1, b = $2 WHERE id = $3`, rebind(DriverPostgres, query))
	assert.Equal(t, "?, ?, ?", placeholders(3))
	assert.Equal(t, "", placeholders(0))
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "")
	assert.Error(t, err)
}

func TestMeetingRepository_GetMeeting(t *testing.T) {
	ctx := context.Background()
	repo := NewMeetingRepository(newTestDB(t))

	m, err := repo.GetMeeting(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, "Standup", m.Name)
	assert.Equal(t, models.MeetingStatusUpcoming, m.Status)
	assert.Equal(t, "a1", m.AgentID)
	assert.Nil(t, m.StartedAt)
	assert.Nil(t, m.Summary)

	_, err = repo.GetMeeting(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrMeetingNotFound)
	assert.Equal(t, domain.ErrorTypeNotFound, domain.GetErrorType(err))
}

func TestMeetingRepository_CompareAndSwapStatus(t *testing.T) {
	ctx := context.Background()
	repo := NewMeetingRepository(newTestDB(t))
	repo.now = func() time.Time { return epoch.Add(time.Hour) }

	started := epoch.Add(10 * time.Minute)
	applied, err := repo.CompareAndSwapStatus(ctx, "m1", models.MeetingStatusUpcoming, models.MeetingStatusActive,
		models.MeetingPatch{StartedAt: &started})
	require.NoError(t, err)
	assert.True(t, applied)

	applied, err = repo.CompareAndSwapStatus(ctx, "m1", models.MeetingStatusUpcoming, models.MeetingStatusActive,
		models.MeetingPatch{StartedAt: &epoch})
	require.NoError(t, err)
	assert.False(t, applied, "the meeting is no longer upcoming")

	applied, err = repo.CompareAndSwapStatus(ctx, "missing", models.MeetingStatusUpcoming, models.MeetingStatusActive, models.MeetingPatch{})
	require.NoError(t, err)
	assert.False(t, applied)

	m, err := repo.GetMeeting(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, models.MeetingStatusActive, m.Status)
	require.NotNil(t, m.StartedAt)
	assert.True(t, started.Equal(*m.StartedAt), "a rejected swap leaves the fields untouched")

	summary := "### Overview\nShort."
	applied, err = repo.CompareAndSwapStatus(ctx, "m1", models.MeetingStatusActive, models.MeetingStatusProcessing, models.MeetingPatch{})
	require.NoError(t, err)
	require.True(t, applied)
	applied, err = repo.CompareAndSwapStatus(ctx, "m1", models.MeetingStatusProcessing, models.MeetingStatusCompleted,
		models.MeetingPatch{Summary: &summary})
	require.NoError(t, err)
	require.True(t, applied)

	m, err = repo.GetMeeting(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, models.MeetingStatusCompleted, m.Status)
	require.NotNil(t, m.Summary)
	assert.Equal(t, summary, *m.Summary)
	require.NotNil(t, m.StartedAt, "fields absent from the patch are kept")
}

func TestMeetingRepository_ConcurrentSwapsApplyOnce(t *testing.T) {
	ctx := context.Background()
	repo := NewMeetingRepository(newTestDB(t))

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		applied int
	)
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			now := time.Now()
			ok, err := repo.CompareAndSwapStatus(ctx, "m1", models.MeetingStatusUpcoming, models.MeetingStatusActive,
				models.MeetingPatch{StartedAt: &now})
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				applied++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, applied)
}

func TestMeetingRepository_SetURLs(t *testing.T) {
	ctx := context.Background()
	repo := NewMeetingRepository(newTestDB(t))

	ok, err := repo.SetTranscriptURL(ctx, "m1", "https://cdn.example.com/t.jsonl")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.SetRecordingURL(ctx, "m1", "https://cdn.example.com/r.mp4")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.SetTranscriptURL(ctx, "missing", "https://cdn.example.com/t.jsonl")
	require.NoError(t, err)
	assert.False(t, ok)

	m, err := repo.GetMeeting(ctx, "m1")
	require.NoError(t, err)
	require.NotNil(t, m.TranscriptURL)
	require.NotNil(t, m.RecordingURL)
	assert.Equal(t, "https://cdn.example.com/t.jsonl", *m.TranscriptURL)
	assert.Equal(t, "https://cdn.example.com/r.mp4", *m.RecordingURL)
	assert.Equal(t, models.MeetingStatusUpcoming, m.Status, "field updates do not touch the status")
}

func TestMeetingRepository_GetMeetingWithAgent(t *testing.T) {
	ctx := context.Background()
	repo := NewMeetingRepository(newTestDB(t))

	mwa, err := repo.GetMeetingWithAgent(ctx, "m1", models.MeetingStatusUpcoming)
	require.NoError(t, err)
	assert.Equal(t, "m1", mwa.ID)
	assert.Equal(t, "Tutor", mwa.Agent.Name)
	assert.Equal(t, "Be helpful.", mwa.Agent.Instructions)

	_, err = repo.GetMeetingWithAgent(ctx, "m1", models.MeetingStatusCompleted)
	assert.ErrorIs(t, err, domain.ErrMeetingNotFound)
}

func TestAgentRepository_GetAgent(t *testing.T) {
	ctx := context.Background()
	repo := NewAgentRepository(newTestDB(t))

	agent, err := repo.GetAgent(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "Tutor", agent.Name)
	assert.Equal(t, "u1", agent.UserID)

	_, err = repo.GetAgent(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrAgentNotFound)
}

func TestSpeakerDirectory(t *testing.T) {
	ctx := context.Background()
	dir := NewSpeakerDirectory(newTestDB(t))

	users, err := dir.UserNames(ctx, []string{"u1", "u2", "a1", "ghost"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"u1": "Ada", "u2": "Grace"}, users)

	agents, err := dir.AgentNames(ctx, []string{"u1", "a1"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a1": "Tutor"}, agents)

	empty, err := dir.UserNames(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
