// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package domain

import (
	"context"
	"sync"
	"time"

	"github.com/victor-cyril/Agenda-AI/internal/domain/models"
)

// MockMeetingStore is an in-memory MeetingRepository, AgentRepository and SpeakerDirectory
// with the same conditional update semantics as the SQL store.
type MockMeetingStore struct {
	mu       sync.Mutex
	meetings map[string]models.Meeting
	agents   map[string]models.Agent
	users    map[string]string
	now      func() time.Time
}

// NewMockMeetingStore creates an empty in-memory store.
func NewMockMeetingStore() *MockMeetingStore {
	return &MockMeetingStore{
		meetings: make(map[string]models.Meeting),
		agents:   make(map[string]models.Agent),
		users:    make(map[string]string),
		now:      time.Now,
	}
}

// AddMeeting stores a copy of the meeting.
func (s *MockMeetingStore) AddMeeting(meeting models.Meeting) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meetings[meeting.ID] = meeting
}

// AddAgent stores a copy of the agent.
func (s *MockMeetingStore) AddAgent(agent models.Agent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.agents[agent.ID] = agent
}

// AddUser stores a user display name.
func (s *MockMeetingStore) AddUser(id, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[id] = name
}

// Meeting returns a copy of the stored meeting.
func (s *MockMeetingStore) Meeting(id string) (models.Meeting, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.meetings[id]
	return m, ok
}

func (s *MockMeetingStore) GetMeeting(ctx context.Context, meetingID string) (*models.Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.meetings[meetingID]
	if !ok {
		return nil, ErrMeetingNotFound
	}
	return &m, nil
}

func (s *MockMeetingStore) GetMeetingWithAgent(ctx context.Context, meetingID string, status models.MeetingStatus) (*models.MeetingWithAgent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.meetings[meetingID]
	if !ok || m.Status != status {
		return nil, ErrMeetingNotFound
	}
	a, ok := s.agents[m.AgentID]
	if !ok {
		return nil, ErrMeetingNotFound
	}
	return &models.MeetingWithAgent{Meeting: m, Agent: a}, nil
}

func (s *MockMeetingStore) CompareAndSwapStatus(ctx context.Context, meetingID string, from, to models.MeetingStatus, patch models.MeetingPatch) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.meetings[meetingID]
	if !ok || m.Status != from {
		return false, nil
	}
	m.Status = to
	if patch.StartedAt != nil {
		m.StartedAt = patch.StartedAt
	}
	if patch.EndedAt != nil {
		m.EndedAt = patch.EndedAt
	}
	if patch.Summary != nil {
		m.Summary = patch.Summary
	}
	m.UpdatedAt = s.now()
	s.meetings[meetingID] = m
	return true, nil
}

func (s *MockMeetingStore) SetTranscriptURL(ctx context.Context, meetingID, url string) (bool, error) {
	return s.setField(meetingID, func(m *models.Meeting) { m.TranscriptURL = &url })
}

func (s *MockMeetingStore) SetRecordingURL(ctx context.Context, meetingID, url string) (bool, error) {
	return s.setField(meetingID, func(m *models.Meeting) { m.RecordingURL = &url })
}

func (s *MockMeetingStore) setField(meetingID string, set func(*models.Meeting)) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.meetings[meetingID]
	if !ok {
		return false, nil
	}
	set(&m)
	m.UpdatedAt = s.now()
	s.meetings[meetingID] = m
	return true, nil
}

func (s *MockMeetingStore) GetAgent(ctx context.Context, agentID string) (*models.Agent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.agents[agentID]
	if !ok {
		return nil, ErrAgentNotFound
	}
	return &a, nil
}

func (s *MockMeetingStore) UserNames(ctx context.Context, ids []string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make(map[string]string)
	for _, id := range ids {
		if name, ok := s.users[id]; ok {
			names[id] = name
		}
	}
	return names, nil
}

func (s *MockMeetingStore) AgentNames(ctx context.Context, ids []string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make(map[string]string)
	for _, id := range ids {
		if a, ok := s.agents[id]; ok {
			names[id] = a.Name
		}
	}
	return names, nil
}

// MockStepStore is an in-memory StepStore.
type MockStepStore struct {
	mu    sync.Mutex
	steps map[string][]byte
	Err   error
}

// NewMockStepStore creates an empty in-memory step store.
func NewMockStepStore() *MockStepStore {
	return &MockStepStore{steps: make(map[string][]byte)}
}

func (s *MockStepStore) GetStep(ctx context.Context, jobID, step string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, false, s.Err
	}
	v, ok := s.steps[jobID+"/"+step]
	return v, ok, nil
}

func (s *MockStepStore) PutStep(ctx context.Context, jobID, step string, result []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.steps[jobID+"/"+step] = result
	return nil
}

// Has reports whether a result is stored for the step of the job.
func (s *MockStepStore) Has(jobID, step string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.steps[jobID+"/"+step]
	return ok
}

// MockLedger is an in-memory IdempotencyLedger.
type MockLedger struct {
	mu     sync.Mutex
	claims map[string]struct{}
	Err    error
}

// NewMockLedger creates an empty in-memory ledger.
func NewMockLedger() *MockLedger {
	return &MockLedger{claims: make(map[string]struct{})}
}

func (l *MockLedger) Claim(ctx context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.Err != nil {
		return false, l.Err
	}
	if _, ok := l.claims[key]; ok {
		return false, nil
	}
	l.claims[key] = struct{}{}
	return true, nil
}

func (l *MockLedger) Release(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.claims, key)
	return nil
}

// Claimed reports whether the key is currently claimed.
func (l *MockLedger) Claimed(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.claims[key]
	return ok
}
