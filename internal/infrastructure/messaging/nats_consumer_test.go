// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package messaging

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victor-cyril/Agenda-AI/internal/domain/models"
	"github.com/victor-cyril/Agenda-AI/internal/jobs"
)

type fakeExecutor struct {
	result jobs.Result
	got    []jobs.Job
}

func (e *fakeExecutor) Execute(ctx context.Context, job jobs.Job) jobs.Result {
	e.got = append(e.got, job)
	return e.result
}

func (e *fakeExecutor) Names() []string          { return []string{models.JobMeetingProcessing} }
func (e *fakeExecutor) Policy() jobs.RetryPolicy { return jobs.DefaultRetryPolicy() }

var _ JobExecutor = (*jobs.Runner)(nil)

func jobMsg(t *testing.T, delivered uint64) *fakeMsg {
	t.Helper()
	data, err := json.Marshal(testJob(t))
	require.NoError(t, err)
	return &fakeMsg{data: data, delivered: delivered}
}

func TestJobConsumer_Handle(t *testing.T) {
	tests := []struct {
		name     string
		result   jobs.Result
		expected string
	}{
		{name: "completed", result: jobs.Result{Outcome: jobs.OutcomeCompleted}, expected: "ack"},
		{name: "skipped", result: jobs.Result{Outcome: jobs.OutcomeSkipped}, expected: "ack"},
		{name: "retry", result: jobs.Result{Outcome: jobs.OutcomeRetry, Delay: 20 * time.Second}, expected: "nak"},
		{name: "dead lettered", result: jobs.Result{Outcome: jobs.OutcomeDeadLettered}, expected: "term"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			executor := &fakeExecutor{result: tt.result}
			consumer := NewJobConsumer(nil, executor)
			msg := jobMsg(t, 3)

			consumer.Handle(context.Background(), msg)

			assert.Equal(t, []string{tt.expected}, msg.settled)
			require.Len(t, executor.got, 1)
			assert.Equal(t, 3, executor.got[0].Attempt)
			assert.Equal(t, "key-1", executor.got[0].ID)
			assert.Equal(t, models.JobMeetingProcessing, executor.got[0].Name)
			if tt.expected == "nak" {
				assert.Equal(t, 20*time.Second, msg.nakDelay)
			}
		})
	}
}

func TestJobConsumer_HandleMalformed(t *testing.T) {
	executor := &fakeExecutor{}
	consumer := NewJobConsumer(nil, executor)

	msg := &fakeMsg{data: []byte("not json"), delivered: 1}
	consumer.Handle(context.Background(), msg)

	assert.Equal(t, []string{"term"}, msg.settled)
	assert.Empty(t, executor.got)
}

func TestJobConsumer_KeepAlive(t *testing.T) {
	consumer := NewJobConsumer(nil, &fakeExecutor{}, WithAckWait(20*time.Millisecond))
	msg := jobMsg(t, 1)

	stop := consumer.keepAlive(context.Background(), msg)
	time.Sleep(60 * time.Millisecond)
	stop()

	msg.mu.Lock()
	defer msg.mu.Unlock()
	assert.Contains(t, msg.settled, "in_progress")
}

func TestJobConfigs(t *testing.T) {
	stream := JobStreamConfig()
	assert.Equal(t, models.JobsStream, stream.Name)
	assert.Equal(t, []string{"jobs.>"}, stream.Subjects)
	assert.Equal(t, jetstream.WorkQueuePolicy, stream.Retention)
	assert.Equal(t, 2*time.Minute, stream.Duplicates)

	cfg := JobConsumerConfig(models.JobChatMessage, jobs.RetryPolicy{MaxDeliver: 4}, time.Minute)
	assert.Equal(t, "meetings-chat-message", cfg.Durable)
	assert.Equal(t, "jobs.meetings.chat-message", cfg.FilterSubject)
	assert.Equal(t, jetstream.AckExplicitPolicy, cfg.AckPolicy)
	assert.Equal(t, 4, cfg.MaxDeliver)

	assert.Equal(t, -1, JobConsumerConfig(models.JobChatMessage, jobs.RetryPolicy{}, time.Minute).MaxDeliver)
}
