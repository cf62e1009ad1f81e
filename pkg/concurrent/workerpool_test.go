// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package concurrent

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerPool_RunsAllTasks(t *testing.T) {
	var count atomic.Int32
	tasks := make([]Task, 10)
	for i := range tasks {
		tasks[i] = func(ctx context.Context) error {
			count.Add(1)
			return nil
		}
	}

	require.NoError(t, NewWorkerPool(3).Run(context.Background(), tasks...))
	assert.Equal(t, int32(10), count.Load())
}

func TestWorkerPool_LimitsConcurrency(t *testing.T) {
	var running, peak atomic.Int32
	task := func(ctx context.Context) error {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		running.Add(-1)
		return nil
	}

	require.NoError(t, NewWorkerPool(2).Run(context.Background(), task, task, task, task, task))
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestWorkerPool_FailureCancelsSiblings(t *testing.T) {
	boom := errors.New("boom")
	var sawCancel atomic.Bool

	err := NewWorkerPool(2).Run(context.Background(),
		func(ctx context.Context) error {
			select {
			case <-ctx.Done():
				sawCancel.Store(true)
				return nil
			case <-time.After(time.Second):
				return errors.New("sibling was not cancelled")
			}
		},
		func(ctx context.Context) error {
			return boom
		},
	)

	assert.ErrorIs(t, err, boom)
	assert.True(t, sawCancel.Load())
}

func TestWorkerPool_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran atomic.Bool
	err := NewWorkerPool(1).Run(ctx, func(ctx context.Context) error {
		ran.Store(true)
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, ran.Load())
}

func TestWorkerPool_NoTasks(t *testing.T) {
	assert.NoError(t, NewWorkerPool(4).Run(context.Background()))
}

func TestNewWorkerPool_InvalidWorkerCount(t *testing.T) {
	for _, n := range []int{0, -3} {
		assert.Equal(t, 1, NewWorkerPool(n).workerCount)
	}
}
