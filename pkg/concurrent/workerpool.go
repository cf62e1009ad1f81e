// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package concurrent runs groups of functions with bounded concurrency.
package concurrent

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Task is a unit of work run by a WorkerPool. ctx is cancelled as soon as any task
// of the same Run fails.
type Task func(ctx context.Context) error

// WorkerPool runs tasks on at most a fixed number of goroutines.
type WorkerPool struct {
	workerCount int
}

// NewWorkerPool creates a pool of workerCount goroutines. Non-positive counts become 1.
func NewWorkerPool(workerCount int) *WorkerPool {
	if workerCount <= 0 {
		workerCount = 1
	}
	return &WorkerPool{
		workerCount: workerCount,
	}
}

// Run executes every task and waits for all of them. It returns the first error;
// the remaining tasks see their context cancelled and tasks not yet started are skipped.
func (wp *WorkerPool) Run(ctx context.Context, tasks ...Task) error {
	if len(tasks) == 0 {
		return nil
	}

	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(wp.workerCount)

	for _, task := range tasks {
		g.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			return task(groupCtx)
		})
	}

	return g.Wait()
}
