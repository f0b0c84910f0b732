// Package memoryqueue is an in-process channel-backed Queue, used when
// ASYNC_JOBS is enabled without a Redis deployment (tests, single-node).
package memoryqueue

import (
	"context"

	"github.com/jarvisrun/jarvis/internal/jarvis/service/orchestrator"
)

// Queue is a bounded channel wrapping orchestrator.Job.
type Queue struct {
	jobs chan orchestrator.Job
}

// New constructs a Queue with the given channel capacity.
func New(capacity int) *Queue {
	return &Queue{jobs: make(chan orchestrator.Job, capacity)}
}

// Push enqueues job, blocking until there is room or ctx is done.
func (q *Queue) Push(ctx context.Context, job orchestrator.Job) error {
	select {
	case q.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pop blocks until a job is available or ctx is done.
func (q *Queue) Pop(ctx context.Context) (orchestrator.Job, bool) {
	select {
	case job := <-q.jobs:
		return job, true
	case <-ctx.Done():
		return orchestrator.Job{}, false
	}
}

// Len reports the number of jobs currently queued.
func (q *Queue) Len() int { return len(q.jobs) }
