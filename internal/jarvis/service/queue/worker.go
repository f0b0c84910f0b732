// Package queue hosts the worker loop that drains a Popper and drives the
// orchestrator, independent of which backend (memoryqueue, redisqueue)
// supplies the jobs.
package queue

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/jarvisrun/jarvis/internal/jarvis/pkg/metrics"
	"github.com/jarvisrun/jarvis/internal/jarvis/service/orchestrator"
)

const maxAttempts = 3

// Popper is satisfied by any queue backend capable of blocking dequeue.
type Popper interface {
	Pop(ctx context.Context) (orchestrator.Job, bool)
}

// Executor runs one queued job to completion.
type Executor interface {
	ExecuteQueued(ctx context.Context, job orchestrator.Job) error
}

// Requeuer re-enqueues a job. Worker keeps one, but retries failed jobs
// in-process (see handle) and does not call it.
type Requeuer interface {
	Push(ctx context.Context, job orchestrator.Job) error
}

// Worker drains jobs from a Popper and drives the orchestrator, retrying
// failed jobs up to maxAttempts with exponential backoff before dropping
// them. Reserved for zap instead of logrus: this is the service's one
// high-throughput hot path, logged in the teacher's style for that path.
type Worker struct {
	name string
	pop  Popper
	exec Executor
	re   Requeuer
	log  *zap.Logger
}

// NewWorker constructs a Worker identified by name (used only as the
// queue_job_total metric label). logger may be nil, in which case a
// production zap logger is built.
func NewWorker(name string, pop Popper, exec Executor, re Requeuer, logger *zap.Logger) *Worker {
	if logger == nil {
		logger, _ = zap.NewProduction()
	}
	return &Worker{name: name, pop: pop, exec: exec, re: re, log: logger}
}

// Run drains jobs until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	for {
		job, ok := w.pop.Pop(ctx)
		if !ok {
			return
		}
		w.handle(ctx, job, 1)
	}
}

func (w *Worker) handle(ctx context.Context, job orchestrator.Job, attempt int) {
	err := w.exec.ExecuteQueued(ctx, job)
	if err == nil {
		metrics.QueueJobTotal.WithLabelValues(w.name, "completed").Inc()
		w.log.Info("job completed", zap.String("run_id", job.RunID), zap.Int("attempt", attempt))
		return
	}

	w.log.Warn("job failed", zap.String("run_id", job.RunID), zap.Int("attempt", attempt), zap.Error(err))
	if attempt >= maxAttempts {
		metrics.QueueJobTotal.WithLabelValues(w.name, "dropped").Inc()
		w.log.Error("job exhausted retries, dropping", zap.String("run_id", job.RunID))
		return
	}
	metrics.QueueJobTotal.WithLabelValues(w.name, "retried").Inc()

	backoff := time.Duration(math.Pow(2, float64(attempt))) * time.Second
	timer := time.NewTimer(backoff)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}
	w.handle(ctx, job, attempt+1)
}
