// Package orchestrator is the top-level entry point: agent selection,
// synchronous dispatch under a wall-clock deadline or enqueue for async
// execution, and owner-scoped RBAC on every read.
package orchestrator

import (
	"context"
	"time"

	"github.com/jarvisrun/jarvis/internal/jarvis/service/agents/entity"
)

// RunStore persists Run records. Implementations must serialize state
// transitions for a given run; concurrent reads must be safe.
type RunStore interface {
	Create(ctx context.Context, run *entity.Run) error
	Get(ctx context.Context, id string) (*entity.Run, error)
	Update(ctx context.Context, run *entity.Run) error
	List(ctx context.Context, ownerUserID string, limit, offset int) ([]*entity.Run, error)
	ListByAgent(ctx context.Context, ownerUserID string, kind entity.AgentKind, limit, offset int) ([]*entity.Run, error)
}

// NodeStore persists the append-only NodeExecution log for each run.
type NodeStore interface {
	Append(ctx context.Context, node *entity.NodeExecution) error
	Update(ctx context.Context, node *entity.NodeExecution) error
	ListByRun(ctx context.Context, runID string) ([]*entity.NodeExecution, error)
}

// Job is the message shape enqueued for asynchronous execution.
type Job struct {
	RunID     string           `json:"run_id"`
	NodeID    string           `json:"node_id"`
	AgentKind entity.AgentKind `json:"agent_kind"`
	UserID    string           `json:"user_id"`
}

// Queue is the bridge to asynchronous job execution. Push must not block
// indefinitely; callers supply a context deadline.
type Queue interface {
	Push(ctx context.Context, job Job) error
}

// AuditEntry is one row appended to the audit log.
type AuditEntry struct {
	RunID     string
	NodeID    string
	Event     string
	Detail    string
	CreatedAt time.Time
}

// AuditLog is the append-only sink for run/node lifecycle events. A nil
// AuditLog is valid; the orchestrator skips auditing when none is wired.
type AuditLog interface {
	Append(ctx context.Context, e AuditEntry) error
}
