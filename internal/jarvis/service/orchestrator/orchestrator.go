package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jarvisrun/jarvis/internal/jarvis/pkg/apierr"
	"github.com/jarvisrun/jarvis/internal/jarvis/pkg/idgen"
	"github.com/jarvisrun/jarvis/internal/jarvis/pkg/log"
	"github.com/jarvisrun/jarvis/internal/jarvis/pkg/metrics"
	"github.com/jarvisrun/jarvis/internal/jarvis/pkg/redact"
	"github.com/jarvisrun/jarvis/internal/jarvis/service/agents"
	"github.com/jarvisrun/jarvis/internal/jarvis/service/agents/entity"
	"github.com/jarvisrun/jarvis/internal/jarvis/service/statemachine"
)

// browserKeywords drives the fallback agent-selection heuristic when the
// caller does not name an agentKind explicitly.
var browserKeywords = []string{"open", "click", "visit", "navigate", "browse", "web", "url", "page", "site", "website"}

// Config tunes the orchestrator's budgets and deadlines.
type Config struct {
	MaxLLMCallsPerRun     int
	MaxBrowserStepsPerRun int
	AgentNodeTimeout      time.Duration
	AgentRunTimeout       time.Duration
	AsyncJobs             bool
}

// Orchestrator is the single top-level entry point for starting and
// inspecting runs.
type Orchestrator struct {
	cfg      Config
	runs     RunStore
	nodes    NodeStore
	queue    Queue
	audit    AuditLog
	handlers map[entity.AgentKind]agents.Handler

	mu      sync.Mutex
	budgets map[string]*agents.Budget
}

// New constructs an Orchestrator and registers every handler passed in.
// Further handlers may be added via RegisterHandler once constructed, since
// most handlers close over the orchestrator's own BudgetFor method and so
// cannot be built until the orchestrator already exists. audit may be nil,
// in which case run lifecycle events are simply not recorded.
func New(cfg Config, runs RunStore, nodes NodeStore, queue Queue, audit AuditLog, handlers []agents.Handler) *Orchestrator {
	o := &Orchestrator{
		cfg:      cfg,
		runs:     runs,
		nodes:    nodes,
		queue:    queue,
		audit:    audit,
		handlers: make(map[entity.AgentKind]agents.Handler, len(handlers)),
		budgets:  make(map[string]*agents.Budget),
	}
	for _, h := range handlers {
		o.RegisterHandler(h)
	}
	return o
}

// logAudit redacts and size-caps detail before appending it, swallowing any
// audit-store failure to a warning log: a broken audit sink must never stop
// a run from executing.
func (o *Orchestrator) logAudit(ctx context.Context, runID, nodeID, event string, detail any) {
	if o.audit == nil {
		return
	}
	safe := redact.ForLog(detail)
	raw, err := json.Marshal(safe)
	if err != nil {
		return
	}
	if err := o.audit.Append(ctx, AuditEntry{
		RunID: runID, NodeID: nodeID, Event: event, Detail: string(raw), CreatedAt: time.Now(),
	}); err != nil {
		log.Warn("audit append failed: %v", err)
	}
}

// RegisterHandler adds or replaces the handler for its agent kind.
func (o *Orchestrator) RegisterHandler(h agents.Handler) {
	o.handlers[h.Kind()] = h
}

// BudgetFor returns (creating if needed) the Budget tracking runID's LLM
// and browser-step consumption. Exported so handler constructors can close
// over it.
func (o *Orchestrator) BudgetFor(runID string) *agents.Budget {
	o.mu.Lock()
	defer o.mu.Unlock()
	b, ok := o.budgets[runID]
	if !ok {
		b = agents.NewBudget(o.cfg.MaxLLMCallsPerRun, o.cfg.MaxBrowserStepsPerRun)
		o.budgets[runID] = b
	}
	return b
}

// SelectAgentKind implements the fixed selection heuristic: an explicit,
// registered agentKind wins; otherwise the concatenation of prompt, data,
// and context is lower-cased and scanned for a browser keyword.
func (o *Orchestrator) SelectAgentKind(requested entity.AgentKind, input entity.RunInput) entity.AgentKind {
	if requested != "" {
		if _, ok := o.handlers[requested]; ok {
			return requested
		}
	}
	haystack := strings.ToLower(input.Prompt + fmt.Sprint(input.Data) + fmt.Sprint(input.Context))
	for _, kw := range browserKeywords {
		if strings.Contains(haystack, kw) {
			return entity.KindBrowser
		}
	}
	return entity.KindGen
}

// StartRun creates a run+pending node and either enqueues it (async mode)
// or executes it synchronously under a wall-clock deadline.
func (o *Orchestrator) StartRun(ctx context.Context, ownerUserID string, input entity.RunInput) (*entity.Run, error) {
	kind := o.SelectAgentKind(input.Options.AgentKind, input)
	handler, ok := o.handlers[kind]
	if !ok {
		return nil, apierr.Newf(apierr.Validation, apierr.CodeAgentNotFound, "no handler registered for agent kind %s", kind)
	}

	run := statemachine.NewRun(idgen.New("run"), string(kind), kind, ownerUserID, input, entity.PriorityNormal)
	if err := o.runs.Create(ctx, run); err != nil {
		return nil, err
	}

	node := statemachine.NewNode(idgen.New("node"), run.ID, 0, string(kind), nil)
	if err := o.nodes.Append(ctx, node); err != nil {
		return nil, err
	}
	run.NodeIDs = append(run.NodeIDs, node.ID)

	o.logAudit(ctx, run.ID, node.ID, "run_started", map[string]any{
		"agentKind": kind,
		"prompt":    input.Prompt,
		"data":      input.Data,
		"context":   input.Context,
	})

	if o.cfg.AsyncJobs {
		if err := o.queue.Push(ctx, Job{RunID: run.ID, NodeID: node.ID, AgentKind: kind, UserID: ownerUserID}); err != nil {
			return nil, apierr.Wrap(apierr.ExternalService, "", err)
		}
		return run, nil
	}

	o.execute(ctx, run, node, handler)
	return run, nil
}

// ExecuteQueued runs a previously-enqueued job; called by the queue worker.
func (o *Orchestrator) ExecuteQueued(ctx context.Context, job Job) error {
	run, err := o.runs.Get(ctx, job.RunID)
	if err != nil {
		return err
	}
	handler, ok := o.handlers[job.AgentKind]
	if !ok {
		return apierr.Newf(apierr.Validation, apierr.CodeAgentNotFound, "no handler registered for agent kind %s", job.AgentKind)
	}
	nodes, err := o.nodes.ListByRun(ctx, run.ID)
	if err != nil || len(nodes) == 0 {
		return apierr.New(apierr.NotFound, apierr.CodeNodeNotFound, "node not found for queued run")
	}
	o.execute(ctx, run, nodes[len(nodes)-1], handler)
	return nil
}

// execute races the handler against AGENT_NODE_TIMEOUT_MS, under an overall
// deadline of min(AGENT_RUN_TIMEOUT_MS, caller-supplied timeout).
func (o *Orchestrator) execute(ctx context.Context, run *entity.Run, node *entity.NodeExecution, handler agents.Handler) {
	runDeadline := o.cfg.AgentRunTimeout
	if ms := run.Input.Options.TimeoutMs; ms > 0 {
		if d := time.Duration(ms) * time.Millisecond; d < runDeadline {
			runDeadline = d
		}
	}
	ctx, cancel := context.WithTimeout(ctx, runDeadline)
	defer cancel()

	if err := statemachine.TransitionRun(run.Status, entity.RunRunning); err == nil {
		run.Status = entity.RunRunning
	}
	_ = o.runs.Update(ctx, run)

	if err := statemachine.TransitionNode(node.Status, entity.NodeRunning); err == nil {
		node.Status = entity.NodeRunning
	}
	_ = o.nodes.Update(ctx, node)

	type result struct {
		out *entity.RunOutput
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := handler.Execute(ctx, run)
		done <- result{out, err}
	}()

	timer := time.NewTimer(o.cfg.AgentNodeTimeout)
	defer timer.Stop()

	var r result
	select {
	case r = <-done:
	case <-timer.C:
		r = result{nil, apierr.Newf(apierr.Timeout, apierr.CodeExecutionTimeout,
			"Node execution timeout: %dms", o.cfg.AgentNodeTimeout.Milliseconds())}
		cancel()
	}

	now := time.Now()
	if r.err != nil {
		nextNode := entity.NodeFailed
		nextRun := statusForError(r.err)
		if err := statemachine.TransitionNode(node.Status, nextNode); err == nil {
			node.Status = nextNode
		}
		node.EndedAt = &now
		node.Error = runErrorFrom(r.err)
		if err := statemachine.TransitionRun(run.Status, nextRun); err == nil {
			run.Status = nextRun
		}
		run.Error = node.Error
	} else {
		if err := statemachine.TransitionNode(node.Status, entity.NodeCompleted); err == nil {
			node.Status = entity.NodeCompleted
		}
		node.EndedAt = &now
		node.Output = r.out.Data
		if err := statemachine.TransitionRun(run.Status, entity.RunCompleted); err == nil {
			run.Status = entity.RunCompleted
		}
		run.Output = r.out
	}
	run.CompletedAt = &now
	run.LLMCallCount = o.BudgetFor(run.ID).LLMCalls()
	run.BrowserStepCount = o.BudgetFor(run.ID).BrowserSteps()

	_ = o.nodes.Update(context.Background(), node)
	_ = o.runs.Update(context.Background(), run)

	if run.Error != nil {
		o.logAudit(context.Background(), run.ID, node.ID, "run_failed", run.Error)
	} else {
		o.logAudit(context.Background(), run.ID, node.ID, "run_completed", run.Output)
	}

	metrics.AgentRunsTotal.WithLabelValues(string(run.AgentKind), string(run.Status)).Inc()
	if d, ok := run.Duration(); ok {
		metrics.AgentRunDurationSeconds.WithLabelValues(string(run.AgentKind)).Observe(d.Seconds())
	}

	log.WithFields(log.Fields{"run_id": run.ID, "agent_kind": run.AgentKind, "status": run.Status}).Info("run finished")
}

func statusForError(err error) entity.RunStatus {
	if apierr.KindOf(err) == apierr.Timeout {
		return entity.RunTimeout
	}
	return entity.RunFailed
}

func runErrorFrom(err error) *entity.RunError {
	apiErr, ok := apierr.As(err)
	if !ok {
		return &entity.RunError{Code: string(apierr.Internal), Message: err.Error()}
	}
	return &entity.RunError{Code: string(apiErr.Code), Message: apiErr.Message, Details: apiErr.Details}
}

// GetRun returns run iff requesterUserID owns it.
func (o *Orchestrator) GetRun(ctx context.Context, runID, requesterUserID string) (*entity.Run, error) {
	run, err := o.runs.Get(ctx, runID)
	if err != nil {
		return nil, err
	}
	if run.OwnerUserID != requesterUserID {
		return nil, apierr.New(apierr.Authorization, apierr.CodeAccessDenied, "run does not belong to requester")
	}
	return run, nil
}

// ListRuns returns requesterUserID's own runs, paged.
func (o *Orchestrator) ListRuns(ctx context.Context, requesterUserID string, limit, offset int) ([]*entity.Run, error) {
	return o.runs.List(ctx, requesterUserID, limit, offset)
}

// ListRunsByAgent returns requesterUserID's own runs of the given kind, paged.
func (o *Orchestrator) ListRunsByAgent(ctx context.Context, requesterUserID string, kind entity.AgentKind, limit, offset int) ([]*entity.Run, error) {
	return o.runs.ListByAgent(ctx, requesterUserID, kind, limit, offset)
}
