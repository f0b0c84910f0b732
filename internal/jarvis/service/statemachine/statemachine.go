// Package statemachine is the pure Run/Node state module: terminal checks,
// transition validation, and duration computation. It holds no state of its
// own and performs no I/O.
package statemachine

import (
	"time"

	"github.com/jarvisrun/jarvis/internal/jarvis/pkg/apierr"
	"github.com/jarvisrun/jarvis/internal/jarvis/service/agents/entity"
)

// runTransitions enumerates the legal from -> {to} edges for a Run. Terminal
// states have no outgoing edges.
var runTransitions = map[entity.RunStatus]map[entity.RunStatus]bool{
	entity.RunPending: {
		entity.RunRunning:   true,
		entity.RunCompleted: true, // no work attempted
		entity.RunFailed:    true,
		entity.RunCancelled: true,
	},
	entity.RunRunning: {
		entity.RunCompleted: true,
		entity.RunFailed:    true,
		entity.RunCancelled: true,
		entity.RunTimeout:   true,
	},
}

var nodeTransitions = map[entity.NodeStatus]map[entity.NodeStatus]bool{
	entity.NodePending: {
		entity.NodeRunning:   true,
		entity.NodeSkipped:   true,
		entity.NodeCompleted: true,
		entity.NodeFailed:    true,
	},
	entity.NodeRunning: {
		entity.NodeCompleted: true,
		entity.NodeFailed:    true,
	},
}

// TransitionRun validates from -> to for a Run, failing IllegalTransition
// when from is terminal or the edge is not in the allowed set.
func TransitionRun(from, to entity.RunStatus) error {
	if from.IsTerminal() {
		return apierr.Newf(apierr.Conflict, apierr.CodeIllegalTransition,
			"run status %s is terminal, cannot transition to %s", from, to)
	}
	edges, ok := runTransitions[from]
	if !ok || !edges[to] {
		return apierr.Newf(apierr.Conflict, apierr.CodeIllegalTransition,
			"illegal run transition %s -> %s", from, to)
	}
	return nil
}

// TransitionNode validates from -> to for a NodeExecution.
func TransitionNode(from, to entity.NodeStatus) error {
	if from.IsTerminal() {
		return apierr.Newf(apierr.Conflict, apierr.CodeIllegalTransition,
			"node status %s is terminal, cannot transition to %s", from, to)
	}
	edges, ok := nodeTransitions[from]
	if !ok || !edges[to] {
		return apierr.Newf(apierr.Conflict, apierr.CodeIllegalTransition,
			"illegal node transition %s -> %s", from, to)
	}
	return nil
}

// NewRun constructs a Run in the pending state.
func NewRun(id, agentID string, kind entity.AgentKind, ownerUserID string, input entity.RunInput, priority entity.Priority) *entity.Run {
	return &entity.Run{
		ID:          id,
		AgentID:     agentID,
		AgentKind:   kind,
		OwnerUserID: ownerUserID,
		Status:      entity.RunPending,
		Input:       input,
		StartedAt:   time.Now(),
		NodeIDs:     []string{},
		Priority:    priority,
	}
}

// NewNode constructs the next NodeExecution appended to run, in the pending
// state. seq is the node's position in the run's append-only node log.
func NewNode(id, runID string, seq int, kind string, input map[string]any) *entity.NodeExecution {
	return &entity.NodeExecution{
		ID:        id,
		RunID:     runID,
		Seq:       seq,
		Kind:      kind,
		Status:    entity.NodePending,
		Input:     input,
		StartedAt: time.Now(),
	}
}

// Duration returns run.CompletedAt - run.StartedAt when the run is complete.
func Duration(run *entity.Run) (time.Duration, bool) {
	return run.Duration()
}

// NodeDuration returns node.EndedAt - node.StartedAt when the node is
// complete.
func NodeDuration(node *entity.NodeExecution) (time.Duration, bool) {
	return node.Duration()
}
