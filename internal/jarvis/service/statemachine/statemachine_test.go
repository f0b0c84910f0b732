package statemachine

import (
	"testing"

	"github.com/jarvisrun/jarvis/internal/jarvis/pkg/apierr"
	"github.com/jarvisrun/jarvis/internal/jarvis/service/agents/entity"
)

func TestRunIsTerminal(t *testing.T) {
	cases := map[entity.RunStatus]bool{
		entity.RunPending:   false,
		entity.RunRunning:   false,
		entity.RunCompleted: true,
		entity.RunFailed:    true,
		entity.RunCancelled: true,
		entity.RunTimeout:   true,
	}
	for status, want := range cases {
		if got := status.IsTerminal(); got != want {
			t.Errorf("RunStatus(%s).IsTerminal() = %v, want %v", status, got, want)
		}
	}
}

func TestTransitionRunRejectsFromTerminal(t *testing.T) {
	err := TransitionRun(entity.RunCompleted, entity.RunRunning)
	if err == nil {
		t.Fatal("expected error transitioning out of a terminal state")
	}
	apiErr, ok := apierr.As(err)
	if !ok || apiErr.Code != apierr.CodeIllegalTransition {
		t.Fatalf("expected CodeIllegalTransition, got %v", err)
	}
}

func TestTransitionRunAllowsPendingToCompletedDirectly(t *testing.T) {
	if err := TransitionRun(entity.RunPending, entity.RunCompleted); err != nil {
		t.Fatalf("pending -> completed should be legal when no work was attempted: %v", err)
	}
}

func TestTransitionRunRejectsUnknownEdge(t *testing.T) {
	if err := TransitionRun(entity.RunRunning, entity.RunPending); err == nil {
		t.Fatal("running -> pending should be illegal")
	}
}

func TestTransitionNodeRejectsFromTerminal(t *testing.T) {
	if err := TransitionNode(entity.NodeSkipped, entity.NodeRunning); err == nil {
		t.Fatal("expected error transitioning a node out of a terminal state")
	}
}

func TestNewRunStartsPending(t *testing.T) {
	r := NewRun("run_1", "agent_1", entity.KindEcho, "user_1", entity.RunInput{}, entity.PriorityNormal)
	if r.Status != entity.RunPending {
		t.Fatalf("new run status = %s, want pending", r.Status)
	}
	if r.OwnerUserID != "user_1" {
		t.Fatalf("owner = %s, want user_1", r.OwnerUserID)
	}
}
