// Package agents defines the narrow contract every agent kind implements,
// and the per-run budget tracker shared by the Gen and Browser handlers.
package agents

import (
	"context"
	"sync"

	"github.com/jarvisrun/jarvis/internal/jarvis/pkg/apierr"
	"github.com/jarvisrun/jarvis/internal/jarvis/service/agents/entity"
)

// Handler executes one run to completion (or failure) and returns the
// output to attach to the run record. Implementations must observe
// ctx cancellation for any external call they make.
type Handler interface {
	Kind() entity.AgentKind
	Execute(ctx context.Context, run *entity.Run) (*entity.RunOutput, error)
}

// Budget tracks the per-run LLM-call and browser-step counters and enforces
// the configured maximums. A Budget is scoped to a single run.
type Budget struct {
	MaxLLMCalls     int
	MaxBrowserSteps int

	mu           sync.Mutex
	llmCalls     int
	browserSteps int
}

// NewBudget constructs a Budget with the given per-run maximums.
func NewBudget(maxLLMCalls, maxBrowserSteps int) *Budget {
	return &Budget{MaxLLMCalls: maxLLMCalls, MaxBrowserSteps: maxBrowserSteps}
}

// ChargeLLMCall increments the LLM call counter, failing BudgetExceeded
// before the call that would push the count over the maximum.
func (b *Budget) ChargeLLMCall() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.llmCalls+1 > b.MaxLLMCalls {
		return apierr.New(apierr.BudgetExceeded, "", "LLM call budget exceeded for this run")
	}
	b.llmCalls++
	return nil
}

// ChargeBrowserStep increments the browser-step counter, failing
// BudgetExceeded before the step that would push the count over the
// maximum. Satisfies action.BudgetTracker via a run-scoped adapter.
func (b *Budget) ChargeBrowserStep() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.browserSteps+1 > b.MaxBrowserSteps {
		return apierr.New(apierr.BudgetExceeded, "", "browser step budget exceeded for this run")
	}
	b.browserSteps++
	return nil
}

func (b *Budget) LLMCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.llmCalls
}

func (b *Budget) BrowserSteps() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.browserSteps
}

// RunScopedBudgetTracker adapts a map of per-run Budgets to the
// action.BudgetTracker interface, keyed by runID, so the (process-wide)
// Action Engine can charge the budget of whichever run is currently using a
// session.
type RunScopedBudgetTracker struct {
	budgets func(runID string) *Budget
}

// NewRunScopedBudgetTracker wraps a run->Budget lookup function.
func NewRunScopedBudgetTracker(lookup func(runID string) *Budget) *RunScopedBudgetTracker {
	return &RunScopedBudgetTracker{budgets: lookup}
}

// ChargeBrowserStep implements action.BudgetTracker.
func (t *RunScopedBudgetTracker) ChargeBrowserStep(runID string) error {
	b := t.budgets(runID)
	if b == nil {
		return nil
	}
	return b.ChargeBrowserStep()
}
