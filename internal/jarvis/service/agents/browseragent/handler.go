// Package browseragent implements the Browser agent: it executes a
// deterministic step list, or one synthesized by a single LLM planning
// call, against a session borrowed from the Session Manager.
package browseragent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jarvisrun/jarvis/internal/jarvis/pkg/apierr"
	"github.com/jarvisrun/jarvis/internal/jarvis/service/agents"
	"github.com/jarvisrun/jarvis/internal/jarvis/service/agents/entity"
	"github.com/jarvisrun/jarvis/internal/jarvis/service/browser/action"
	"github.com/jarvisrun/jarvis/internal/jarvis/service/browser/session"
	"github.com/jarvisrun/jarvis/internal/jarvis/service/llm"
	llmentity "github.com/jarvisrun/jarvis/internal/jarvis/service/llm/entity"
)

const planningSystemPrompt = `You plan a sequence of browser actions to satisfy a user's request.
Respond with a JSON array only, each element shaped as
{"action":"goto|click|type|waitFor|select|evaluate","selector":"","value":"","url":""}.`

// Handler is the Browser agent handler.
type Handler struct {
	sessions *session.Manager
	actions  *action.Engine
	facade   *llm.Facade
	budgets  func(runID string) *agents.Budget
}

// New constructs a Browser handler.
func New(sessions *session.Manager, actions *action.Engine, facade *llm.Facade, budgets func(runID string) *agents.Budget) *Handler {
	return &Handler{sessions: sessions, actions: actions, facade: facade, budgets: budgets}
}

func (h *Handler) Kind() entity.AgentKind { return entity.KindBrowser }

// Execute runs run.Input.Options.Steps verbatim if supplied, otherwise asks
// the LLM facade for a plan, then executes each step against a freshly
// created session. The session is closed on completion unless the caller
// requested KeepAlive.
func (h *Handler) Execute(ctx context.Context, run *entity.Run) (*entity.RunOutput, error) {
	steps := run.Input.Options.Steps
	if len(steps) == 0 {
		planned, err := h.plan(ctx, run)
		if err != nil {
			return nil, err
		}
		steps = planned
	}

	sessionID, err := h.sessions.Create(ctx, session.CreateOptions{BrowserKind: session.Chromium})
	if err != nil {
		return nil, err
	}
	keepAlive := run.Input.Options.KeepAlive
	if !keepAlive {
		defer h.sessions.Close(ctx, sessionID)
	}

	results := make([]map[string]any, 0, len(steps))
	for i, step := range steps {
		if err := h.execStep(ctx, run.ID, sessionID, step); err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, step.Action, err)
		}
		results = append(results, map[string]any{"action": step.Action, "ok": true})
	}

	return &entity.RunOutput{
		Data: map[string]any{"session_id": sessionID, "steps": results},
	}, nil
}

func (h *Handler) execStep(ctx context.Context, runID, sessionID string, step entity.BrowserStep) error {
	switch step.Action {
	case "goto":
		return h.actions.Goto(ctx, runID, sessionID, step.URL)
	case "click":
		return h.actions.Click(ctx, runID, sessionID, step.Selector)
	case "type":
		return h.actions.Type(ctx, runID, sessionID, step.Selector, step.Value)
	case "waitFor":
		return h.actions.WaitFor(ctx, runID, sessionID, step.Selector, nil)
	case "select":
		return h.actions.Select(ctx, runID, sessionID, step.Selector, step.Value)
	case "evaluate":
		_, err := h.actions.Evaluate(ctx, runID, sessionID, step.Value)
		return err
	default:
		return apierr.Newf(apierr.Validation, apierr.CodeInvalidRequest, "unknown browser action %q", step.Action)
	}
}

func (h *Handler) plan(ctx context.Context, run *entity.Run) ([]entity.BrowserStep, error) {
	budget, ok := h.budgetFor(run.ID)
	if ok {
		if err := budget.ChargeLLMCall(); err != nil {
			return nil, err
		}
	}

	resp, err := h.facade.Complete(ctx, llmentity.CompletionRequest{
		System: planningSystemPrompt,
		Prompt: run.Input.Prompt,
		JSON:   true,
	})
	if err != nil {
		return nil, err
	}

	var steps []entity.BrowserStep
	if err := json.Unmarshal([]byte(resp.Text), &steps); err != nil {
		return nil, apierr.Wrap(apierr.ExternalService, "", fmt.Errorf("parse browser plan: %w", err))
	}
	return steps, nil
}

func (h *Handler) budgetFor(runID string) (*agents.Budget, bool) {
	if h.budgets == nil {
		return nil, false
	}
	b := h.budgets(runID)
	return b, b != nil
}
