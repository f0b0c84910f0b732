// Package research implements the Research agent: one Gen-style planning
// call followed by N Browser goto+evaluate steps, reusing both the LLM and
// browser-step budgets rather than introducing a third counter.
package research

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jarvisrun/jarvis/internal/jarvis/pkg/apierr"
	"github.com/jarvisrun/jarvis/internal/jarvis/pkg/log"
	"github.com/jarvisrun/jarvis/internal/jarvis/service/agents"
	"github.com/jarvisrun/jarvis/internal/jarvis/service/agents/entity"
	"github.com/jarvisrun/jarvis/internal/jarvis/service/browser/action"
	"github.com/jarvisrun/jarvis/internal/jarvis/service/browser/session"
	"github.com/jarvisrun/jarvis/internal/jarvis/service/llm"
	llmentity "github.com/jarvisrun/jarvis/internal/jarvis/service/llm/entity"
	"github.com/jarvisrun/jarvis/internal/jarvis/service/llm/mcptool"
)

const researchPlanPrompt = `You are researching a topic using a web browser.
Reply with a JSON array of {"url":"...", "question":""} objects naming pages to visit
and what to extract from each, using document-scoped expression reads only.`

const synthesisSystemPrompt = `Summarize the extracted findings into a concise answer to the original question.`

type lead struct {
	URL      string `json:"url"`
	Question string `json:"question"`
}

// Handler is the Research agent handler.
type Handler struct {
	sessions *session.Manager
	actions  *action.Engine
	facade   *llm.Facade
	budgets  func(runID string) *agents.Budget
	tools    mcptool.Manager
}

// New constructs a Research handler. tools may be nil, in which case the
// synthesis call never carries tool definitions.
func New(sessions *session.Manager, actions *action.Engine, facade *llm.Facade, budgets func(runID string) *agents.Budget, tools mcptool.Manager) *Handler {
	return &Handler{sessions: sessions, actions: actions, facade: facade, budgets: budgets, tools: tools}
}

func (h *Handler) Kind() entity.AgentKind { return entity.KindResearch }

// Execute asks the LLM for a short list of pages to visit, extracts a
// reading from each via Evaluate, then asks the LLM to synthesize an
// answer from the collected readings.
func (h *Handler) Execute(ctx context.Context, run *entity.Run) (*entity.RunOutput, error) {
	budget := h.budgets(run.ID)

	leads, err := h.plan(ctx, run, budget)
	if err != nil {
		return nil, err
	}

	sessionID, err := h.sessions.Create(ctx, session.CreateOptions{BrowserKind: session.Chromium})
	if err != nil {
		return nil, err
	}
	defer h.sessions.Close(ctx, sessionID)

	findings := make([]map[string]any, 0, len(leads))
	for _, l := range leads {
		if err := h.actions.Goto(ctx, run.ID, sessionID, l.URL); err != nil {
			continue
		}
		result, err := h.actions.Evaluate(ctx, run.ID, sessionID, "document.body.innerText")
		if err != nil {
			continue
		}
		findings = append(findings, map[string]any{"url": l.URL, "question": l.Question, "reading": result})
	}

	if err := budget.ChargeLLMCall(); err != nil {
		return nil, err
	}
	findingsJSON, _ := json.Marshal(findings)
	synthesisReq := llmentity.CompletionRequest{
		System: synthesisSystemPrompt,
		Prompt: fmt.Sprintf("Question: %s\nFindings: %s", run.Input.Prompt, findingsJSON),
		Tools:  h.availableTools(),
	}
	resp, err := h.facade.Complete(ctx, synthesisReq)
	if err != nil {
		return nil, err
	}

	if len(resp.ToolCalls) > 0 && h.tools != nil {
		call := resp.ToolCalls[0]
		if result, err := h.tools.CallTool(ctx, call.Name, call.Arguments); err != nil {
			log.Warn("research: tool call %s failed: %v", call.Name, err)
		} else if err := budget.ChargeLLMCall(); err != nil {
			return nil, err
		} else {
			followUp := synthesisReq
			followUp.Tools = nil
			followUp.Prompt = fmt.Sprintf("%s\n\nTool %q returned: %s\n\nAnswer using this result.", synthesisReq.Prompt, call.Name, result)
			if resp, err = h.facade.Complete(ctx, followUp); err != nil {
				return nil, err
			}
		}
	}

	cost := h.facade.CostOf(resp.Provider, resp.InputTokens, resp.OutputTokens)
	return &entity.RunOutput{
		Text: resp.Text,
		Data: map[string]any{"findings": findings},
		Usage: &entity.TokenUsage{
			InputTokens:  resp.InputTokens,
			OutputTokens: resp.OutputTokens,
			CostUSD:      cost,
		},
	}, nil
}

func (h *Handler) availableTools() []llmentity.Tool {
	if h.tools == nil {
		return nil
	}
	return h.tools.AllTools()
}

func (h *Handler) plan(ctx context.Context, run *entity.Run, budget *agents.Budget) ([]lead, error) {
	if err := budget.ChargeLLMCall(); err != nil {
		return nil, err
	}
	resp, err := h.facade.Complete(ctx, llmentity.CompletionRequest{
		System: researchPlanPrompt,
		Prompt: run.Input.Prompt,
		JSON:   true,
	})
	if err != nil {
		return nil, err
	}
	var leads []lead
	if err := json.Unmarshal([]byte(resp.Text), &leads); err != nil {
		return nil, apierr.Wrap(apierr.ExternalService, "", fmt.Errorf("parse research plan: %w", err))
	}
	return leads, nil
}
