// Package gen implements the Gen agent: it issues one or more LLM
// completions via the facade, tracking its own llmCallCount budget.
package gen

import (
	"context"
	"fmt"

	"github.com/jarvisrun/jarvis/internal/jarvis/pkg/log"
	"github.com/jarvisrun/jarvis/internal/jarvis/service/agents"
	"github.com/jarvisrun/jarvis/internal/jarvis/service/agents/entity"
	"github.com/jarvisrun/jarvis/internal/jarvis/service/llm"
	llmentity "github.com/jarvisrun/jarvis/internal/jarvis/service/llm/entity"
	"github.com/jarvisrun/jarvis/internal/jarvis/service/llm/mcptool"
)

// Handler is the Gen agent handler.
type Handler struct {
	facade  *llm.Facade
	budgets func(runID string) *agents.Budget
	tools   mcptool.Manager
}

// New constructs a Gen handler bound to facade, with access to the run's
// Budget via the orchestrator-supplied lookup function. tools may be nil,
// in which case completions never carry tool definitions.
func New(facade *llm.Facade, budgets func(runID string) *agents.Budget, tools mcptool.Manager) *Handler {
	return &Handler{facade: facade, budgets: budgets, tools: tools}
}

func (h *Handler) Kind() entity.AgentKind { return entity.KindGen }

// Execute issues a completion call against the run's prompt, offering any
// MCP-discovered tools. If the model responds with a tool call instead of
// (or alongside) text, Execute invokes it once and issues a single bounded
// follow-up completion with the tool's result folded into the prompt: this
// handler never runs an open-ended tool loop.
func (h *Handler) Execute(ctx context.Context, run *entity.Run) (*entity.RunOutput, error) {
	budget := h.budgets(run.ID)
	if err := budget.ChargeLLMCall(); err != nil {
		return nil, err
	}

	req := llmentity.CompletionRequest{
		Prompt: run.Input.Prompt,
		System: systemPromptFrom(run),
		Tools:  h.availableTools(),
	}
	resp, err := h.facade.Complete(ctx, req)
	if err != nil {
		return nil, err
	}

	if len(resp.ToolCalls) > 0 && h.tools != nil {
		resp, err = h.runToolCall(ctx, run, budget, req, resp)
		if err != nil {
			return nil, err
		}
	}

	cost := h.facade.CostOf(resp.Provider, resp.InputTokens, resp.OutputTokens)
	return &entity.RunOutput{
		Text: resp.Text,
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

// runToolCall executes the model's first requested tool call and asks for a
// final answer with the tool's result appended to the original prompt.
func (h *Handler) runToolCall(ctx context.Context, run *entity.Run, budget *agents.Budget, req llmentity.CompletionRequest, resp llmentity.CompletionResponse) (llmentity.CompletionResponse, error) {
	call := resp.ToolCalls[0]
	result, err := h.tools.CallTool(ctx, call.Name, call.Arguments)
	if err != nil {
		log.Warn("gen: tool call %s failed: %v", call.Name, err)
		return resp, nil
	}

	if err := budget.ChargeLLMCall(); err != nil {
		return llmentity.CompletionResponse{}, err
	}
	followUp := req
	followUp.Tools = nil
	followUp.Prompt = fmt.Sprintf("%s\n\nTool %q returned: %s\n\nAnswer the original request using this result.", req.Prompt, call.Name, result)
	return h.facade.Complete(ctx, followUp)
}

func systemPromptFrom(run *entity.Run) string {
	if sys, ok := run.Input.Context["system"].(string); ok {
		return sys
	}
	return ""
}
