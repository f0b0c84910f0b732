// Package entity holds the request/response shapes and pricing model shared
// across the LLM provider facade and its provider registry.
package entity

import "context"

// Tool is a single callable tool description passed through to a provider
// that supports tool calling.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// CompletionRequest is the uniform contract every provider is called with.
type CompletionRequest struct {
	Provider    string  `json:"provider,omitempty"`
	Model       string  `json:"model,omitempty"`
	System      string  `json:"system,omitempty"`
	Prompt      string  `json:"prompt"`
	Temperature float64 `json:"temperature,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	JSON        bool    `json:"json,omitempty"`
	Tools       []Tool  `json:"tools,omitempty"`
}

// ToolCall is a single tool invocation the model asked for instead of (or
// alongside) text content. Jarvis does not run a multi-turn tool loop: a
// caller that receives one decides for itself whether to execute it and
// issue a single bounded follow-up completion.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// CompletionResponse is the uniform result shape returned to callers,
// independent of which backend produced it.
type CompletionResponse struct {
	Text         string     `json:"text"`
	InputTokens  int64      `json:"input_tokens"`
	OutputTokens int64      `json:"output_tokens"`
	Provider     string     `json:"provider"`
	Model        string     `json:"model"`
	ToolCalls    []ToolCall `json:"tool_calls,omitempty"`
}

// PriceTable converts token counts into a cost figure, per 1,000 tokens.
type PriceTable struct {
	InputPerThousand  float64
	OutputPerThousand float64
}

// Cost computes the dollar cost of a usage figure against this price table.
func (p PriceTable) Cost(inputTokens, outputTokens int64) float64 {
	return float64(inputTokens)/1000*p.InputPerThousand + float64(outputTokens)/1000*p.OutputPerThousand
}

// Provider is the uniform backend contract every named provider implements.
type Provider struct {
	Name         string
	DefaultModel string
	Prices       PriceTable
	Complete     func(ctx context.Context, req CompletionRequest) (CompletionResponse, error)
}
