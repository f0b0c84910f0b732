package provider

import (
	"errors"
	"testing"

	"github.com/cloudwego/eino/schema"

	"github.com/jarvisrun/jarvis/internal/jarvis/pkg/apierr"
)

func TestClassifyVendorErrorTagsKnownFailureModes(t *testing.T) {
	cases := []struct {
		name string
		err  error
		kind apierr.Kind
	}{
		{"auth", errors.New("401 Unauthorized: invalid api key"), apierr.Authentication},
		{"rate limit", errors.New("429 Too Many Requests: rate limit exceeded"), apierr.RateLimit},
		{"quota", errors.New("insufficient_quota: you exceeded your current quota"), apierr.BudgetExceeded},
		{"bad request", errors.New("400 invalid_request: context_length_exceeded"), apierr.Validation},
		{"unknown", errors.New("connection reset by peer"), apierr.ExternalService},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := classifyVendorError("claude", tc.err)
			apiErr, ok := apierr.As(got)
			if !ok {
				t.Fatalf("classifyVendorError did not produce an *apierr.Error: %v", got)
			}
			if apiErr.Kind != tc.kind {
				t.Errorf("Kind = %v, want %v", apiErr.Kind, tc.kind)
			}
			if !errors.Is(got, tc.err) {
				t.Errorf("classified error lost the underlying cause")
			}
		})
	}
}

func TestParamsFromJSONSchemaReadsPropertiesAndRequired(t *testing.T) {
	raw := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query":    map[string]any{"type": "string", "description": "search text"},
			"maxPages": map[string]any{"type": "integer"},
		},
		"required": []any{"query"},
	}

	params := paramsFromJSONSchema(raw)
	if len(params) != 2 {
		t.Fatalf("len(params) = %d, want 2", len(params))
	}
	q, ok := params["query"]
	if !ok {
		t.Fatalf("missing query param")
	}
	if q.Desc != "search text" || q.Type != schema.String || !q.Required {
		t.Errorf("query param = %+v, want desc=search text type=string required=true", q)
	}
	mp, ok := params["maxPages"]
	if !ok {
		t.Fatalf("missing maxPages param")
	}
	if mp.Type != schema.Number || mp.Required {
		t.Errorf("maxPages param = %+v, want type=number required=false", mp)
	}
}

func TestParamsFromJSONSchemaHandlesMissingShape(t *testing.T) {
	if got := paramsFromJSONSchema(nil); got != nil {
		t.Errorf("paramsFromJSONSchema(nil) = %v, want nil", got)
	}
	if got := paramsFromJSONSchema(map[string]any{"type": "object"}); got != nil {
		t.Errorf("paramsFromJSONSchema with no properties = %v, want nil", got)
	}
}

func TestToolCallsFromMessageMapsSchemaToolCalls(t *testing.T) {
	msg := &schema.Message{
		ToolCalls: []schema.ToolCall{
			{ID: "call-1", Function: schema.FunctionCall{Name: "search", Arguments: `{"query":"go"}`}},
		},
	}
	calls := toolCallsFromMessage(msg)
	if len(calls) != 1 {
		t.Fatalf("len(calls) = %d, want 1", len(calls))
	}
	if calls[0].ID != "call-1" || calls[0].Name != "search" || calls[0].Arguments != `{"query":"go"}` {
		t.Errorf("calls[0] = %+v", calls[0])
	}
}

func TestToolCallsFromMessageNilWhenNoneRequested(t *testing.T) {
	if got := toolCallsFromMessage(&schema.Message{}); got != nil {
		t.Errorf("toolCallsFromMessage with no tool calls = %v, want nil", got)
	}
	if got := toolCallsFromMessage(nil); got != nil {
		t.Errorf("toolCallsFromMessage(nil) = %v, want nil", got)
	}
}
