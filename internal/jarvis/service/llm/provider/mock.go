package provider

import (
	"context"
	"fmt"

	"github.com/jarvisrun/jarvis/internal/jarvis/service/llm/entity"
)

// NewMock returns the always-present mock provider: it echoes the prompt
// back with a deterministic token count, so the facade and orchestrator are
// exercisable without any cloud credentials configured.
func NewMock() *entity.Provider {
	return &entity.Provider{
		Name:         "mock",
		DefaultModel: "mock-echo",
		Prices:       entity.PriceTable{},
		Complete: func(ctx context.Context, req entity.CompletionRequest) (entity.CompletionResponse, error) {
			model := req.Model
			if model == "" {
				model = "mock-echo"
			}
			return entity.CompletionResponse{
				Text:         fmt.Sprintf("mock: %s", req.Prompt),
				InputTokens:  int64(len(req.Prompt)),
				OutputTokens: int64(len(req.Prompt)) + 6,
				Provider:     "mock",
				Model:        model,
			}, nil
		},
	}
}
