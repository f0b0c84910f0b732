// Package echo implements the Echo agent: it returns the input as the
// output and makes no external calls.
package echo

import (
	"context"
	"time"

	"github.com/jarvisrun/jarvis/internal/jarvis/service/agents/entity"
)

// fixedProcessingDuration is the duration Echo records for every run,
// standing in for "work" an agent with no external calls still performs.
const fixedProcessingDuration = 5 * time.Millisecond

// Handler is the Echo agent handler.
type Handler struct{}

// New constructs an Echo handler.
func New() *Handler { return &Handler{} }

func (h *Handler) Kind() entity.AgentKind { return entity.KindEcho }

// Execute returns the run's input as its output.
func (h *Handler) Execute(ctx context.Context, run *entity.Run) (*entity.RunOutput, error) {
	timer := time.NewTimer(fixedProcessingDuration)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
	}
	return &entity.RunOutput{
		Text: run.Input.Prompt,
		Data: run.Input.Data,
	}, nil
}
