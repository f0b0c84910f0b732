package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jarvisrun/jarvis/internal/jarvis/pkg/apierr"
	"github.com/jarvisrun/jarvis/internal/jarvis/service/llm/entity"
	"github.com/jarvisrun/jarvis/internal/jarvis/service/llm/provider"
)

func fastRetry() RetryPolicy {
	return RetryPolicy{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Jitter: false}
}

func TestFacadeCompleteRejectsEmptyPrompt(t *testing.T) {
	reg := provider.NewRegistry()
	reg.MustRegister(provider.NewMock())
	f := NewFacade(reg, "mock", "", fastRetry())

	_, err := f.Complete(context.Background(), entity.CompletionRequest{})
	apiErr, ok := apierr.As(err)
	if !ok || apiErr.Code != apierr.CodeInvalidRequest {
		t.Fatalf("expected InvalidRequest, got %v", err)
	}
}

func TestFacadeCompleteUnknownProvider(t *testing.T) {
	reg := provider.NewRegistry()
	reg.MustRegister(provider.NewMock())
	f := NewFacade(reg, "mock", "", fastRetry())

	_, err := f.Complete(context.Background(), entity.CompletionRequest{Provider: "nope", Prompt: "hi"})
	apiErr, ok := apierr.As(err)
	if !ok || apiErr.Code != apierr.CodeUnknownProvider {
		t.Fatalf("expected UnknownProvider, got %v", err)
	}
}

func TestFacadeCompleteSuccess(t *testing.T) {
	reg := provider.NewRegistry()
	reg.MustRegister(provider.NewMock())
	f := NewFacade(reg, "mock", "", fastRetry())

	resp, err := f.Complete(context.Background(), entity.CompletionRequest{Prompt: "hello"})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Provider != "mock" {
		t.Fatalf("provider = %s, want mock", resp.Provider)
	}
}

func TestFacadeCompleteRetriesThenFails(t *testing.T) {
	calls := 0
	flaky := &entity.Provider{
		Name:         "flaky",
		DefaultModel: "flaky-1",
		Complete: func(ctx context.Context, req entity.CompletionRequest) (entity.CompletionResponse, error) {
			calls++
			return entity.CompletionResponse{}, errors.New("upstream unavailable")
		},
	}
	reg := provider.NewRegistry()
	reg.MustRegister(flaky)
	f := NewFacade(reg, "flaky", "", fastRetry())

	_, err := f.Complete(context.Background(), entity.CompletionRequest{Prompt: "hi"})
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if calls != fastRetry().MaxRetries+1 {
		t.Fatalf("calls = %d, want %d", calls, fastRetry().MaxRetries+1)
	}
}

func TestFacadeOpenCircuitShortCircuits(t *testing.T) {
	calls := 0
	failing := &entity.Provider{
		Name: "failing",
		Complete: func(ctx context.Context, req entity.CompletionRequest) (entity.CompletionResponse, error) {
			calls++
			return entity.CompletionResponse{}, errors.New("down")
		},
	}
	reg := provider.NewRegistry()
	reg.MustRegister(failing)
	f := NewFacade(reg, "failing", "", RetryPolicy{MaxRetries: 0, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond})

	for i := 0; i < 5; i++ {
		f.Complete(context.Background(), entity.CompletionRequest{Prompt: "hi"})
	}
	callsAfterFive := calls

	_, err := f.Complete(context.Background(), entity.CompletionRequest{Prompt: "hi"})
	apiErr, ok := apierr.As(err)
	if !ok || apiErr.Code != apierr.CodeCircuitOpen {
		t.Fatalf("expected CircuitOpen once breaker trips, got %v", err)
	}
	if calls != callsAfterFive {
		t.Fatal("provider should not be called while circuit is open")
	}
}
