// Package llm is the LLM provider facade: it routes a completion request to
// one of several named providers, applies retries and a per-provider
// circuit breaker, and records token usage and cost.
package llm

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/jarvisrun/jarvis/internal/jarvis/pkg/apierr"
	"github.com/jarvisrun/jarvis/internal/jarvis/pkg/log"
	"github.com/jarvisrun/jarvis/internal/jarvis/service/llm/circuit"
	"github.com/jarvisrun/jarvis/internal/jarvis/service/llm/entity"
	"github.com/jarvisrun/jarvis/internal/jarvis/service/llm/provider"
)

// RetryPolicy configures the facade's exponential backoff.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Jitter     bool
}

// DefaultRetryPolicy matches the documented defaults.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 3, BaseDelay: 500 * time.Millisecond, MaxDelay: 20 * time.Second, Jitter: true}
}

func (p RetryPolicy) delay(attempt int) time.Duration {
	d := p.BaseDelay << attempt
	if d > p.MaxDelay {
		d = p.MaxDelay
	}
	if p.Jitter {
		jitter := time.Duration((rand.Float64()*0.5 - 0.25) * float64(d))
		d += jitter
	}
	if d < 0 {
		d = 0
	}
	return d
}

// Facade is the single entry point agent handlers call to get a completion.
type Facade struct {
	registry        *provider.Registry
	defaultProvider string
	defaultModel    string
	retry           RetryPolicy

	mu       sync.Mutex
	breakers map[string]*circuit.Breaker
}

// NewFacade builds a facade over reg, choosing defaults per the registry's
// precedence rules.
func NewFacade(reg *provider.Registry, configuredProvider, configuredModel string, retry RetryPolicy) *Facade {
	def := provider.ChooseDefault(reg, configuredProvider)
	return &Facade{
		registry:        reg,
		defaultProvider: def,
		defaultModel:    provider.ChooseDefaultModel(reg, def, configuredModel),
		retry:           retry,
		breakers:        make(map[string]*circuit.Breaker),
	}
}

func (f *Facade) breakerFor(name string) *circuit.Breaker {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.breakers[name]
	if !ok {
		b = circuit.New(circuit.DefaultConfig())
		f.breakers[name] = b
	}
	return b
}

// nonRetryable reports whether err should bypass the retry loop entirely:
// authentication failures, malformed requests, and quota/billing exhaustion
// will not succeed on a bare retry.
func nonRetryable(err error) bool {
	kind := apierr.KindOf(err)
	switch kind {
	case apierr.Authentication, apierr.Validation, apierr.BudgetExceeded:
		return true
	default:
		return false
	}
}

// Complete routes req to the named (or default) provider, applying the
// circuit breaker and retry policy, and returns usage-annotated output.
func (f *Facade) Complete(ctx context.Context, req entity.CompletionRequest) (entity.CompletionResponse, error) {
	if req.Prompt == "" {
		return entity.CompletionResponse{}, apierr.New(apierr.Validation, apierr.CodeInvalidRequest, "prompt must not be empty")
	}

	name := req.Provider
	if name == "" {
		name = f.defaultProvider
	}
	p, ok := f.registry.Get(name)
	if !ok {
		return entity.CompletionResponse{}, apierr.Newf(apierr.Validation, apierr.CodeUnknownProvider, "unknown provider %q", name)
	}
	if req.Model == "" {
		req.Model = p.DefaultModel
	}

	breaker := f.breakerFor(name)

	var lastErr error
	for attempt := 0; attempt <= f.retry.MaxRetries; attempt++ {
		if !breaker.Allow() {
			return entity.CompletionResponse{}, apierr.New(apierr.CircuitOpen, apierr.CodeCircuitOpen, "provider circuit is open")
		}

		resp, err := p.Complete(ctx, req)
		if err == nil {
			breaker.RecordSuccess()
			resp.Provider = name
			cost := p.Prices.Cost(resp.InputTokens, resp.OutputTokens)
			log.WithFields(log.Fields{
				"provider":      name,
				"model":         resp.Model,
				"input_tokens":  resp.InputTokens,
				"output_tokens": resp.OutputTokens,
				"cost_usd":      cost,
			}).Info("llm completion")
			return resp, nil
		}

		breaker.RecordFailure()
		lastErr = err
		if nonRetryable(err) || attempt == f.retry.MaxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return entity.CompletionResponse{}, ctx.Err()
		case <-time.After(f.retry.delay(attempt)):
		}
	}

	if apiErr, ok := apierr.As(lastErr); ok {
		return entity.CompletionResponse{}, apiErr
	}
	return entity.CompletionResponse{}, apierr.Wrap(apierr.ExternalService, "", errors.New(lastErr.Error()))
}

// CostOf reports the dollar cost a usage figure would incur against name's
// price table, used by handlers attaching usage to a run's output.
func (f *Facade) CostOf(name string, inputTokens, outputTokens int64) float64 {
	p, ok := f.registry.Get(name)
	if !ok {
		return 0
	}
	return p.Prices.Cost(inputTokens, outputTokens)
}
