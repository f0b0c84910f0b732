package action

import (
	"context"
	"time"

	"github.com/jarvisrun/jarvis/internal/jarvis/pkg/apierr"
	"github.com/jarvisrun/jarvis/internal/jarvis/pkg/metrics"
	"github.com/jarvisrun/jarvis/internal/jarvis/service/browser/session"
)

// Backend performs the actual browser-driver work behind each operation.
// The engine never holds a backend connection itself: it opens a page,
// asks the backend to act on it, and always closes the page afterward.
type Backend interface {
	OpenPage(ctx context.Context, browserCtx session.Handle) (page session.Handle, err error)
	ClosePage(ctx context.Context, page session.Handle) error

	Goto(ctx context.Context, page session.Handle, url string) error
	Click(ctx context.Context, page session.Handle, selector string) error
	Type(ctx context.Context, page session.Handle, selector, text string) error
	WaitForSelector(ctx context.Context, page session.Handle, selector string) error
	Select(ctx context.Context, page session.Handle, selector, value string) error
	Evaluate(ctx context.Context, page session.Handle, script string) (any, error)
	Screenshot(ctx context.Context, page session.Handle, fullPage bool) ([]byte, error)
	PDF(ctx context.Context, page session.Handle) ([]byte, error)
	SetDownloadsBlocked(ctx context.Context, page session.Handle, blocked bool) error
}

// BudgetTracker charges browser steps against a run's per-run budget.
type BudgetTracker interface {
	// ChargeBrowserStep increments the run's browser-step counter by one,
	// failing BudgetExceeded if that would exceed the configured maximum.
	ChargeBrowserStep(runID string) error
}

// Config holds the engine's global policy toggles.
type Config struct {
	URLPolicy              URLPolicy
	AllowEvaluate          bool
	AllowDownloads         bool
	MaxNavigationTimeoutMs int
}

func (c Config) navTimeout() time.Duration {
	ms := c.MaxNavigationTimeoutMs
	if ms <= 0 {
		ms = 30_000
	}
	return time.Duration(ms) * time.Millisecond
}

// Engine executes one action per call against a session borrowed from the
// session manager.
type Engine struct {
	sessions *session.Manager
	backend  Backend
	budget   BudgetTracker
	cfg      Config
}

// NewEngine constructs an Engine.
func NewEngine(sessions *session.Manager, backend Backend, budget BudgetTracker, cfg Config) *Engine {
	return &Engine{sessions: sessions, backend: backend, budget: budget, cfg: cfg}
}

// withPage looks up the session, opens a fresh page, runs fn under the
// engine's navigation timeout, and closes the page regardless of outcome.
func (e *Engine) withPage(ctx context.Context, runID, sessionID, op string, fn func(ctx context.Context, page session.Handle) (any, error)) (any, error) {
	sess, ok := e.sessions.Get(sessionID)
	if !ok {
		return nil, apierr.New(apierr.NotFound, apierr.CodeSessionNotFound, "session not found")
	}

	if err := e.budget.ChargeBrowserStep(runID); err != nil {
		return nil, err
	}
	metrics.BrowserActionsTotal.WithLabelValues(op).Inc()

	page, err := e.backend.OpenPage(ctx, sess.Context)
	if err != nil {
		return nil, apierr.Wrap(apierr.ExternalService, "", err)
	}
	defer func() { _ = e.backend.ClosePage(ctx, page) }()

	if !e.cfg.AllowDownloads {
		_ = e.backend.SetDownloadsBlocked(ctx, page, true)
	}

	opCtx, cancel := context.WithTimeout(ctx, e.cfg.navTimeout())
	defer cancel()

	return fn(opCtx, page)
}

// Goto navigates to url, which must pass the URL safety policy.
func (e *Engine) Goto(ctx context.Context, runID, sessionID, rawURL string) error {
	sanitized, err := e.cfg.URLPolicy.Check(rawURL)
	if err != nil {
		return err
	}
	_, err = e.withPage(ctx, runID, sessionID, "goto", func(ctx context.Context, page session.Handle) (any, error) {
		return nil, e.backend.Goto(ctx, page, sanitized)
	})
	return err
}

// Click clicks the first element matching selector.
func (e *Engine) Click(ctx context.Context, runID, sessionID, selector string) error {
	_, err := e.withPage(ctx, runID, sessionID, "click", func(ctx context.Context, page session.Handle) (any, error) {
		if err := e.backend.Click(ctx, page, selector); err != nil {
			return nil, apierr.Wrap(apierr.ExternalService, apierr.CodeElementNotFound, err)
		}
		return nil, nil
	})
	return err
}

// Type fills selector's value with text (does not append).
func (e *Engine) Type(ctx context.Context, runID, sessionID, selector, text string) error {
	_, err := e.withPage(ctx, runID, sessionID, "type", func(ctx context.Context, page session.Handle) (any, error) {
		return nil, e.backend.Type(ctx, page, selector, text)
	})
	return err
}

// WaitFor waits for target's visibility if it names a selector, or sleeps
// for *targetMs milliseconds (capped to the navigation timeout) if targetMs
// is non-nil. targetMs == 0 returns immediately; a negative targetMs fails
// validation before any session or budget is touched. targetMs == nil means
// the caller named a selector instead of a millisecond wait.
func (e *Engine) WaitFor(ctx context.Context, runID, sessionID string, target string, targetMs *int) error {
	if targetMs != nil && *targetMs < 0 {
		return apierr.Newf(apierr.Validation, apierr.CodeInvalidRequest, "targetMs must not be negative, got %d", *targetMs)
	}
	_, err := e.withPage(ctx, runID, sessionID, "waitFor", func(ctx context.Context, page session.Handle) (any, error) {
		if targetMs != nil {
			if *targetMs == 0 {
				return nil, nil
			}
			d := time.Duration(*targetMs) * time.Millisecond
			if cap := e.cfg.navTimeout(); d > cap {
				d = cap
			}
			timer := time.NewTimer(d)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-timer.C:
				return nil, nil
			}
		}
		return nil, e.backend.WaitForSelector(ctx, page, target)
	})
	return err
}

// Select chooses an option by value.
func (e *Engine) Select(ctx context.Context, runID, sessionID, selector, value string) error {
	_, err := e.withPage(ctx, runID, sessionID, "select", func(ctx context.Context, page session.Handle) (any, error) {
		return nil, e.backend.Select(ctx, page, selector, value)
	})
	return err
}

// Evaluate runs script and returns its result, subject to the evaluate
// enable flag and the script safety policy.
func (e *Engine) Evaluate(ctx context.Context, runID, sessionID, script string) (any, error) {
	if !e.cfg.AllowEvaluate {
		return nil, apierr.New(apierr.PolicyViolation, apierr.CodeEvaluationDisabled, "evaluate is disabled")
	}
	if err := CheckScript(script); err != nil {
		return nil, err
	}
	return e.withPage(ctx, runID, sessionID, "evaluate", func(ctx context.Context, page session.Handle) (any, error) {
		return e.backend.Evaluate(ctx, page, script)
	})
}

// Screenshot captures the current page as PNG bytes.
func (e *Engine) Screenshot(ctx context.Context, runID, sessionID string, fullPage bool) ([]byte, error) {
	out, err := e.withPage(ctx, runID, sessionID, "screenshot", func(ctx context.Context, page session.Handle) (any, error) {
		return e.backend.Screenshot(ctx, page, fullPage)
	})
	if err != nil {
		return nil, err
	}
	return out.([]byte), nil
}

// PDF renders the current page to PDF bytes; only Chromium sessions support
// this.
func (e *Engine) PDF(ctx context.Context, runID, sessionID string) ([]byte, error) {
	sess, ok := e.sessions.Get(sessionID)
	if !ok {
		return nil, apierr.New(apierr.NotFound, apierr.CodeSessionNotFound, "session not found")
	}
	if sess.BrowserKind != session.Chromium {
		return nil, apierr.New(apierr.Validation, apierr.CodeUnsupportedBrowser, "pdf is only supported on chromium sessions")
	}
	out, err := e.withPage(ctx, runID, sessionID, "pdf", func(ctx context.Context, page session.Handle) (any, error) {
		return e.backend.PDF(ctx, page)
	})
	if err != nil {
		return nil, err
	}
	return out.([]byte), nil
}
