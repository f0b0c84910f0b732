package action

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/jarvisrun/jarvis/internal/jarvis/pkg/apierr"
	"github.com/jarvisrun/jarvis/internal/jarvis/pkg/metrics"
	"github.com/jarvisrun/jarvis/internal/jarvis/service/browser/session"
)

type fakeSessionBackend struct{}

func (fakeSessionBackend) Launch(context.Context, session.BrowserKind, session.CreateOptions) (session.Handle, session.Handle, error) {
	return "browser", "context", nil
}
func (fakeSessionBackend) CloseContext(context.Context, session.Handle) error { return nil }
func (fakeSessionBackend) CloseBrowser(context.Context, session.Handle) error { return nil }

func (fakeSessionBackend) OpenPage(context.Context, session.Handle) (session.Handle, error) {
	return "page", nil
}
func (fakeSessionBackend) ClosePage(context.Context, session.Handle) error        { return nil }
func (fakeSessionBackend) Goto(context.Context, session.Handle, string) error     { return nil }
func (fakeSessionBackend) Click(context.Context, session.Handle, string) error    { return nil }
func (fakeSessionBackend) Type(context.Context, session.Handle, string, string) error {
	return nil
}
func (fakeSessionBackend) WaitForSelector(context.Context, session.Handle, string) error {
	return nil
}
func (fakeSessionBackend) Select(context.Context, session.Handle, string, string) error {
	return nil
}
func (fakeSessionBackend) Evaluate(context.Context, session.Handle, string) (any, error) {
	return "ok", nil
}
func (fakeSessionBackend) Screenshot(context.Context, session.Handle, bool) ([]byte, error) {
	return []byte("png"), nil
}
func (fakeSessionBackend) PDF(context.Context, session.Handle) ([]byte, error) {
	return []byte("pdf"), nil
}
func (fakeSessionBackend) SetDownloadsBlocked(context.Context, session.Handle, bool) error {
	return nil
}

// capBudget fails ChargeBrowserStep once its cap is reached, like
// agents.Budget but without depending on the agents package from a test in
// the action package.
type capBudget struct {
	cap     int
	charged int
}

func (b *capBudget) ChargeBrowserStep(string) error {
	if b.charged+1 > b.cap {
		return apierr.New(apierr.BudgetExceeded, "", "browser step budget exceeded for this run")
	}
	b.charged++
	return nil
}

func newTestSessions() *session.Manager {
	return session.NewManager(fakeSessionBackend{}, 5, time.Now)
}

func browserActionsCount(op string) float64 {
	return testutil.ToFloat64(metrics.BrowserActionsTotal.WithLabelValues(op))
}

func TestWithPageSkipsMetricOnSessionNotFound(t *testing.T) {
	budget := &capBudget{cap: 10}
	eng := NewEngine(newTestSessions(), fakeSessionBackend{}, budget, Config{})

	before := browserActionsCount("goto")
	err := eng.Goto(context.Background(), "run-1", "missing-session", "https://example.com")
	if err == nil {
		t.Fatal("expected session-not-found error")
	}
	if got := browserActionsCount("goto"); got != before {
		t.Errorf("browser_actions_total incremented on session-not-found: before=%v after=%v", before, got)
	}
}

func TestWithPageSkipsMetricOnBudgetExceeded(t *testing.T) {
	budget := &capBudget{cap: 0}
	sessions := newTestSessions()
	sessionID, err := sessions.Create(context.Background(), session.CreateOptions{BrowserKind: session.Chromium})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	eng := NewEngine(sessions, fakeSessionBackend{}, budget, Config{})

	before := browserActionsCount("click")
	err = eng.Click(context.Background(), "run-1", sessionID, "#submit")
	apiErr, ok := apierr.As(err)
	if !ok || apiErr.Kind != apierr.BudgetExceeded {
		t.Fatalf("expected BudgetExceeded, got %v", err)
	}
	if got := browserActionsCount("click"); got != before {
		t.Errorf("browser_actions_total incremented on budget-exceeded: before=%v after=%v", before, got)
	}
}

func TestWithPageIncrementsMetricOnSuccess(t *testing.T) {
	budget := &capBudget{cap: 10}
	sessions := newTestSessions()
	sessionID, err := sessions.Create(context.Background(), session.CreateOptions{BrowserKind: session.Chromium})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	eng := NewEngine(sessions, fakeSessionBackend{}, budget, Config{})

	before := browserActionsCount("type")
	if err := eng.Type(context.Background(), "run-1", sessionID, "#name", "hello"); err != nil {
		t.Fatalf("Type: %v", err)
	}
	if got := browserActionsCount("type"); got != before+1 {
		t.Errorf("browser_actions_total did not increment on success: before=%v after=%v", before, got)
	}
}

func TestWaitForNegativeTargetMsFailsValidation(t *testing.T) {
	budget := &capBudget{cap: 10}
	sessions := newTestSessions()
	sessionID, err := sessions.Create(context.Background(), session.CreateOptions{BrowserKind: session.Chromium})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	eng := NewEngine(sessions, fakeSessionBackend{}, budget, Config{})

	negative := -1
	before := browserActionsCount("waitFor")
	err = eng.WaitFor(context.Background(), "run-1", sessionID, "", &negative)
	apiErr, ok := apierr.As(err)
	if !ok || apiErr.Kind != apierr.Validation {
		t.Fatalf("expected Validation error for negative targetMs, got %v", err)
	}
	if got := browserActionsCount("waitFor"); got != before {
		t.Errorf("browser_actions_total incremented on validation failure: before=%v after=%v", before, got)
	}
	if budget.charged != 0 {
		t.Errorf("budget charged on validation failure: charged=%d", budget.charged)
	}
}

func TestWaitForZeroTargetMsReturnsImmediately(t *testing.T) {
	budget := &capBudget{cap: 10}
	sessions := newTestSessions()
	sessionID, err := sessions.Create(context.Background(), session.CreateOptions{BrowserKind: session.Chromium})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	eng := NewEngine(sessions, fakeSessionBackend{}, budget, Config{})

	zero := 0
	if err := eng.WaitFor(context.Background(), "run-1", sessionID, "", &zero); err != nil {
		t.Fatalf("WaitFor with targetMs=0: %v", err)
	}
	if budget.charged != 1 {
		t.Errorf("expected WaitFor(targetMs=0) to still charge one browser step, got %d", budget.charged)
	}
}

func TestWaitForNilTargetMsUsesSelector(t *testing.T) {
	budget := &capBudget{cap: 10}
	sessions := newTestSessions()
	sessionID, err := sessions.Create(context.Background(), session.CreateOptions{BrowserKind: session.Chromium})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	eng := NewEngine(sessions, fakeSessionBackend{}, budget, Config{})

	if err := eng.WaitFor(context.Background(), "run-1", sessionID, "#ready", nil); err != nil {
		t.Fatalf("WaitFor with nil targetMs: %v", err)
	}
}

