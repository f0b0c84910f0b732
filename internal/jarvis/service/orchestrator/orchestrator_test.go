package orchestrator

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jarvisrun/jarvis/internal/jarvis/pkg/apierr"
	"github.com/jarvisrun/jarvis/internal/jarvis/service/agents"
	"github.com/jarvisrun/jarvis/internal/jarvis/service/agents/entity"
	"github.com/jarvisrun/jarvis/internal/jarvis/store/inmemory"
)

type fakeHandler struct {
	kind  entity.AgentKind
	delay time.Duration
	err   error
}

func (h fakeHandler) Kind() entity.AgentKind { return h.kind }

func (h fakeHandler) Execute(ctx context.Context, run *entity.Run) (*entity.RunOutput, error) {
	if h.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(h.delay):
		}
	}
	if h.err != nil {
		return nil, h.err
	}
	return &entity.RunOutput{Text: "ok"}, nil
}

func newTestOrchestrator(handlers ...agents.Handler) *Orchestrator {
	return New(Config{
		MaxLLMCallsPerRun:     10,
		MaxBrowserStepsPerRun: 10,
		AgentNodeTimeout:      50 * time.Millisecond,
		AgentRunTimeout:       time.Second,
	}, inmemory.NewRunStore(), inmemory.NewNodeStore(), nil, nil, handlers)
}

func TestOrchestratorStartRunSuccess(t *testing.T) {
	o := newTestOrchestrator(fakeHandler{kind: entity.KindEcho})
	run, err := o.StartRun(context.Background(), "user-1", entity.RunInput{
		Prompt:  "hello",
		Options: entity.RunOptions{AgentKind: entity.KindEcho},
	})
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	if run.Status != entity.RunCompleted {
		t.Fatalf("status = %s, want completed", run.Status)
	}
}

func TestOrchestratorStartRunTimeout(t *testing.T) {
	o := newTestOrchestrator(fakeHandler{kind: entity.KindEcho, delay: 200 * time.Millisecond})
	run, err := o.StartRun(context.Background(), "user-1", entity.RunInput{
		Options: entity.RunOptions{AgentKind: entity.KindEcho},
	})
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	if run.Status != entity.RunTimeout {
		t.Fatalf("status = %s, want timeout", run.Status)
	}
	if run.Error == nil || run.Error.Code != string(apierr.CodeExecutionTimeout) {
		t.Fatalf("error = %+v, want ExecutionTimeout", run.Error)
	}
}

func TestOrchestratorRBAC(t *testing.T) {
	o := newTestOrchestrator(fakeHandler{kind: entity.KindEcho})
	run, err := o.StartRun(context.Background(), "owner", entity.RunInput{
		Options: entity.RunOptions{AgentKind: entity.KindEcho},
	})
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}

	if _, err := o.GetRun(context.Background(), run.ID, "owner"); err != nil {
		t.Fatalf("owner GetRun: %v", err)
	}

	_, err = o.GetRun(context.Background(), run.ID, "someone-else")
	apiErr, ok := apierr.As(err)
	if !ok || apiErr.Code != apierr.CodeAccessDenied {
		t.Fatalf("expected AccessDenied for non-owner, got %v", err)
	}
}

func TestSelectAgentKindBrowserKeyword(t *testing.T) {
	o := newTestOrchestrator(fakeHandler{kind: entity.KindGen}, fakeHandler{kind: entity.KindBrowser})
	kind := o.SelectAgentKind("", entity.RunInput{Prompt: "please open https://example.com"})
	if kind != entity.KindBrowser {
		t.Fatalf("SelectAgentKind = %s, want BROWSER", kind)
	}
}

func TestSelectAgentKindDefaultsToGen(t *testing.T) {
	o := newTestOrchestrator(fakeHandler{kind: entity.KindGen})
	kind := o.SelectAgentKind("", entity.RunInput{Prompt: "summarize this paragraph"})
	if kind != entity.KindGen {
		t.Fatalf("SelectAgentKind = %s, want GEN", kind)
	}
}

func TestRegisterHandlerAfterConstruction(t *testing.T) {
	o := newTestOrchestrator()
	o.RegisterHandler(fakeHandler{kind: entity.KindEcho})

	run, err := o.StartRun(context.Background(), "owner", entity.RunInput{
		Prompt:  "hi",
		Options: entity.RunOptions{AgentKind: entity.KindEcho},
	})
	if err != nil {
		t.Fatalf("StartRun after RegisterHandler: %v", err)
	}
	if run.Status != entity.RunCompleted {
		t.Fatalf("run status = %s, want completed", run.Status)
	}
}

type fakeAuditLog struct {
	mu      sync.Mutex
	entries []AuditEntry
}

func (f *fakeAuditLog) Append(_ context.Context, e AuditEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, e)
	return nil
}

func (f *fakeAuditLog) snapshot() []AuditEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]AuditEntry(nil), f.entries...)
}

func TestExecuteLogsAuditEntriesAndRedactsSecrets(t *testing.T) {
	audit := &fakeAuditLog{}
	o := New(Config{
		MaxLLMCallsPerRun:     10,
		MaxBrowserStepsPerRun: 10,
		AgentNodeTimeout:      50 * time.Millisecond,
		AgentRunTimeout:       time.Second,
	}, inmemory.NewRunStore(), inmemory.NewNodeStore(), nil, audit, []agents.Handler{fakeHandler{kind: entity.KindEcho}})

	_, err := o.StartRun(context.Background(), "owner", entity.RunInput{
		Prompt:  "hi",
		Data:    map[string]any{"apiKey": "sk-super-secret"},
		Options: entity.RunOptions{AgentKind: entity.KindEcho},
	})
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}

	entries := audit.snapshot()
	if len(entries) < 2 {
		t.Fatalf("expected at least run_started and run_completed entries, got %d", len(entries))
	}
	if entries[0].Event != "run_started" {
		t.Fatalf("first event = %s, want run_started", entries[0].Event)
	}
	if strings.Contains(entries[0].Detail, "sk-super-secret") {
		t.Errorf("secret leaked into audit detail: %s", entries[0].Detail)
	}
	if !strings.Contains(entries[0].Detail, "REDACTED") {
		t.Errorf("expected redaction marker in audit detail: %s", entries[0].Detail)
	}
}
