package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *AuditStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audit.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAuditStoreAppendAndList(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := s.Append(ctx, AuditEntry{
			RunID: "run-1", NodeID: "node-1", Event: "run_started", Detail: "{}", CreatedAt: time.Now(),
		}); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	if err := s.Append(ctx, AuditEntry{RunID: "run-2", NodeID: "node-2", Event: "run_started", Detail: "{}", CreatedAt: time.Now()}); err != nil {
		t.Fatalf("Append other run: %v", err)
	}

	entries, next, err := s.ListByRun(ctx, "run-1", "", 50)
	if err != nil {
		t.Fatalf("ListByRun: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries for run-1, got %d", len(entries))
	}
	if next != "" {
		t.Errorf("expected exhausted cursor, got %q", next)
	}
}

func TestAuditStoreListByRunPagination(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := s.Append(ctx, AuditEntry{RunID: "run-1", NodeID: "node-1", Event: "e", Detail: "{}", CreatedAt: time.Now()}); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	page1, cursor1, err := s.ListByRun(ctx, "run-1", "", 2)
	if err != nil {
		t.Fatalf("page1: %v", err)
	}
	if len(page1) != 2 || cursor1 == "" {
		t.Fatalf("expected a 2-entry page with a continuation cursor, got %d entries, cursor %q", len(page1), cursor1)
	}

	page2, cursor2, err := s.ListByRun(ctx, "run-1", cursor1, 2)
	if err != nil {
		t.Fatalf("page2: %v", err)
	}
	if len(page2) != 2 || cursor2 == "" {
		t.Fatalf("expected a second 2-entry page, got %d entries, cursor %q", len(page2), cursor2)
	}

	page3, cursor3, err := s.ListByRun(ctx, "run-1", cursor2, 2)
	if err != nil {
		t.Fatalf("page3: %v", err)
	}
	if len(page3) != 1 || cursor3 != "" {
		t.Fatalf("expected final 1-entry page with exhausted cursor, got %d entries, cursor %q", len(page3), cursor3)
	}
}

func TestAuditStoreListByRunInvalidCursor(t *testing.T) {
	s := openTestStore(t)
	if _, _, err := s.ListByRun(context.Background(), "run-1", "not-base64-!!!", 10); err == nil {
		t.Error("expected an error for a malformed cursor")
	}
}
