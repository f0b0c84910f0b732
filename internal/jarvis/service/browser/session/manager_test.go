package session

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeBackend struct {
	launchErr error
}

func (b *fakeBackend) Launch(ctx context.Context, kind BrowserKind, opts CreateOptions) (Handle, Handle, error) {
	if b.launchErr != nil {
		return nil, nil, b.launchErr
	}
	return "browser-handle", "context-handle", nil
}

func (b *fakeBackend) CloseContext(ctx context.Context, h Handle) error { return nil }
func (b *fakeBackend) CloseBrowser(ctx context.Context, h Handle) error { return nil }

func TestManagerCreateAndClosePermitAccounting(t *testing.T) {
	m := NewManager(&fakeBackend{}, 2, time.Now)
	ctx := context.Background()

	id1, err := m.Create(ctx, CreateOptions{BrowserKind: Chromium})
	if err != nil {
		t.Fatalf("create 1: %v", err)
	}
	id2, err := m.Create(ctx, CreateOptions{BrowserKind: Chromium})
	if err != nil {
		t.Fatalf("create 2: %v", err)
	}

	if got, want := m.ActiveCount()+int(m.PermitsAvailable()), int(m.MaxConcurrent()); got != want {
		t.Fatalf("ActiveCount()+PermitsAvailable() = %d, want %d", got, want)
	}

	if _, err := m.Create(ctx, CreateOptions{BrowserKind: Chromium}); err == nil {
		t.Fatal("expected CapacityExceeded error at capacity")
	}

	if !m.Close(ctx, id1) {
		t.Fatal("close id1 should succeed")
	}
	if !m.Close(ctx, id2) {
		t.Fatal("close id2 should succeed")
	}
	if m.Close(ctx, id1) {
		t.Fatal("double close must return false")
	}

	if got, want := m.ActiveCount()+int(m.PermitsAvailable()), int(m.MaxConcurrent()); got != want {
		t.Fatalf("ActiveCount()+PermitsAvailable() = %d, want %d", got, want)
	}
	if m.PermitsAvailable() != m.MaxConcurrent() {
		t.Fatalf("all permits should be released, got %d want %d", m.PermitsAvailable(), m.MaxConcurrent())
	}
}

func TestManagerCreateReleasesPermitOnLaunchFailure(t *testing.T) {
	m := NewManager(&fakeBackend{launchErr: errors.New("boom")}, 1, time.Now)
	ctx := context.Background()

	if _, err := m.Create(ctx, CreateOptions{BrowserKind: Chromium}); err == nil {
		t.Fatal("expected launch error")
	}
	if m.PermitsAvailable() != m.MaxConcurrent() {
		t.Fatalf("permit must be released on launch failure, available=%d max=%d", m.PermitsAvailable(), m.MaxConcurrent())
	}

	// Pool must be usable again after the failed attempt.
	if _, err := m.Create(ctx, CreateOptions{BrowserKind: Chromium}); err != nil {
		t.Fatalf("create after failure: %v", err)
	}
}

func TestManagerCloseIdle(t *testing.T) {
	m := NewManager(&fakeBackend{}, 2, time.Now)
	ctx := context.Background()

	id, err := m.Create(ctx, CreateOptions{BrowserKind: Chromium})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	m.mu.Lock()
	m.sessions[id].LastUsedAt = time.Now().Add(-time.Hour)
	m.mu.Unlock()

	n := m.CloseIdle(ctx, time.Minute)
	if n != 1 {
		t.Fatalf("CloseIdle closed %d, want 1", n)
	}
	if m.ActiveCount() != 0 {
		t.Fatalf("ActiveCount() = %d, want 0", m.ActiveCount())
	}
}

func TestManagerGetTouchesLastUsed(t *testing.T) {
	m := NewManager(&fakeBackend{}, 1, time.Now)
	ctx := context.Background()
	id, err := m.Create(ctx, CreateOptions{BrowserKind: Chromium})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	m.mu.Lock()
	m.sessions[id].LastUsedAt = time.Now().Add(-time.Hour)
	m.mu.Unlock()

	s, ok := m.Get(id)
	if !ok {
		t.Fatal("expected session to exist")
	}
	if time.Since(s.LastUsedAt) > time.Second {
		t.Fatal("Get should touch lastUsedAt")
	}

	if _, ok := m.Get("missing"); ok {
		t.Fatal("Get(missing) should report absent")
	}
}
