// Package driver provides the stub browser backend wired by default: it
// satisfies session.Backend and action.Backend without shelling out to a
// real browser, the same role the mock LLM provider plays for the facade.
// A production deployment swaps this for a real driver behind the same two
// interfaces; nothing else in the service depends on the concrete type.
package driver

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/jarvisrun/jarvis/internal/jarvis/service/browser/session"
)

// Stub is a deterministic, in-process fake of a browser driver. Every page
// "navigates" instantly and evaluate() returns a canned string describing
// the call, enough to exercise the full action pipeline in tests and local
// development without a real browser installed.
type Stub struct {
	handles atomic.Int64
}

// New constructs a Stub backend.
func New() *Stub { return &Stub{} }

type stubHandle struct {
	id  int64
	url string
}

func (s *Stub) next() int64 { return s.handles.Add(1) }

// Launch implements session.Backend.
func (s *Stub) Launch(_ context.Context, kind session.BrowserKind, opts session.CreateOptions) (session.Handle, session.Handle, error) {
	id := s.next()
	browser := &stubHandle{id: id}
	ctx := &stubHandle{id: id}
	return browser, ctx, nil
}

// CloseContext implements session.Backend.
func (s *Stub) CloseContext(context.Context, session.Handle) error { return nil }

// CloseBrowser implements session.Backend.
func (s *Stub) CloseBrowser(context.Context, session.Handle) error { return nil }

// OpenPage implements action.Backend.
func (s *Stub) OpenPage(_ context.Context, browserCtx session.Handle) (session.Handle, error) {
	return &stubHandle{id: s.next()}, nil
}

// ClosePage implements action.Backend.
func (s *Stub) ClosePage(context.Context, session.Handle) error { return nil }

// Goto implements action.Backend.
func (s *Stub) Goto(_ context.Context, page session.Handle, url string) error {
	if p, ok := page.(*stubHandle); ok {
		p.url = url
	}
	return nil
}

// Click implements action.Backend.
func (s *Stub) Click(context.Context, session.Handle, string) error { return nil }

// Type implements action.Backend.
func (s *Stub) Type(context.Context, session.Handle, string, string) error { return nil }

// WaitForSelector implements action.Backend.
func (s *Stub) WaitForSelector(context.Context, session.Handle, string) error { return nil }

// Select implements action.Backend.
func (s *Stub) Select(context.Context, session.Handle, string, string) error { return nil }

// Evaluate implements action.Backend.
func (s *Stub) Evaluate(_ context.Context, page session.Handle, script string) (any, error) {
	url := ""
	if p, ok := page.(*stubHandle); ok {
		url = p.url
	}
	return fmt.Sprintf("stub result for %q on %s", script, url), nil
}

// Screenshot implements action.Backend.
func (s *Stub) Screenshot(context.Context, session.Handle, bool) ([]byte, error) {
	return []byte("stub-png"), nil
}

// PDF implements action.Backend.
func (s *Stub) PDF(context.Context, session.Handle) ([]byte, error) {
	return []byte("stub-pdf"), nil
}

// SetDownloadsBlocked implements action.Backend.
func (s *Stub) SetDownloadsBlocked(context.Context, session.Handle, bool) error { return nil }
