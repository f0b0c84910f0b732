package session

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/jarvisrun/jarvis/internal/jarvis/pkg/apierr"
	"github.com/jarvisrun/jarvis/internal/jarvis/pkg/idgen"
	"github.com/jarvisrun/jarvis/internal/jarvis/pkg/log"
	"github.com/jarvisrun/jarvis/internal/jarvis/pkg/metrics"
)

// Backend launches and tears down the opaque browser/context handles a
// Session wraps. Swappable so the manager never imports a concrete
// automation driver directly.
type Backend interface {
	Launch(ctx context.Context, kind BrowserKind, opts CreateOptions) (browser Handle, browserCtx Handle, err error)
	CloseContext(ctx context.Context, h Handle) error
	CloseBrowser(ctx context.Context, h Handle) error
}

// CreateOptions parametrizes Manager.Create.
type CreateOptions struct {
	BrowserKind BrowserKind
	UserAgent   string
	Proxy       string
}

// Manager owns the live session set and the semaphore gating how many may
// exist concurrently. Create/Close are serialized on the semaphore; Get/Touch
// are safe to call concurrently with everything else.
type Manager struct {
	backend Backend
	sem     *semaphore.Weighted
	max     int64

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager constructs a Manager with a semaphore of the given capacity.
func NewManager(backend Backend, maxConcurrent int64, clock func() time.Time) *Manager {
	return &Manager{
		backend:  backend,
		sem:      semaphore.NewWeighted(maxConcurrent),
		max:      maxConcurrent,
		sessions: make(map[string]*Session),
	}
}

// Create acquires a permit, launches a browser/context pair, and registers
// the session. The permit is returned on every failure path.
func (m *Manager) Create(ctx context.Context, opts CreateOptions) (string, error) {
	if !m.sem.TryAcquire(1) {
		return "", apierr.New(apierr.RateLimit, apierr.CodeCapacityExceeded, "session pool at capacity")
	}

	browser, browserCtx, err := m.backend.Launch(ctx, opts.BrowserKind, opts)
	if err != nil {
		m.sem.Release(1)
		return "", apierr.Wrap(apierr.ExternalService, apierr.CodeLaunchFailed, err)
	}

	id := idgen.New("sess")
	now := time.Now()
	s := &Session{
		ID:          id,
		BrowserKind: opts.BrowserKind,
		CreatedAt:   now,
		LastUsedAt:  now,
		Tags:        []string{},
		Browser:     browser,
		Context:     browserCtx,
	}

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	metrics.BrowserSessionsCreatedTotal.Inc()
	metrics.BrowserSessionsActive.Inc()

	return id, nil
}

// Get returns the session and touches lastUsedAt on hit.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	s.LastUsedAt = time.Now()
	return s, true
}

// Touch refreshes lastUsedAt without returning the session.
func (m *Manager) Touch(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return false
	}
	s.LastUsedAt = time.Now()
	return true
}

// Close closes context then browser, removes the entry regardless of
// close errors, and releases exactly one permit.
func (m *Manager) Close(ctx context.Context, id string) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()
	if !ok {
		return false
	}
	m.closeSession(ctx, s)
	return true
}

func (m *Manager) closeSession(ctx context.Context, s *Session) {
	m.mu.Lock()
	alreadyClosed := s.closed
	s.closed = true
	m.mu.Unlock()
	if alreadyClosed {
		return
	}
	if err := m.backend.CloseContext(ctx, s.Context); err != nil {
		log.Warn("session %s: close context: %v", s.ID, err)
	}
	if err := m.backend.CloseBrowser(ctx, s.Browser); err != nil {
		log.Warn("session %s: close browser: %v", s.ID, err)
	}
	m.sem.Release(1)
	metrics.BrowserSessionsActive.Dec()
}

// List returns a metadata-only snapshot of all live sessions.
func (m *Manager) List() []Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, Session{
			ID:          s.ID,
			BrowserKind: s.BrowserKind,
			CreatedAt:   s.CreatedAt,
			LastUsedAt:  s.LastUsedAt,
			Tags:        s.Tags,
		})
	}
	return out
}

// CloseIdle selects idle sessions at a single scan instant, then closes them
// sequentially. A session touched between selection and close is still
// closed: idle reaping is approximate, not strict.
func (m *Manager) CloseIdle(ctx context.Context, maxIdle time.Duration) int {
	now := time.Now()
	m.mu.RLock()
	var victims []*Session
	for _, s := range m.sessions {
		if s.Idle(now, maxIdle) {
			victims = append(victims, s)
		}
	}
	m.mu.RUnlock()

	closed := 0
	for _, s := range victims {
		if m.Close(ctx, s.ID) {
			closed++
		}
	}
	return closed
}

// CloseAll closes every session and resets the semaphore to full capacity.
// Idempotent.
func (m *Manager) CloseAll(ctx context.Context) {
	m.mu.Lock()
	all := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		all = append(all, s)
	}
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range all {
		m.closeSession(ctx, s)
	}
}

func (m *Manager) ActiveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Manager) MaxConcurrent() int64 { return m.max }

// PermitsAvailable reports remaining capacity without blocking: acquire a
// weight equal to the full capacity opportunistically isn't safe here since
// that would itself consume permits, so this is tracked via ActiveCount.
func (m *Manager) PermitsAvailable() int64 {
	return m.max - int64(m.ActiveCount())
}
