// Package session implements the bounded pool of headless browser sessions:
// admission control via a weighted semaphore, idle reaping, and the
// exclusive browser/context ownership model.
package session

import "time"

// BrowserKind selects which backend a session launches.
type BrowserKind string

const (
	Chromium BrowserKind = "chromium"
	Firefox  BrowserKind = "firefox"
	WebKit   BrowserKind = "webkit"
)

// Handle is an opaque reference to a live backend resource. The session
// package never inspects it; it is passed straight through to the action
// engine's backend adapter.
type Handle any

// Session exclusively owns a browser and a browsing context. Closing a
// session releases both, context before browser, and returns its semaphore
// permit exactly once.
type Session struct {
	ID          string
	BrowserKind BrowserKind
	CreatedAt   time.Time
	LastUsedAt  time.Time
	Tags        []string

	Browser Handle
	Context Handle

	// closed guards against double-release of the session's semaphore
	// permit; set under the manager's bookkeeping lock.
	closed bool
}

// Idle reports whether the session has been unused for longer than d.
func (s *Session) Idle(now time.Time, d time.Duration) bool {
	return now.Sub(s.LastUsedAt) > d
}
