// Package idempotency implements the TTL-scoped replay cache backing the
// Idempotency-Key header: a repeated key within its TTL returns the
// original run instead of starting a new one.
package idempotency

import (
	"sync"
	"time"
)

const keyAllowedChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789-_"

// ValidKey reports whether key contains only alphanumerics, '-', and '_'.
func ValidKey(key string) bool {
	if key == "" {
		return false
	}
	for _, r := range key {
		found := false
		for _, a := range keyAllowedChars {
			if r == a {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

type entry struct {
	runID     string
	expiresAt time.Time
}

// Store is an in-memory, TTL-expiring map from idempotency key to run ID.
// Expired entries are swept lazily rather than on a background timer, since
// the table is expected to stay small: every Put sweeps the whole table, and
// Get drops the looked-up key if it has expired.
type Store struct {
	ttl time.Duration

	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

// New constructs a Store with the given replay TTL.
func New(ttl time.Duration) *Store {
	return &Store{ttl: ttl, entries: make(map[string]entry), now: time.Now}
}

// Get returns the run ID previously stored for key, if any and not expired.
func (s *Store) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return "", false
	}
	if s.now().After(e.expiresAt) {
		delete(s.entries, key)
		return "", false
	}
	return e.runID, true
}

// Put records runID for key, valid for the store's TTL.
func (s *Store) Put(key, runID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry{runID: runID, expiresAt: s.now().Add(s.ttl)}
	for k, e := range s.entries {
		if s.now().After(e.expiresAt) {
			delete(s.entries, k)
		}
	}
}
