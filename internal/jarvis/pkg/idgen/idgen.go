// Package idgen produces lexicographically sortable, time-ordered, globally
// unique identifiers for runs, nodes, and sessions using ULID.
package idgen

import (
	"crypto/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	mu      sync.Mutex
	entropy = ulid.Monotonic(rand.Reader, 0)
)

// New returns a fresh ULID string. With a non-empty prefix (e.g. "run") the
// result is prefix + "_" + the lowercased ULID, so each entity kind reads
// distinctly in logs; with an empty prefix it is the canonical uppercase ULID.
func New(prefix string) string {
	mu.Lock()
	id := ulid.MustNew(ulid.Timestamp(time.Now()), entropy)
	mu.Unlock()
	if prefix == "" {
		return id.String()
	}
	return prefix + "_" + strings.ToLower(id.String())
}

// Time extracts the creation timestamp encoded in a previously generated ID.
// Returns the zero Time if id does not carry a valid ULID suffix.
func Time(id string) time.Time {
	parts := strings.SplitN(id, "_", 2)
	raw := parts[len(parts)-1]
	parsed, err := ulid.ParseStrict(strings.ToUpper(raw))
	if err != nil {
		return time.Time{}
	}
	return ulid.Time(parsed.Time())
}
