// Package sqlite is the relational audit-log adapter: each run lifecycle
// event (run start, completion, failure) is appended as an immutable row,
// indexed by (run_id, created_at) for cursor-paged retrieval.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// AuditEntry is one immutable row in the audit log.
type AuditEntry struct {
	ID        int64
	RunID     string
	NodeID    string
	Event     string
	Detail    string
	CreatedAt time.Time
}

// AuditStore is a SQLite-backed append-only audit log.
type AuditStore struct {
	db *sql.DB
}

// Open opens (creating if needed) the SQLite database at path and ensures
// the audit_log table and its (run_id, created_at) index exist.
func Open(path string) (*AuditStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1) // go-sqlite3 serializes writers; avoid pool contention.

	const schema = `
CREATE TABLE IF NOT EXISTS audit_log (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL,
	node_id TEXT NOT NULL,
	event TEXT NOT NULL,
	detail TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_audit_log_run_created ON audit_log (run_id, created_at);
`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &AuditStore{db: db}, nil
}

// Close closes the underlying database handle.
func (s *AuditStore) Close() error { return s.db.Close() }

// Append writes one audit entry.
func (s *AuditStore) Append(ctx context.Context, e AuditEntry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_log (run_id, node_id, event, detail, created_at) VALUES (?, ?, ?, ?, ?)`,
		e.RunID, e.NodeID, e.Event, e.Detail, e.CreatedAt.UnixNano())
	return err
}

// cursor encodes the last seen primary key as an opaque base64 string.
func encodeCursor(lastID int64) string {
	return base64.URLEncoding.EncodeToString([]byte(strconv.FormatInt(lastID, 10)))
}

func decodeCursor(cursor string) (int64, error) {
	if cursor == "" {
		return 0, nil
	}
	raw, err := base64.URLEncoding.DecodeString(cursor)
	if err != nil {
		return 0, fmt.Errorf("invalid cursor: %w", err)
	}
	id, err := strconv.ParseInt(strings.TrimSpace(string(raw)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid cursor: %w", err)
	}
	return id, nil
}

// ListByRun returns up to pageSize entries for runID with id > the cursor's
// decoded primary key, ordered by (run_id, created_at), plus the cursor for
// the next page (empty when exhausted).
func (s *AuditStore) ListByRun(ctx context.Context, runID, cursor string, pageSize int) ([]AuditEntry, string, error) {
	afterID, err := decodeCursor(cursor)
	if err != nil {
		return nil, "", err
	}
	if pageSize <= 0 {
		pageSize = 50
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, node_id, event, detail, created_at FROM audit_log
		 WHERE run_id = ? AND id > ? ORDER BY created_at ASC, id ASC LIMIT ?`,
		runID, afterID, pageSize)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()

	var entries []AuditEntry
	var lastID int64
	for rows.Next() {
		var e AuditEntry
		var createdAtNanos int64
		if err := rows.Scan(&e.ID, &e.RunID, &e.NodeID, &e.Event, &e.Detail, &createdAtNanos); err != nil {
			return nil, "", err
		}
		e.CreatedAt = time.Unix(0, createdAtNanos)
		entries = append(entries, e)
		lastID = e.ID
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(entries) == pageSize {
		nextCursor = encodeCursor(lastID)
	}
	return entries, nextCursor, nil
}
