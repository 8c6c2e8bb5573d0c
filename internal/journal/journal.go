// Package journal keeps a SQLite log of content operations and the last
// seen checksum of every watched document.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS entries (
	id      TEXT PRIMARY KEY,
	op      TEXT NOT NULL,
	target  TEXT NOT NULL DEFAULT '',
	success INTEGER NOT NULL DEFAULT 0,
	kind    TEXT NOT NULL DEFAULT '',
	detail  TEXT NOT NULL DEFAULT '',
	at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_entries_at ON entries(at);

CREATE TABLE IF NOT EXISTS documents (
	path       TEXT PRIMARY KEY,
	checksum   TEXT NOT NULL DEFAULT '',
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// DefaultLimit caps Recent when no positive limit is given.
const DefaultLimit = 100

// Entry is one recorded operation.
type Entry struct {
	ID      string    `json:"id"`
	Op      string    `json:"op"`
	Target  string    `json:"target,omitempty"`
	Success bool      `json:"success"`
	Kind    string    `json:"kind,omitempty"`
	Detail  string    `json:"detail,omitempty"`
	At      time.Time `json:"at"`
}

// DB wraps a sql.DB with journal operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("journal: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("journal: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("journal: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Record appends e. Missing ID and time are filled in.
func (db *DB) Record(ctx context.Context, e Entry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO entries (id, op, target, success, kind, detail, at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.Op, e.Target, e.Success, e.Kind, e.Detail, e.At)
	if err != nil {
		return fmt.Errorf("journal: record: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (db *DB) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, op, target, success, kind, detail, at
		FROM entries
		ORDER BY at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("journal: recent: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Op, &e.Target, &e.Success, &e.Kind, &e.Detail, &e.At); err != nil {
			return nil, fmt.Errorf("journal: scan: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// TrackChecksum stores sum as the latest checksum of path and reports
// whether it differs from the one stored before.
func (db *DB) TrackChecksum(ctx context.Context, path, sum string) (bool, error) {
	var prev string
	err := db.conn.QueryRowContext(ctx, `SELECT checksum FROM documents WHERE path = ?`, path).Scan(&prev)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("journal: checksum lookup: %w", err)
	}
	if err == nil && prev == sum {
		return false, nil
	}
	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO documents (path, checksum, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			checksum   = excluded.checksum,
			updated_at = excluded.updated_at
	`, path, sum, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("journal: checksum store: %w", err)
	}
	return true, nil
}

// ForgetChecksum drops the stored checksum of a removed document.
func (db *DB) ForgetChecksum(ctx context.Context, path string) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM documents WHERE path = ?`, path); err != nil {
		return fmt.Errorf("journal: forget checksum: %w", err)
	}
	return nil
}
