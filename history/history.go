// Package history keeps a local record of applied and proposed corrections.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// DefaultLimit is the number of entries kept when none is configured.
const DefaultLimit = 100

// Entry is one correction.
type Entry struct {
	ID         string    `json:"id"`
	Mode       string    `json:"mode"`
	Before     string    `json:"before"`
	After      string    `json:"after"`
	Confidence float64   `json:"confidence"`
	CreatedAt  time.Time `json:"date"`
}

// Store is a SQLite-backed history, newest entry first.
type Store struct {
	db    *sql.DB
	limit int
}

// Open opens or creates the database at path. Entries beyond limit are
// pruned on every Add; limit <= 0 keeps everything.
func Open(path string, limit int) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating history dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("pragma %s: %w", p, err)
		}
	}

	schema := `
	CREATE TABLE IF NOT EXISTS entries (
		id TEXT PRIMARY KEY,
		mode TEXT NOT NULL,
		before_text TEXT NOT NULL,
		after_text TEXT NOT NULL,
		confidence REAL DEFAULT 0,
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_entries_created ON entries(created_at DESC);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("schema: %w", err)
	}

	return &Store{db: db, limit: limit}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Add records e, filling in ID and CreatedAt when empty, and prunes old
// entries.
func (s *Store) Add(ctx context.Context, e Entry) (Entry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return e, err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO entries (id, mode, before_text, after_text, confidence, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.Mode, e.Before, e.After, e.Confidence, e.CreatedAt.UnixMilli())
	if err != nil {
		return e, fmt.Errorf("inserting entry: %w", err)
	}

	if s.limit > 0 {
		_, err = tx.ExecContext(ctx, `
			DELETE FROM entries WHERE id NOT IN (
				SELECT id FROM entries ORDER BY created_at DESC, rowid DESC LIMIT ?
			)`, s.limit)
		if err != nil {
			return e, fmt.Errorf("pruning history: %w", err)
		}
	}

	return e, tx.Commit()
}

// List returns up to limit entries, newest first. limit <= 0 returns all.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	query := `SELECT id, mode, before_text, after_text, confidence, created_at
		FROM entries ORDER BY created_at DESC, rowid DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var created int64
		if err := rows.Scan(&e.ID, &e.Mode, &e.Before, &e.After, &e.Confidence, &created); err != nil {
			return nil, err
		}
		e.CreatedAt = time.UnixMilli(created)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Count returns the number of stored entries.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM entries").Scan(&n)
	return n, err
}

// Clear removes every entry.
func (s *Store) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM entries")
	return err
}

// Export writes all entries to w as a JSON array.
func (s *Store) Export(ctx context.Context, w io.Writer) error {
	entries, err := s.List(ctx, 0)
	if err != nil {
		return err
	}
	if entries == nil {
		entries = []Entry{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}
