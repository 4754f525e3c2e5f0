// Package history persists resolution outcomes to a local SQLite database
// so the pantry UI can show what was scanned and how lookups fared.
package history

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"

	"github.com/pantrypal/backend/internal/domain"
)

// Store is a SQLite-backed history of resolution attempts.
type Store struct {
	db *sql.DB
}

// Open opens (and if needed creates) the history database at path.
func Open(path string) (*Store, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS resolutions (
  id         INTEGER PRIMARY KEY,
  barcode    TEXT NOT NULL,
  outcome    TEXT NOT NULL CHECK (outcome IN ('found','not_found','error')),
  name       TEXT NOT NULL,
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_resolutions_time ON resolutions(created_at);
CREATE INDEX IF NOT EXISTS idx_resolutions_barcode ON resolutions(barcode);
	`); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record appends one resolution entry.
func (s *Store) Record(ctx context.Context, entry domain.ResolutionEntry) error {
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO resolutions (barcode, outcome, name, created_at) VALUES (?, ?, ?, ?)`,
		entry.Barcode, string(entry.Outcome), entry.Name, createdAt.UTC(),
	)
	return err
}

// Recent returns the most recent entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]domain.ResolutionEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, barcode, outcome, name, created_at
		 FROM resolutions ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.ResolutionEntry
	for rows.Next() {
		var e domain.ResolutionEntry
		var outcome string
		if err := rows.Scan(&e.ID, &e.Barcode, &outcome, &e.Name, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Outcome = domain.LookupOutcome(outcome)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
