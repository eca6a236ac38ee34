// Package sqlite persists baskets as named slots in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/couchcryptid/flood-report-basket/internal/domain"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS storage_slots (
	name       TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);`

// Open opens (creating if needed) the database at path and ensures the schema.
// Use ":memory:" for a throwaway database.
func Open(path string) (*sql.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps ":memory:" databases alive and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return db, nil
}

// Slot is one named row in storage_slots. It implements basket.Storage.
type Slot struct {
	db   *sql.DB
	name string
}

// NewSlot returns the slot with the given name.
func NewSlot(db *sql.DB, name string) *Slot {
	return &Slot{db: db, name: name}
}

// Load reads the slot. A missing row is an empty basket.
func (s *Slot) Load(ctx context.Context) ([]domain.AnalysisRecord, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM storage_slots WHERE name = ?", s.name,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read slot %q: %w", s.name, err)
	}
	return domain.UnmarshalRecords([]byte(value))
}

// Save upserts the slot contents.
func (s *Slot) Save(ctx context.Context, records []domain.AnalysisRecord) error {
	data, err := domain.MarshalRecords(records)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO storage_slots (name, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		s.name, string(data),
	)
	if err != nil {
		return fmt.Errorf("failed to write slot %q: %w", s.name, err)
	}
	return nil
}
