// Package filestore persists a basket as a JSON document in a single file.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/couchcryptid/flood-report-basket/internal/domain"
)

// Slot is a named storage slot backed by <dir>/<name>.json.
// It implements basket.Storage.
type Slot struct {
	path string
}

// New returns the slot for name under dir. The directory is created on first save.
func New(dir, name string) *Slot {
	return &Slot{path: filepath.Join(dir, name+".json")}
}

// Path returns the file backing the slot.
func (s *Slot) Path() string {
	return s.path
}

// Load reads the slot. A missing file is an empty basket.
func (s *Slot) Load(_ context.Context) ([]domain.AnalysisRecord, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read slot %s: %w", s.path, err)
	}
	return domain.UnmarshalRecords(data)
}

// Save replaces the slot contents. The write goes to a temporary file in the
// same directory which is then renamed over the slot, so readers never see a
// partial document.
func (s *Slot) Save(_ context.Context, records []domain.AnalysisRecord) error {
	data, err := domain.MarshalRecords(records)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create slot directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp slot: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp slot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp slot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp slot: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace slot %s: %w", s.path, err)
	}
	return nil
}
