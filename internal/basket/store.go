// Package basket maintains the persisted, newest-first collection of flood
// analysis records awaiting report generation.
package basket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/flood-report-basket/internal/domain"
	"github.com/couchcryptid/flood-report-basket/internal/observability"
	"github.com/jonboulle/clockwork"
)

// TimestampLayout is the display format for record timestamps, e.g.
// "10/18/2026, 3:04:05 PM".
const TimestampLayout = "1/2/2006, 3:04:05 PM"

// ClearPrompt is the question put to the confirmer before a clear.
const ClearPrompt = "Clear all analyses from the basket?"

var (
	// ErrClearNotConfirmed is returned by Clear when the caller did not confirm.
	ErrClearNotConfirmed = errors.New("basket clear not confirmed")

	// ErrNotFound is returned by lookups for an ID that is not in the basket.
	ErrNotFound = errors.New("record not found")
)

// ConfirmFunc asks a human to confirm a destructive operation.
type ConfirmFunc func(prompt string) bool

// Store is the basket. All mutations are serialized and written through to
// Storage before they become visible. Processes sharing one storage slot get
// last-writer-wins semantics.
type Store struct {
	storage  Storage
	clock    clockwork.Clock
	location *time.Location
	logger   *slog.Logger
	metrics  *observability.Metrics

	mu      sync.RWMutex
	records []domain.AnalysisRecord
	lastID  int64
}

// NewStore loads the basket from storage. A missing or corrupt slot yields an
// empty basket; the failure is logged and never returned.
func NewStore(ctx context.Context, storage Storage, clock clockwork.Clock, location *time.Location, logger *slog.Logger, metrics *observability.Metrics) *Store {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if location == nil {
		location = time.UTC
	}

	s := &Store{
		storage:  storage,
		clock:    clock,
		location: location,
		logger:   logger,
		metrics:  metrics,
	}

	records, err := storage.Load(ctx)
	if err != nil {
		logger.Warn("basket storage unreadable, starting empty", "error", err)
		metrics.StorageLoadFailures.Inc()
		records = nil
	}
	s.records = records
	for _, r := range records {
		if r.ID > s.lastID {
			s.lastID = r.ID
		}
	}
	metrics.BasketRecords.Set(float64(len(s.records)))
	logger.Info("basket loaded", "records", len(s.records))

	return s
}

// Add assigns an ID and timestamp when absent, inserts the record at the
// front, and persists the basket. Duplicate municipalities are allowed.
func (s *Store) Add(ctx context.Context, rec domain.AnalysisRecord) (domain.AnalysisRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	if rec.ID == 0 || s.indexOf(rec.ID) >= 0 {
		rec.ID = s.nextID(now)
	}
	if rec.Timestamp == "" {
		rec.Timestamp = now.In(s.location).Format(TimestampLayout)
	}

	next := make([]domain.AnalysisRecord, 0, len(s.records)+1)
	next = append(next, rec)
	next = append(next, s.records...)

	if err := s.persist(ctx, next); err != nil {
		return domain.AnalysisRecord{}, fmt.Errorf("add record %d: %w", rec.ID, err)
	}
	if rec.ID > s.lastID {
		s.lastID = rec.ID
	}

	s.metrics.RecordsIngested.Inc()
	s.logger.Info("record added to basket",
		"id", rec.ID,
		"municipality", rec.Municipality,
		"count", len(s.records),
	)
	return rec, nil
}

// Remove deletes the record with the given ID. Removing an absent ID is a no-op.
func (s *Store) Remove(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		s.logger.Debug("remove of absent record ignored", "id", id)
		return nil
	}

	next := make([]domain.AnalysisRecord, 0, len(s.records)-1)
	next = append(next, s.records[:idx]...)
	next = append(next, s.records[idx+1:]...)

	if err := s.persist(ctx, next); err != nil {
		return fmt.Errorf("remove record %d: %w", id, err)
	}

	s.metrics.RecordsRemoved.Inc()
	s.logger.Info("record removed from basket", "id", id, "count", len(s.records))
	return nil
}

// Clear empties the basket once confirm approves ClearPrompt. A nil confirm
// counts as a refusal.
func (s *Store) Clear(ctx context.Context, confirm ConfirmFunc) error {
	if confirm == nil || !confirm(ClearPrompt) {
		return ErrClearNotConfirmed
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := len(s.records)
	if err := s.persist(ctx, []domain.AnalysisRecord{}); err != nil {
		return fmt.Errorf("clear basket: %w", err)
	}

	s.metrics.BasketClears.Inc()
	s.logger.Info("basket cleared", "removed", removed)
	return nil
}

// List returns a copy of the basket, newest first.
func (s *Store) List() []domain.AnalysisRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.AnalysisRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Count returns the number of records in the basket.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Get returns the record with the given ID.
func (s *Store) Get(id int64) (domain.AnalysisRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if idx := s.indexOf(id); idx >= 0 {
		return s.records[idx], true
	}
	return domain.AnalysisRecord{}, false
}

// CheckReadiness reports whether the basket can serve requests. The basket is
// loaded during construction, so a constructed store is always ready.
func (s *Store) CheckReadiness(_ context.Context) error {
	if s == nil {
		return errors.New("basket store not initialized")
	}
	return nil
}

// persist writes next to storage and, on success, makes it the live basket.
// Callers must hold s.mu.
func (s *Store) persist(ctx context.Context, next []domain.AnalysisRecord) error {
	if err := s.storage.Save(ctx, next); err != nil {
		s.metrics.StorageSaveFailures.Inc()
		s.logger.Error("basket save failed", "error", err)
		return err
	}
	s.records = next
	s.metrics.BasketRecords.Set(float64(len(next)))
	return nil
}

// nextID returns a creation-time ID strictly greater than any seen so far.
func (s *Store) nextID(now time.Time) int64 {
	id := now.UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	return id
}

func (s *Store) indexOf(id int64) int {
	for i := range s.records {
		if s.records[i].ID == id {
			return i
		}
	}
	return -1
}
