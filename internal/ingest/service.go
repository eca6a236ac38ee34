// Package ingest turns flat analysis results from the external platform into
// basket records.
package ingest

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/flood-report-basket/internal/domain"
	"github.com/couchcryptid/flood-report-basket/internal/observability"
)

// RecordAdder stores a record and returns it with its assigned ID.
type RecordAdder interface {
	Add(ctx context.Context, rec domain.AnalysisRecord) (domain.AnalysisRecord, error)
}

// Service validates, normalizes, and stores incoming analysis results.
type Service struct {
	store   RecordAdder
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewService creates an ingest Service writing into store.
func NewService(store RecordAdder, logger *slog.Logger, metrics *observability.Metrics) *Service {
	return &Service{
		store:   store,
		logger:  logger,
		metrics: metrics,
	}
}

// Ingest parses fields into a record, adds it to the basket, and returns the
// stored record. Malformed input never fails ingestion; the only error is a
// failure to persist the basket.
func (s *Service) Ingest(ctx context.Context, fields map[string]string) (domain.AnalysisRecord, error) {
	rec := s.parse(fields)

	stored, err := s.store.Add(ctx, rec)
	if err != nil {
		return domain.AnalysisRecord{}, err
	}

	tier := domain.Classify(stored)
	s.metrics.Classifications.WithLabelValues(string(tier)).Inc()
	s.logger.Info("analysis ingested",
		"id", stored.ID,
		"municipality", stored.Municipality,
		"province", stored.Province,
		"severity", tier,
	)
	return stored, nil
}

// Preview parses fields into a record without storing it.
func (s *Service) Preview(fields map[string]string) domain.AnalysisRecord {
	return s.parse(fields)
}

func (s *Service) parse(fields map[string]string) domain.AnalysisRecord {
	rec, issues := ParseFields(fields)
	for _, issue := range issues {
		s.metrics.MalformedFields.WithLabelValues(issue.Key).Inc()
		s.logger.Debug("analysis field coerced to zero",
			"field", issue.Key,
			"value", issue.Value,
			"reason", issue.Reason,
		)
	}
	return rec
}
