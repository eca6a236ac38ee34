package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/couchcryptid/flood-report-basket/internal/domain"
	"github.com/couchcryptid/flood-report-basket/internal/ingest"
)

// Ingester stores a flat analysis result in the basket.
type Ingester interface {
	Ingest(ctx context.Context, fields map[string]string) (domain.AnalysisRecord, error)
}

// ReportAssembler builds report fields for a stored record.
type ReportAssembler interface {
	Assemble(rec domain.AnalysisRecord) domain.ReportFields
	Now() time.Time
}

// AnalysisTransformer ingests each analysis event and emits its report.
type AnalysisTransformer struct {
	ingester  Ingester
	assembler ReportAssembler
}

// NewTransformer creates an AnalysisTransformer.
func NewTransformer(ingester Ingester, assembler ReportAssembler) *AnalysisTransformer {
	return &AnalysisTransformer{
		ingester:  ingester,
		assembler: assembler,
	}
}

// Transform decodes the event payload, adds it to the basket, and serializes
// the assembled report. A payload that cannot be decoded yields an error
// wrapping ErrUnprocessable; an ingest failure leaves the basket unchanged.
func (t *AnalysisTransformer) Transform(ctx context.Context, raw domain.RawEvent) (domain.OutputEvent, error) {
	fields, err := ingest.FieldsFromJSON(raw.Value)
	if err != nil {
		return domain.OutputEvent{}, fmt.Errorf("%w: %w", ErrUnprocessable, err)
	}

	rec, err := t.ingester.Ingest(ctx, fields)
	if err != nil {
		return domain.OutputEvent{}, fmt.Errorf("ingest analysis: %w", err)
	}

	report := t.assembler.Assemble(rec)
	return domain.SerializeReport(report, t.assembler.Now())
}
