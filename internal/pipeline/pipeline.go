// Package pipeline consumes analysis results from a stream, adds them to the
// basket, and publishes the assembled reports.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/flood-report-basket/internal/domain"
	"github.com/couchcryptid/flood-report-basket/internal/observability"
	"github.com/jonboulle/clockwork"
)

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// BatchExtractor reads up to batchSize raw events from the source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawEvent, error)
}

// ErrUnprocessable marks an event that can never be transformed. Such events
// are skipped and committed; any other transform error is retried.
var ErrUnprocessable = errors.New("unprocessable analysis event")

// Transformer turns a raw analysis event into a report event.
type Transformer interface {
	Transform(ctx context.Context, raw domain.RawEvent) (domain.OutputEvent, error)
}

// BatchLoader writes report events to the destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, events []domain.OutputEvent) error
}

// Pipeline runs the extract, ingest, publish loop.
type Pipeline struct {
	extractor   BatchExtractor
	transformer Transformer
	loader      BatchLoader
	clock       clockwork.Clock
	logger      *slog.Logger
	metrics     *observability.Metrics
	batchSize   int
	ready       atomic.Bool
}

// New creates a Pipeline. A nil clock uses the real clock.
func New(e BatchExtractor, t Transformer, l BatchLoader, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Pipeline {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Pipeline{
		extractor:   e,
		transformer: t,
		loader:      l,
		clock:       clock,
		logger:      logger,
		metrics:     metrics,
		batchSize:   batchSize,
	}
}

// CheckReadiness returns nil once the pipeline has completed a fetch from the
// source, and an error until then or after a failed fetch.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline is not connected to the analysis source")
	}
	return nil
}

// Run consumes batches until ctx is cancelled. Source failures are retried
// with exponential backoff and never end the loop.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "batch_size", p.batchSize)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	backoff := initialBackoff
	for {
		if ctx.Err() != nil {
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		}
		if !p.processBatch(ctx, &backoff) {
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		}
	}
}

// processBatch runs one cycle. It returns false when the pipeline should stop.
func (p *Pipeline) processBatch(ctx context.Context, backoff *time.Duration) bool {
	start := p.clock.Now()

	rawBatch, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.ready.Store(false)
		p.logger.Error("extract batch failed", "error", err)
		return p.wait(ctx, backoff)
	}
	p.ready.Store(true)
	if len(rawBatch) == 0 {
		return ctx.Err() == nil
	}

	p.metrics.MessagesConsumed.Add(float64(len(rawBatch)))
	p.metrics.BatchSize.Observe(float64(len(rawBatch)))
	*backoff = initialBackoff

	outBatch, ok := p.transformBatch(ctx, rawBatch, backoff)
	if !ok {
		return false
	}
	if len(outBatch) > 0 && !p.load(ctx, outBatch, backoff) {
		return false
	}
	// Every event is now published or skipped, so offsets are committed in
	// fetch order.
	for _, raw := range rawBatch {
		p.commitOffset(ctx, raw)
	}

	p.metrics.BatchProcessingDuration.Observe(p.clock.Since(start).Seconds())
	return true
}

// transformBatch ingests every event in the batch. It returns false if ctx
// ends before the batch is through.
func (p *Pipeline) transformBatch(ctx context.Context, rawBatch []domain.RawEvent, backoff *time.Duration) ([]domain.OutputEvent, bool) {
	outBatch := make([]domain.OutputEvent, 0, len(rawBatch))
	for _, raw := range rawBatch {
		out, skipped, ok := p.transformEvent(ctx, raw, backoff)
		if !ok {
			return nil, false
		}
		if !skipped {
			outBatch = append(outBatch, out)
		}
	}
	return outBatch, true
}

// transformEvent transforms one event, retrying with backoff until it
// succeeds or turns out to be unprocessable, in which case it reports the
// event as skipped. The basket is unchanged after a failed ingest, so a retry
// cannot store the analysis twice. The last result is false if ctx ends first.
func (p *Pipeline) transformEvent(ctx context.Context, raw domain.RawEvent, backoff *time.Duration) (domain.OutputEvent, bool, bool) {
	for {
		out, err := p.transformer.Transform(ctx, raw)
		if err == nil {
			return out, false, true
		}
		p.metrics.TransformErrors.Inc()
		if errors.Is(err, ErrUnprocessable) {
			p.logger.Warn("analysis event skipped",
				"error", err,
				"topic", raw.Topic,
				"partition", raw.Partition,
				"offset", raw.Offset,
			)
			return domain.OutputEvent{}, true, true
		}
		if ctx.Err() != nil {
			return domain.OutputEvent{}, false, false
		}
		p.logger.Error("ingest analysis failed",
			"error", err,
			"topic", raw.Topic,
			"partition", raw.Partition,
			"offset", raw.Offset,
		)
		if !p.wait(ctx, backoff) {
			return domain.OutputEvent{}, false, false
		}
	}
}

// load publishes the batch, retrying with backoff until it succeeds. The
// records are already in the basket, so the batch is never re-ingested.
func (p *Pipeline) load(ctx context.Context, outBatch []domain.OutputEvent, backoff *time.Duration) bool {
	for {
		err := p.loader.LoadBatch(ctx, outBatch)
		if err == nil {
			p.metrics.MessagesProduced.Add(float64(len(outBatch)))
			*backoff = initialBackoff
			return true
		}
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("publish reports failed", "error", err, "batch_size", len(outBatch))
		if !p.wait(ctx, backoff) {
			return false
		}
	}
}

// wait sleeps for the current backoff and doubles it. It returns false if ctx
// ends first.
func (p *Pipeline) wait(ctx context.Context, backoff *time.Duration) bool {
	timer := p.clock.NewTimer(*backoff)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
	}
	*backoff = nextBackoff(*backoff)
	return true
}

func (p *Pipeline) commitOffset(ctx context.Context, raw domain.RawEvent) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		p.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}

func nextBackoff(current time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}
