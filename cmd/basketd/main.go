package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/flood-report-basket/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/flood-report-basket/internal/adapter/kafka"
	"github.com/couchcryptid/flood-report-basket/internal/adapter/storage"
	"github.com/couchcryptid/flood-report-basket/internal/basket"
	"github.com/couchcryptid/flood-report-basket/internal/config"
	"github.com/couchcryptid/flood-report-basket/internal/ingest"
	"github.com/couchcryptid/flood-report-basket/internal/observability"
	"github.com/couchcryptid/flood-report-basket/internal/pipeline"
	"github.com/couchcryptid/flood-report-basket/internal/report"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/jonboulle/clockwork"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	slot, closeStorage, err := storage.Open(storage.SettingsFromConfig(cfg))
	if err != nil {
		logger.Error("failed to open storage", "error", err, "backend", cfg.StorageBackend)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := basket.NewStore(ctx, slot, clock, cfg.ReportLocation, logger, metrics)
	ingester := ingest.NewService(store, logger, metrics)
	assembler := report.NewAssembler(clock, cfg.ReportLocation, cfg.ReportCacheTTL, metrics)

	checkers := []sharedobs.ReadinessChecker{store}

	// Stream ingestion is feature-flagged via KAFKA_ENABLED.
	var reader *kafkaadapter.Reader
	var writer *kafkaadapter.Writer
	var p *pipeline.Pipeline
	if cfg.KafkaEnabled {
		reader = kafkaadapter.NewReader(cfg, logger)
		writer = kafkaadapter.NewWriter(cfg, logger)
		transformer := pipeline.NewTransformer(ingester, assembler)
		p = pipeline.New(reader, transformer, writer, clock, logger, metrics, cfg.BatchSize)
		checkers = append(checkers, p)
		logger.Info("kafka ingestion enabled",
			"source_topic", cfg.KafkaSourceTopic,
			"sink_topic", cfg.KafkaSinkTopic,
			"group_id", cfg.KafkaGroupID,
		)
	} else {
		logger.Info("kafka ingestion disabled")
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, store, ingester, assembler, httpadapter.AllReady(checkers...), logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start report pipeline.
	if p != nil {
		go func() {
			if err := p.Run(ctx); err != nil {
				logger.Error("pipeline error", "error", err)
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if reader != nil {
		if err := reader.Close(); err != nil {
			logger.Error("kafka reader close error", "error", err)
		}
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
	if err := closeStorage(); err != nil {
		logger.Error("storage close error", "error", err)
	}

	logger.Info("shutdown complete", "records", store.Count())
}
