// Package http exposes the basket over HTTP alongside health, readiness, and
// metrics endpoints.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/flood-report-basket/internal/basket"
	"github.com/couchcryptid/flood-report-basket/internal/domain"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Basket is the record collection served by the API.
type Basket interface {
	List() []domain.AnalysisRecord
	Get(id int64) (domain.AnalysisRecord, bool)
	Remove(ctx context.Context, id int64) error
	Clear(ctx context.Context, confirm basket.ConfirmFunc) error
}

// Ingester parses flat analysis fields and, for Ingest, stores the result.
type Ingester interface {
	Ingest(ctx context.Context, fields map[string]string) (domain.AnalysisRecord, error)
	Preview(fields map[string]string) domain.AnalysisRecord
}

// Reports assembles renderer-ready report fields.
type Reports interface {
	Assemble(rec domain.AnalysisRecord) domain.ReportFields
	Preview(rec domain.AnalysisRecord) domain.ReportFields
	Forget(id int64)
	Flush()
}

// Server exposes the basket API plus health, readiness, and metrics routes.
type Server struct {
	httpServer *http.Server
	basket     Basket
	ingester   Ingester
	reports    Reports
	logger     *slog.Logger
}

// NewServer creates an HTTP server with the basket API and operational routes.
func NewServer(addr string, b Basket, ingester Ingester, reports Reports, ready sharedobs.ReadinessChecker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      withRequestLogging(logger, mux),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		basket:   b,
		ingester: ingester,
		reports:  reports,
		logger:   logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /api/basket", s.handleAdd)
	mux.HandleFunc("GET /api/basket", s.handleList)
	mux.HandleFunc("DELETE /api/basket", s.handleClear)
	mux.HandleFunc("GET /api/basket/{id}", s.handleGet)
	mux.HandleFunc("DELETE /api/basket/{id}", s.handleRemove)
	mux.HandleFunc("GET /api/basket/{id}/report", s.handleReport)
	mux.HandleFunc("POST /api/report/preview", s.handlePreview)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// AllReady combines readiness checkers; the first failure wins.
func AllReady(checkers ...sharedobs.ReadinessChecker) sharedobs.ReadinessChecker {
	return readinessGroup(checkers)
}

type readinessGroup []sharedobs.ReadinessChecker

func (g readinessGroup) CheckReadiness(ctx context.Context) error {
	for _, c := range g {
		if err := c.CheckReadiness(ctx); err != nil {
			return err
		}
	}
	return nil
}
