package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	httpadapter "github.com/couchcryptid/flood-report-basket/internal/adapter/http"
	"github.com/couchcryptid/flood-report-basket/internal/basket"
	"github.com/couchcryptid/flood-report-basket/internal/domain"
	"github.com/couchcryptid/flood-report-basket/internal/ingest"
	"github.com/couchcryptid/flood-report-basket/internal/observability"
	"github.com/couchcryptid/flood-report-basket/internal/report"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, time.October, 18, 7, 4, 5, 0, time.UTC)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type fixture struct {
	srv   *httpadapter.Server
	store *basket.Store
	clock *clockwork.FakeClock
}

func newFixture(t *testing.T, readyErr error) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := observability.NewMetricsForTesting()
	clock := clockwork.NewFakeClockAt(testNow)
	manila := time.FixedZone("PHT", 8*3600)

	store := basket.NewStore(context.Background(), basket.NewMemoryStorage(), clock, manila, logger, metrics)
	svc := ingest.NewService(store, logger, metrics)
	assembler := report.NewAssembler(clock, manila, time.Minute, metrics)

	srv := httpadapter.NewServer(":0", store, svc, assembler, &mockReadiness{err: readyErr}, logger)
	return &fixture{srv: srv, store: store, clock: clock}
}

func (f *fixture) do(t *testing.T, method, target string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	f.srv.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) add(t *testing.T, query string) domain.AnalysisRecord {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/api/basket?"+query, nil, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var out domain.AnalysisRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	f.clock.Advance(time.Second)
	return out
}

// --- operational routes ---

func TestHealthzReturns200(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.do(t, http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.do(t, http.MethodGet, "/readyz", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	f := newFixture(t, errors.New("not ready yet"))
	rec := f.do(t, http.MethodGet, "/readyz", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.do(t, http.MethodGet, "/metrics", nil, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestRequestIDIsGeneratedAndEchoed(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(t, http.MethodGet, "/healthz", nil, "")
	assert.Len(t, rec.Header().Get("X-Request-ID"), 8)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc123")
	rec = httptest.NewRecorder()
	f.srv.ServeHTTP(rec, req)
	assert.Equal(t, "abc123", rec.Header().Get("X-Request-ID"))
}

func TestAllReady(t *testing.T) {
	errDown := errors.New("down")
	ctx := context.Background()

	assert.NoError(t, httpadapter.AllReady().CheckReadiness(ctx))
	assert.NoError(t, httpadapter.AllReady(&mockReadiness{}, &mockReadiness{}).CheckReadiness(ctx))
	assert.ErrorIs(t, httpadapter.AllReady(&mockReadiness{}, &mockReadiness{err: errDown}).CheckReadiness(ctx), errDown)
}

// --- basket API ---

func TestAddFromQuery(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.add(t, "muni=Opol&province=Misamis%20Oriental&rain=250&histMax=400&pop=1200")

	assert.Equal(t, testNow.UnixMilli(), rec.ID)
	assert.Equal(t, "Opol", rec.Municipality)
	assert.Equal(t, "Misamis Oriental", rec.Province)
	assert.Equal(t, "10/18/2026, 3:04:05 PM", rec.Timestamp)
	assert.Equal(t, 1, f.store.Count())
}

func TestAddFromForm(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(t, http.MethodPost, "/api/basket", strings.NewReader("muni=Tagoloan&pop=15000"), "application/x-www-form-urlencoded")
	require.Equal(t, http.StatusCreated, rec.Code)

	stored := f.store.List()
	require.Len(t, stored, 1)
	assert.Equal(t, "Tagoloan", stored[0].Municipality)
	assert.Equal(t, int64(15000), stored[0].PopulationAtRisk)
}

func TestAddFromJSON(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(t, http.MethodPost, "/api/basket?province=Bukidnon", strings.NewReader(`{"muni":"Malaybalay","rain":120.5}`), "application/json; charset=utf-8")
	require.Equal(t, http.StatusCreated, rec.Code)

	stored := f.store.List()[0]
	assert.Equal(t, "Malaybalay", stored.Municipality)
	assert.Equal(t, "Bukidnon", stored.Province)
	assert.InDelta(t, 120.5, stored.SimulatedRainfallMm, 1e-9)
}

func TestAddRejectsInvalidJSON(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(t, http.MethodPost, "/api/basket", strings.NewReader(`[1,2]`), "application/json")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, f.store.Count())
}

func TestListIsNewestFirstWithSeverity(t *testing.T) {
	f := newFixture(t, nil)
	f.add(t, "muni=Opol&rain=100&histMax=400")
	f.add(t, "muni=Tagoloan&pop=60000")

	rec := f.do(t, http.MethodGet, "/api/basket", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Count   int `json:"count"`
		Records []struct {
			Record       domain.AnalysisRecord `json:"record"`
			Severity     string                `json:"severity"`
			RatioSummary string                `json:"ratioSummary"`
		} `json:"records"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	require.Equal(t, 2, body.Count)
	assert.Equal(t, "Tagoloan", body.Records[0].Record.Municipality)
	assert.Equal(t, "EXTREME", body.Records[0].Severity)
	assert.Equal(t, "No historical baseline", body.Records[0].RatioSummary)
	assert.Equal(t, "Opol", body.Records[1].Record.Municipality)
	assert.Equal(t, "LOW", body.Records[1].Severity)
	assert.Equal(t, "25% of 40-yr max", body.Records[1].RatioSummary)
}

func TestListEmptyBasket(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(t, http.MethodGet, "/api/basket", nil, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"count":0,"records":[]}`, rec.Body.String())
}

func TestGetRecord(t *testing.T) {
	f := newFixture(t, nil)
	added := f.add(t, "muni=Opol")

	rec := f.do(t, http.MethodGet, "/api/basket/"+strconv.FormatInt(added.ID, 10), nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got domain.AnalysisRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, added, got)
}

func TestGetRecordErrors(t *testing.T) {
	f := newFixture(t, nil)

	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/basket/12345", nil, "").Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/basket/abc", nil, "").Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/basket/12345/report", nil, "").Code)
}

func TestRemoveRecord(t *testing.T) {
	f := newFixture(t, nil)
	keep := f.add(t, "muni=Opol")
	drop := f.add(t, "muni=Tagoloan")

	rec := f.do(t, http.MethodDelete, "/api/basket/"+strconv.FormatInt(drop.ID, 10), nil, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	remaining := f.store.List()
	require.Len(t, remaining, 1)
	assert.Equal(t, keep.ID, remaining[0].ID)

	// absent ids are a no-op
	rec = f.do(t, http.MethodDelete, "/api/basket/999", nil, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 1, f.store.Count())
}

func TestClearRequiresConfirmation(t *testing.T) {
	f := newFixture(t, nil)
	f.add(t, "muni=Opol")
	f.add(t, "muni=Tagoloan")

	for _, target := range []string{"/api/basket", "/api/basket?confirm=false", "/api/basket?confirm=maybe"} {
		rec := f.do(t, http.MethodDelete, target, nil, "")
		assert.Equal(t, http.StatusPreconditionRequired, rec.Code, target)
		assert.Equal(t, 2, f.store.Count(), target)
	}

	rec := f.do(t, http.MethodDelete, "/api/basket?confirm=true", nil, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Zero(t, f.store.Count())
}

func TestRecordReport(t *testing.T) {
	f := newFixture(t, nil)
	added := f.add(t, "muni=Opol&province=Misamis%20Oriental&rain=450&histMax=400&pop=15000&crops=12.5&houses=3")

	rec := f.do(t, http.MethodGet, "/api/basket/"+strconv.FormatInt(added.ID, 10)+"/report", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var fields domain.ReportFields
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fields))
	assert.Equal(t, added.ID, fields.RecordID)
	assert.Equal(t, domain.SeverityExtreme, fields.Severity)
	assert.Equal(t, "Opol, Misamis Oriental", fields.Municipality)
	assert.Equal(t, "450 mm", fields.Rainfall)
	assert.Equal(t, "15,000 people", fields.Population)
	assert.Equal(t, "12.5 Ha", fields.CropArea)
	assert.Equal(t, "3 Ha", fields.BuiltArea)
	assert.Equal(t, "OCTOBER 18, 2026", fields.GeneratedDate)
	assert.Contains(t, fields.Narrative, "UNPRECEDENTED")
	assert.True(t, strings.HasPrefix(fields.Recommendations, "• "))
}

func TestPreviewDoesNotStore(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(t, http.MethodPost, "/api/report/preview", strings.NewReader(`{"muni":"Opol","pop":3000}`), "application/json")
	require.Equal(t, http.StatusOK, rec.Code)

	var fields domain.ReportFields
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fields))
	assert.Equal(t, domain.SeverityModerate, fields.Severity)
	assert.Zero(t, fields.RecordID)
	assert.Zero(t, f.store.Count())
}
