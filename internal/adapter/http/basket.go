package http

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/couchcryptid/flood-report-basket/internal/basket"
	"github.com/couchcryptid/flood-report-basket/internal/domain"
	"github.com/couchcryptid/flood-report-basket/internal/ingest"
)

const maxBodyBytes = 1 << 20

// basketEntry is one row of the basket listing.
type basketEntry struct {
	Record       domain.AnalysisRecord `json:"record"`
	Severity     domain.SeverityTier   `json:"severity"`
	RatioSummary string                `json:"ratioSummary"`
}

type basketListing struct {
	Count   int           `json:"count"`
	Records []basketEntry `json:"records"`
}

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	fields, err := requestFields(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	rec, err := s.ingester.Ingest(r.Context(), fields)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleList(w http.ResponseWriter, _ *http.Request) {
	records := s.basket.List()

	listing := basketListing{
		Count:   len(records),
		Records: make([]basketEntry, 0, len(records)),
	}
	for _, rec := range records {
		listing.Records = append(listing.Records, basketEntry{
			Record:       rec,
			Severity:     domain.Classify(rec),
			RatioSummary: domain.RatioSummary(rec),
		})
	}
	writeJSON(w, http.StatusOK, listing)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.reports.Assemble(rec))
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.basket.Remove(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.reports.Forget(id)
	w.WriteHeader(http.StatusNoContent)
}

// handleClear requires ?confirm=true; the query parameter is the API's
// answer to the clear prompt.
func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	confirmed, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))

	err := s.basket.Clear(r.Context(), func(string) bool { return confirmed })
	switch {
	case errors.Is(err, basket.ErrClearNotConfirmed):
		writeError(w, http.StatusPreconditionRequired, err)
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.reports.Flush()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	fields, err := requestFields(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	rec := s.ingester.Preview(fields)
	writeJSON(w, http.StatusOK, s.reports.Preview(rec))
}

// lookup resolves the {id} path value, writing the error response itself
// when the record cannot be served.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (domain.AnalysisRecord, bool) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return domain.AnalysisRecord{}, false
	}
	rec, ok := s.basket.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, basket.ErrNotFound)
		return domain.AnalysisRecord{}, false
	}
	return rec, true
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		return 0, errors.New("record id must be an integer")
	}
	return id, nil
}

// requestFields collects analysis fields from the query string and the body.
// JSON bodies take precedence over query parameters with the same key.
func requestFields(w http.ResponseWriter, r *http.Request) (map[string]string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "application/json" {
		if err := r.ParseForm(); err != nil {
			return nil, err
		}
		return ingest.FieldsFromValues(r.Form), nil
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	fields, err := ingest.FieldsFromJSON(body)
	if err != nil {
		return nil, err
	}
	for k, v := range ingest.FieldsFromValues(r.URL.Query()) {
		if _, ok := fields[k]; !ok {
			fields[k] = v
		}
	}
	return fields, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // response already committed
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
