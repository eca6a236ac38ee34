package ingest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/couchcryptid/flood-report-basket/internal/domain"
)

// DefaultMunicipality names records whose input carries no municipality.
const DefaultMunicipality = "Unknown"

// textField maps a string record field to its input keys, in fallback order.
type textField struct {
	keys []string
	set  func(rec *domain.AnalysisRecord, v string)
}

// numericField maps a numeric record field to its input keys, in fallback order.
type numericField struct {
	keys []string
	set  func(rec *domain.AnalysisRecord, v float64)
}

// The first key listed is the one the analysis platform sends; later keys are
// accepted aliases. The first key holding a non-blank value wins.
var textFields = []textField{
	{keys: []string{"muni", "municipality", "name"}, set: func(r *domain.AnalysisRecord, v string) { r.Municipality = v }},
	{keys: []string{"province", "prov"}, set: func(r *domain.AnalysisRecord, v string) { r.Province = v }},
	{keys: []string{"map", "mapUrl"}, set: func(r *domain.AnalysisRecord, v string) { r.MapThumbnailURL = v }},
}

var numericFields = []numericField{
	{keys: []string{"rain", "rainfall"}, set: func(r *domain.AnalysisRecord, v float64) { r.SimulatedRainfallMm = v }},
	{keys: []string{"pop", "population"}, set: func(r *domain.AnalysisRecord, v float64) { r.PopulationAtRisk = toCount(v) }},
	{keys: []string{"crops", "cropArea"}, set: func(r *domain.AnalysisRecord, v float64) { r.CropAreaHa = v }},
	{keys: []string{"houses", "builtArea"}, set: func(r *domain.AnalysisRecord, v float64) { r.BuiltAreaHa = v }},
	{keys: []string{"totalArea"}, set: func(r *domain.AnalysisRecord, v float64) { r.TotalFloodAreaHa = v }},
	{keys: []string{"highArea"}, set: func(r *domain.AnalysisRecord, v float64) { r.HighRiskAreaHa = v }},
	{keys: []string{"medArea", "moderateArea"}, set: func(r *domain.AnalysisRecord, v float64) { r.ModerateRiskAreaHa = v }},
	{keys: []string{"lowArea"}, set: func(r *domain.AnalysisRecord, v float64) { r.LowRiskAreaHa = v }},
	{keys: []string{"histMax", "historicalMax"}, set: func(r *domain.AnalysisRecord, v float64) { r.HistoricalMaxRainfallMm = v }},
	{keys: []string{"forecast", "recentRain"}, set: func(r *domain.AnalysisRecord, v float64) { r.RecentRainfallMm = v }},
}

// FieldIssue describes an input value that could not be used as supplied.
type FieldIssue struct {
	Key    string
	Value  string
	Reason string // "malformed" or "negative"
}

// ParseFields converts a flat field mapping into a record. It never fails:
// missing fields take their defaults, malformed numbers become 0, and
// negative numbers are clamped to 0. Every coercion is reported as an issue.
// The returned record has no ID or timestamp.
func ParseFields(fields map[string]string) (domain.AnalysisRecord, []FieldIssue) {
	var rec domain.AnalysisRecord
	var issues []FieldIssue

	for _, f := range textFields {
		if _, raw, ok := lookup(fields, f.keys); ok {
			f.set(&rec, decodeText(raw))
		}
	}
	if rec.Municipality == "" {
		rec.Municipality = DefaultMunicipality
	}

	for _, f := range numericFields {
		key, raw, ok := lookup(fields, f.keys)
		if !ok {
			continue
		}
		v, reason := parseNumber(raw)
		if reason != "" {
			issues = append(issues, FieldIssue{Key: key, Value: raw, Reason: reason})
		}
		f.set(&rec, v)
	}

	return rec, issues
}

// lookup returns the first key in keys whose value is not blank.
func lookup(fields map[string]string, keys []string) (string, string, bool) {
	for _, k := range keys {
		if v, ok := fields[k]; ok && strings.TrimSpace(v) != "" {
			return k, v, true
		}
	}
	return "", "", false
}

// decodeText undoes percent-encoding left by the transport. Values that are
// not valid escapes are kept as supplied.
func decodeText(s string) string {
	if decoded, err := url.PathUnescape(s); err == nil {
		s = decoded
	}
	return strings.TrimSpace(s)
}

// parseNumber parses a non-negative finite number. The reason is empty when
// the value was used as-is.
func parseNumber(s string) (float64, string) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, "malformed"
	}
	if v < 0 {
		return 0, "negative"
	}
	return v, ""
}

// toCount truncates a non-negative number to a whole head count.
func toCount(v float64) int64 {
	if v >= math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(math.Trunc(v))
}

// FieldsFromValues flattens URL query or form values, keeping the first value
// of each key.
func FieldsFromValues(values url.Values) map[string]string {
	fields := make(map[string]string, len(values))
	for k, vs := range values {
		if len(vs) > 0 {
			fields[k] = vs[0]
		}
	}
	return fields
}

// ErrMalformedPayload is returned by FieldsFromJSON for payloads that are not
// a JSON object.
var ErrMalformedPayload = errors.New("decode analysis fields")

// FieldsFromJSON flattens a JSON object into a field mapping. Strings, numbers
// and booleans are kept in their textual form; nulls, arrays and nested
// objects are dropped. Only a payload that is not a JSON object is an error.
func FieldsFromJSON(data []byte) (map[string]string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	if obj == nil {
		return nil, fmt.Errorf("%w: payload is not a JSON object", ErrMalformedPayload)
	}

	fields := make(map[string]string, len(obj))
	for k, v := range obj {
		switch val := v.(type) {
		case string:
			fields[k] = val
		case json.Number:
			fields[k] = val.String()
		case bool:
			fields[k] = strconv.FormatBool(val)
		}
	}
	return fields, nil
}
