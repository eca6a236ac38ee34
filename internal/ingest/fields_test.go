package ingest

import (
	"net/url"
	"testing"

	"github.com/couchcryptid/flood-report-basket/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFields_PrimaryKeys(t *testing.T) {
	rec, issues := ParseFields(map[string]string{
		"muni":      "Cagayan%20de%20Oro",
		"province":  "Misamis Oriental",
		"rain":      "250",
		"pop":       "12000.9",
		"crops":     "150.5",
		"houses":    "40",
		"totalArea": "300",
		"highArea":  "100",
		"medArea":   "120",
		"lowArea":   "80",
		"histMax":   "400",
		"forecast":  "35.2",
		"map":       "https%3A%2F%2Fexample.test%2Fthumb.png",
	})

	assert.Empty(t, issues)
	assert.Equal(t, domain.AnalysisRecord{
		Municipality:            "Cagayan de Oro",
		Province:                "Misamis Oriental",
		SimulatedRainfallMm:     250,
		PopulationAtRisk:        12000,
		CropAreaHa:              150.5,
		BuiltAreaHa:             40,
		TotalFloodAreaHa:        300,
		HighRiskAreaHa:          100,
		ModerateRiskAreaHa:      120,
		LowRiskAreaHa:           80,
		HistoricalMaxRainfallMm: 400,
		RecentRainfallMm:        35.2,
		MapThumbnailURL:         "https://example.test/thumb.png",
	}, rec)
}

func TestParseFields_Aliases(t *testing.T) {
	rec, issues := ParseFields(map[string]string{
		"municipality":  "Opol",
		"prov":          "Misamis Oriental",
		"rainfall":      "90",
		"population":    "500",
		"cropArea":      "12",
		"builtArea":     "3",
		"moderateArea":  "7",
		"historicalMax": "300",
		"recentRain":    "10",
		"mapUrl":        "https://example.test/m.png",
	})

	assert.Empty(t, issues)
	assert.Equal(t, "Opol", rec.Municipality)
	assert.Equal(t, "Misamis Oriental", rec.Province)
	assert.InDelta(t, 90.0, rec.SimulatedRainfallMm, 1e-9)
	assert.Equal(t, int64(500), rec.PopulationAtRisk)
	assert.InDelta(t, 12.0, rec.CropAreaHa, 1e-9)
	assert.InDelta(t, 3.0, rec.BuiltAreaHa, 1e-9)
	assert.InDelta(t, 7.0, rec.ModerateRiskAreaHa, 1e-9)
	assert.InDelta(t, 300.0, rec.HistoricalMaxRainfallMm, 1e-9)
	assert.InDelta(t, 10.0, rec.RecentRainfallMm, 1e-9)
	assert.Equal(t, "https://example.test/m.png", rec.MapThumbnailURL)
}

func TestParseFields_PrimaryKeyWinsOverAlias(t *testing.T) {
	rec, _ := ParseFields(map[string]string{"muni": "Opol", "municipality": "Tagoloan", "name": "Villanueva"})
	assert.Equal(t, "Opol", rec.Municipality)
}

func TestParseFields_BlankPrimaryFallsBack(t *testing.T) {
	rec, _ := ParseFields(map[string]string{"muni": "  ", "name": "Villanueva"})
	assert.Equal(t, "Villanueva", rec.Municipality)
}

func TestParseFields_Defaults(t *testing.T) {
	rec, issues := ParseFields(map[string]string{})

	assert.Empty(t, issues)
	assert.Equal(t, DefaultMunicipality, rec.Municipality)
	assert.Empty(t, rec.Province)
	assert.Zero(t, rec.SimulatedRainfallMm)
	assert.Zero(t, rec.PopulationAtRisk)
	assert.Zero(t, rec.HistoricalMaxRainfallMm)
	assert.Empty(t, rec.MapThumbnailURL)
}

func TestParseFields_Coercions(t *testing.T) {
	tests := []struct {
		name   string
		value  string
		want   float64
		reason string
	}{
		{name: "plain", value: "12.5", want: 12.5},
		{name: "padded", value: " 7 ", want: 7},
		{name: "exponent", value: "1e3", want: 1000},
		{name: "text", value: "abc", reason: "malformed"},
		{name: "trailing junk", value: "12mm", reason: "malformed"},
		{name: "nan", value: "NaN", reason: "malformed"},
		{name: "infinity", value: "+Inf", reason: "malformed"},
		{name: "negative", value: "-4", reason: "negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, issues := ParseFields(map[string]string{"rain": tt.value})

			assert.InDelta(t, tt.want, rec.SimulatedRainfallMm, 1e-9)
			if tt.reason == "" {
				assert.Empty(t, issues)
				return
			}
			require.Len(t, issues, 1)
			assert.Equal(t, FieldIssue{Key: "rain", Value: tt.value, Reason: tt.reason}, issues[0])
		})
	}
}

func TestParseFields_PopulationTruncates(t *testing.T) {
	rec, _ := ParseFields(map[string]string{"pop": "49999.99"})
	assert.Equal(t, int64(49999), rec.PopulationAtRisk)
}

func TestParseFields_InvalidEscapeKeptVerbatim(t *testing.T) {
	rec, _ := ParseFields(map[string]string{"muni": "100%Town"})
	assert.Equal(t, "100%Town", rec.Municipality)
}

func TestFieldsFromValues_FirstValueWins(t *testing.T) {
	fields := FieldsFromValues(url.Values{"muni": {"Opol", "Tagoloan"}, "rain": {"10"}, "empty": {}})

	assert.Equal(t, map[string]string{"muni": "Opol", "rain": "10"}, fields)
}

func TestFieldsFromJSON(t *testing.T) {
	fields, err := FieldsFromJSON([]byte(`{
		"muni": "Opol",
		"rain": 250.5,
		"pop": 12000,
		"flag": true,
		"nothing": null,
		"nested": {"a": 1},
		"list": [1, 2]
	}`))
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"muni": "Opol",
		"rain": "250.5",
		"pop":  "12000",
		"flag": "true",
	}, fields)
}

func TestFieldsFromJSON_RejectsNonObjects(t *testing.T) {
	for _, payload := range []string{`[1,2]`, `"text"`, `null`, `{bad`, ``} {
		_, err := FieldsFromJSON([]byte(payload))
		assert.ErrorIs(t, err, ErrMalformedPayload, "payload %q", payload)
	}
}
