package domain

import (
	"strings"
	"time"
)

// generatedDateLayout matches the printed report header, e.g. "OCTOBER 18, 2026".
const generatedDateLayout = "January 2, 2006"

// ReportFields is the flat field set consumed by the external document
// renderer. Text fields carry unit labels; the raw values are kept alongside
// for renderers that format on their own.
type ReportFields struct {
	RecordID     int64        `json:"recordId"`
	Municipality string       `json:"municipality"`
	Province     string       `json:"province"`
	Severity     SeverityTier `json:"severity"`

	Rainfall        string  `json:"rainfall"`
	RainfallMm      float64 `json:"rainfallMm"`
	Population      string  `json:"population"`
	PopulationCount int64   `json:"populationCount"`
	CropArea        string  `json:"cropArea"`
	CropAreaHa      float64 `json:"cropAreaHa"`
	BuiltArea       string  `json:"builtArea"`
	BuiltAreaHa     float64 `json:"builtAreaHa"`

	Narrative       string `json:"narrative"`
	Recommendations string `json:"recommendations"`
	MapURL          string `json:"mapUrl"`
	GeneratedDate   string `json:"generatedDate"`
}

// AssembleReport composes classification and narrative text for a record.
// generatedAt should already be in the report's display time zone.
func AssembleReport(rec AnalysisRecord, generatedAt time.Time) ReportFields {
	tier := Classify(rec)

	return ReportFields{
		RecordID:     rec.ID,
		Municipality: placeName(rec),
		Province:     rec.Province,
		Severity:     tier,

		Rainfall:        formatNumber(rec.SimulatedRainfallMm) + " mm",
		RainfallMm:      rec.SimulatedRainfallMm,
		Population:      formatCount(rec.PopulationAtRisk) + " people",
		PopulationCount: rec.PopulationAtRisk,
		CropArea:        formatNumber(rec.CropAreaHa) + " Ha",
		CropAreaHa:      rec.CropAreaHa,
		BuiltArea:       formatNumber(rec.BuiltAreaHa) + " Ha",
		BuiltAreaHa:     rec.BuiltAreaHa,

		Narrative:       Interpret(rec, tier),
		Recommendations: JoinRecommendations(Recommend(rec, tier)),
		MapURL:          rec.MapThumbnailURL,
		GeneratedDate:   strings.ToUpper(generatedAt.Format(generatedDateLayout)),
	}
}
