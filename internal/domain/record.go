package domain

import (
	"encoding/json"
	"fmt"
)

// SeverityTier is the discrete output of risk classification.
type SeverityTier string

const (
	SeverityLow      SeverityTier = "LOW"
	SeverityModerate SeverityTier = "MODERATE"
	SeverityHigh     SeverityTier = "HIGH"
	SeverityExtreme  SeverityTier = "EXTREME"
)

// Tiers lists every severity tier from least to most severe.
var Tiers = []SeverityTier{SeverityLow, SeverityModerate, SeverityHigh, SeverityExtreme}

// AnalysisRecord is one ingested flood-analysis result, the unit of storage.
// Records are immutable once added to a basket.
type AnalysisRecord struct {
	ID           int64  `json:"id"`
	Timestamp    string `json:"timestamp"`
	Municipality string `json:"municipality"`
	Province     string `json:"province,omitempty"`

	SimulatedRainfallMm float64 `json:"simulatedRainfallMm"`
	PopulationAtRisk    int64   `json:"populationAtRisk"`

	// Exposure and susceptibility areas, in hectares.
	CropAreaHa         float64 `json:"cropAreaHa"`
	BuiltAreaHa        float64 `json:"builtAreaHa"`
	TotalFloodAreaHa   float64 `json:"totalFloodAreaHa"`
	HighRiskAreaHa     float64 `json:"highRiskAreaHa"`
	ModerateRiskAreaHa float64 `json:"moderateRiskAreaHa"`
	LowRiskAreaHa      float64 `json:"lowRiskAreaHa"`

	HistoricalMaxRainfallMm float64 `json:"historicalMaxRainfallMm"` // 0 = unknown
	RecentRainfallMm        float64 `json:"recentRainfallMm"`

	MapThumbnailURL string `json:"mapThumbnailUrl,omitempty"`
}

// TierAreaSum returns the sum of the three susceptibility tier areas. It is
// informational only; TotalFloodAreaHa is never derived from it.
func (r AnalysisRecord) TierAreaSum() float64 {
	return r.HighRiskAreaHa + r.ModerateRiskAreaHa + r.LowRiskAreaHa
}

// MarshalRecords encodes a basket's contents for a storage slot.
func MarshalRecords(records []AnalysisRecord) ([]byte, error) {
	if records == nil {
		records = []AnalysisRecord{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("marshal records: %w", err)
	}
	return data, nil
}

// UnmarshalRecords decodes a storage slot. An empty slot decodes to no records.
func UnmarshalRecords(data []byte) ([]AnalysisRecord, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var records []AnalysisRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("unmarshal records: %w", err)
	}
	return records, nil
}
