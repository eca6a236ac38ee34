package domain

// Population thresholds for each tier. Comparisons are strict.
const (
	extremePopulation  = 50000
	highPopulation     = 10000
	moderatePopulation = 2000

	extremeRatio  = 1.0
	highRatio     = 0.7
	moderateRatio = 0.3
)

// Ratio returns simulated rainfall divided by the historical maximum, or 0
// when the historical maximum is unknown.
func Ratio(rec AnalysisRecord) float64 {
	if rec.HistoricalMaxRainfallMm > 0 {
		return rec.SimulatedRainfallMm / rec.HistoricalMaxRainfallMm
	}
	return 0
}

// HasBaseline reports whether the record carries a historical maximum.
func HasBaseline(rec AnalysisRecord) bool {
	return rec.HistoricalMaxRainfallMm > 0
}

// Classify maps a record to a severity tier. The first matching rule wins:
// the ratio and population clauses of each rule are OR-ed.
func Classify(rec AnalysisRecord) SeverityTier {
	ratio := Ratio(rec)
	pop := rec.PopulationAtRisk

	switch {
	case ratio > extremeRatio || pop > extremePopulation:
		return SeverityExtreme
	case ratio > highRatio || pop > highPopulation:
		return SeverityHigh
	case ratio > moderateRatio || pop > moderatePopulation:
		return SeverityModerate
	default:
		return SeverityLow
	}
}
