package domain

import (
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// formatNumber renders a measurement the shortest way that round-trips:
// 250 -> "250", 12.5 -> "12.5".
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// formatCount renders a head count with thousands separators: 15000 -> "15,000".
func formatCount(n int64) string {
	return message.NewPrinter(language.English).Sprintf("%d", n)
}

// formatPercent renders a ratio as a whole-number percentage: 1.25 -> "125".
func formatPercent(ratio float64) string {
	return strconv.FormatFloat(ratio*100, 'f', 0, 64)
}

// placeName joins municipality and province for display, omitting an empty province.
func placeName(rec AnalysisRecord) string {
	if rec.Province == "" {
		return rec.Municipality
	}
	return rec.Municipality + ", " + rec.Province
}
