package domain

import (
	"fmt"
	"strings"
)

// NoBaselinePhrase replaces the ratio percentage in narratives when the
// historical maximum rainfall is unknown.
const NoBaselinePhrase = "no available 40-year CHIRPS baseline"

const bullet = "• "

var recommendations = map[SeverityTier][]string{
	SeverityExtreme: {
		"IMMEDIATE: Issue mandatory evacuation orders for all Red-zone communities",
		"Activate the Municipal/City DRRM Operations Center at full capacity",
		"Pre-position rescue boats and emergency medical teams in high-risk barangays",
		"Coordinate with NDRRMC and the regional OCD for resource augmentation",
		"Enforce road closures on flood-prone corridors and deploy traffic management",
		"Declare a state of calamity and open emergency procurement channels",
	},
	SeverityHigh: {
		"Issue a pre-emptive evacuation advisory for all Critical Inundation (Red) zones",
		"Place the MDRRMO on Action Mode with 24/7 monitoring of river gauges",
		"Alert barangay captains in flood-prone areas to prepare community evacuation",
		"Coordinate with DA and PCIC for early agricultural loss documentation",
		"Open evacuation centers in identified safe zones above flood elevation",
	},
	SeverityModerate: {
		"Issue a Yellow Alert for flood-prone communities adjacent to drainage networks",
		"Clear and inspect primary and secondary drainage infrastructure",
		"Alert barangay councils to monitor local water level indicators",
		"Prepare evacuation lists for residents in Low-to-Moderate risk zones",
		"Advise farmers with exposed crops to harvest early or protect standing crops",
	},
	SeverityLow: {
		"Conduct routine drainage maintenance and canal clearing operations",
		"Continue standard weather and river level monitoring protocols",
		"Keep community flood preparedness materials updated and distributed",
		"Review and test communication channels between the MDRRMO and barangays",
	},
}

// ratioPhrase describes the rainfall ratio for narratives.
func ratioPhrase(rec AnalysisRecord) string {
	if !HasBaseline(rec) {
		return NoBaselinePhrase
	}
	return fmt.Sprintf("%s%% of the 40-year historical rainfall maximum (%s mm)",
		formatPercent(Ratio(rec)), formatNumber(rec.HistoricalMaxRainfallMm))
}

// RatioSummary is the one-line rainfall context shown on basket cards.
func RatioSummary(rec AnalysisRecord) string {
	if !HasBaseline(rec) {
		return "No historical baseline"
	}
	return formatPercent(Ratio(rec)) + "% of 40-yr max"
}

// Interpret returns the narrative paragraph for a record at the given tier.
// The MODERATE narrative names only the municipality. Unrecognized tiers are
// described as LOW.
func Interpret(rec AnalysisRecord, tier SeverityTier) string {
	rain := formatNumber(rec.SimulatedRainfallMm)
	ratio := ratioPhrase(rec)
	place := placeName(rec)
	area := formatNumber(rec.TotalFloodAreaHa)
	pop := formatCount(rec.PopulationAtRisk)
	built := formatNumber(rec.BuiltAreaHa)
	crops := formatNumber(rec.CropAreaHa)

	switch tier {
	case SeverityExtreme:
		return fmt.Sprintf("The simulated rainfall of %s mm represents %s for %s. "+
			"This constitutes an UNPRECEDENTED hydrological extreme that surpasses historical typhoon records. "+
			"The HAND model projects critical inundation across %s hectares, with an estimated %s residents directly threatened. "+
			"Immediate escalation to disaster response protocols is warranted.",
			rain, ratio, place, area, pop)
	case SeverityHigh:
		return fmt.Sprintf("The %s mm simulation for %s registers at %s. "+
			"This is equivalent to a major typhoon-class event in local flood history. "+
			"The HAND-derived flood model identifies %s ha of critical inundation, directly threatening an estimated %s residents. "+
			"Residential exposure of %s ha and agricultural damage of %s ha signal significant socio-economic impact.",
			rain, place, ratio, area, pop, built, crops)
	case SeverityModerate:
		return fmt.Sprintf("The %s mm rainfall scenario for %s reaches %s. "+
			"This represents a significant but manageable hydrometeorological event. "+
			"Flood susceptibility mapping via MERIT-Hydro HAND indicates %s ha at critical risk. "+
			"Approximately %s individuals reside in inundation zones, with %s ha of built-up area and %s ha of farmland exposed.",
			rain, rec.Municipality, ratio, area, pop, built, crops)
	default:
		return fmt.Sprintf("The %s mm simulation for %s is within %s. "+
			"This falls within routine seasonal rainfall parameters for the area. "+
			"The HAND model projects limited flooding of %s ha in total, affecting an estimated %s people. "+
			"Standard monitoring protocols are appropriate at this simulation level.",
			rain, place, ratio, area, pop)
	}
}

// Recommend returns the ordered recommendation list for a tier. The returned
// slice is a copy and may be modified by the caller.
func Recommend(_ AnalysisRecord, tier SeverityTier) []string {
	recs, ok := recommendations[tier]
	if !ok {
		recs = recommendations[SeverityLow]
	}
	out := make([]string, len(recs))
	copy(out, recs)
	return out
}

// JoinRecommendations renders recommendations as bulleted, newline-separated text.
func JoinRecommendations(recs []string) string {
	lines := make([]string, len(recs))
	for i, r := range recs {
		lines[i] = bullet + r
	}
	return strings.Join(lines, "\n")
}
