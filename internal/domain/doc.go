// Package domain models flood-analysis results produced by an external
// geospatial platform and the pure logic applied to them before they are
// stored in the report basket.
//
// # Data Source
//
// Analyses are computed server-side by the platform (DEM mosaicking, HAND
// terrain classification, zonal statistics). When a run completes, the
// platform hands the result to this service as a flat string mapping, either
// as URL query parameters or as a JSON object on the source topic. Nothing in
// this package performs hydrology; it only classifies and describes numbers.
//
// # Field Conventions
//
// Areas are hectares, rainfall is millimetres, population is a head count.
// Every numeric field is non-negative after ingestion; absent or malformed
// values become 0. A historical maximum rainfall of 0 means "unknown".
//
//	totalArea is supplied independently of highArea+medArea+lowArea.
//	Upstream rounds each figure to two decimals, so the sum usually differs
//	from the total by a few hundredths. No reconciliation is attempted.
//
// # Severity Classification
//
// The rainfall ratio is simulated rainfall divided by the 40-year historical
// maximum (0 when the maximum is unknown). Rules are evaluated in order and
// the first match wins; every comparison is strict:
//
//	EXTREME:  ratio > 1.0 or population > 50,000
//	HIGH:     ratio > 0.7 or population > 10,000
//	MODERATE: ratio > 0.3 or population > 2,000
//	LOW:      otherwise
//
// With an unknown baseline the ratio is 0, so only the population clauses
// can raise the tier.
//
// # Record Identity
//
// Record IDs are creation timestamps in Unix milliseconds, assigned by the
// basket when the record is added. They are unique within a basket and never
// change.
package domain
