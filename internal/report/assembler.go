// Package report produces renderer-ready report fields for basket records.
package report

import (
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/flood-report-basket/internal/domain"
	"github.com/couchcryptid/flood-report-basket/internal/observability"
	"github.com/jonboulle/clockwork"
	"github.com/patrickmn/go-cache"
)

// Assembler stamps reports with the current date in the report time zone and
// caches them per record and report date. Records never change after they are
// stored, so a cached report is never stale.
type Assembler struct {
	clock    clockwork.Clock
	location *time.Location
	cache    *cache.Cache
	metrics  *observability.Metrics
}

// NewAssembler creates an Assembler. A ttl of zero or less disables caching.
func NewAssembler(clock clockwork.Clock, location *time.Location, ttl time.Duration, metrics *observability.Metrics) *Assembler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if location == nil {
		location = time.UTC
	}
	a := &Assembler{
		clock:    clock,
		location: location,
		metrics:  metrics,
	}
	if ttl > 0 {
		a.cache = cache.New(ttl, ttl*2)
	}
	return a
}

// Now returns the assembler's current time in the report time zone.
func (a *Assembler) Now() time.Time {
	return a.clock.Now().In(a.location)
}

// Assemble returns the report fields for a stored record.
func (a *Assembler) Assemble(rec domain.AnalysisRecord) domain.ReportFields {
	if a.cache == nil {
		return domain.AssembleReport(rec, a.Now())
	}

	now := a.Now()
	key := cacheKey(rec.ID, now)
	if cached, found := a.cache.Get(key); found {
		if fields, ok := cached.(domain.ReportFields); ok {
			a.metrics.ReportCache.WithLabelValues("hit").Inc()
			return fields
		}
	}
	a.metrics.ReportCache.WithLabelValues("miss").Inc()

	fields := domain.AssembleReport(rec, now)
	a.cache.Set(key, fields, cache.DefaultExpiration)
	return fields
}

// Preview returns report fields for a record that was never stored. Previews
// are not cached.
func (a *Assembler) Preview(rec domain.AnalysisRecord) domain.ReportFields {
	return domain.AssembleReport(rec, a.Now())
}

// Forget drops every cached report for id.
func (a *Assembler) Forget(id int64) {
	if a.cache == nil {
		return
	}
	prefix := strconv.FormatInt(id, 10) + "|"
	for key := range a.cache.Items() {
		if strings.HasPrefix(key, prefix) {
			a.cache.Delete(key)
		}
	}
}

// Flush drops every cached report.
func (a *Assembler) Flush() {
	if a.cache != nil {
		a.cache.Flush()
	}
}

func cacheKey(id int64, now time.Time) string {
	return strconv.FormatInt(id, 10) + "|" + now.Format(time.DateOnly)
}
