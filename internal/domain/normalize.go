package domain

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Practice keys derived from prodn_practice_desc. A (county, year) pair must
// carry both before a row is emitted.
const (
	PracticeIrrigated = "irrigated"
	PracticeAll       = "all_production_practices"
)

// Redaction sentinels used by NASS in place of a number.
const (
	sentinelWithheld     = "(D)" // withheld to avoid disclosing individual operations
	sentinelRoundsToZero = "(Z)" // less than half the rounding unit
)

// whitespaceRe collapses internal whitespace runs when deriving practice keys,
// e.g. "All  Production Practices" -> "all_production_practices".
var whitespaceRe = regexp.MustCompile(`\s+`)

// MalformedValueError reports a Value (or year) field that is neither a known
// redaction sentinel nor a parseable number. This signals a schema change
// upstream, so it aborts normalization instead of silently dropping the record.
type MalformedValueError struct {
	Raw string
}

func (e *MalformedValueError) Error() string {
	return fmt.Sprintf("malformed value %q", e.Raw)
}

// NormalizeOptions selects which records participate in the pivot.
type NormalizeOptions struct {
	// DomainCategory is the exact domaincat_desc to keep, e.g.
	// "AREA OPERATED: (2,000 OR MORE ACRES)".
	DomainCategory string
}

// DropStats counts records excluded during normalization, by reason.
// These are expected exclusions, not errors.
type DropStats struct {
	Filtered       int // wrong aggregation level, unit, or domain category
	Redacted       int // value was a redaction sentinel
	IncompletePair int // (county, year) groups missing one of the two practices
}

// Normalize pivots raw Quick Stats records into one CountyIrrigation row per
// (county, year). It keeps county-level ACRES records in the configured
// operation-size bucket, drops redacted values, parses the rest as decimals,
// and emits a row only when both the irrigated and all-practices figures are
// present for a pair. percent_irrigated is rounded to one decimal place,
// half away from zero. Output is sorted by (region_id, year) so the result
// does not depend on input order.
func Normalize(records []RawRecord, opts NormalizeOptions) ([]CountyIrrigation, DropStats, error) {
	// Keyed by state as well as county: county FIPS codes repeat across
	// states, so an unfiltered multi-state query must not merge them.
	type pairKey struct {
		state  string
		county string
		year   int
	}
	type measures struct {
		rec       RawRecord
		irrigated *float64
		total     *float64
	}

	var stats DropStats
	groups := make(map[pairKey]*measures)

	for _, rec := range records {
		if rec.AggLevel != "COUNTY" || rec.Unit != "ACRES" || rec.DomainCategory != opts.DomainCategory {
			stats.Filtered++
			continue
		}

		value, ok, err := parseValue(rec.Value)
		if err != nil {
			return nil, stats, err
		}
		if !ok {
			stats.Redacted++
			continue
		}

		year, err := parseYear(rec.Year)
		if err != nil {
			return nil, stats, err
		}

		key := pairKey{state: rec.StateFIPS, county: rec.CountyCode, year: year}
		m := groups[key]
		if m == nil {
			m = &measures{rec: rec}
			groups[key] = m
		}

		switch PracticeKey(rec.ProdnPractice) {
		case PracticeIrrigated:
			m.irrigated = &value
		case PracticeAll:
			m.total = &value
		}
	}

	rows := make([]CountyIrrigation, 0, len(groups))
	for key, m := range groups {
		if m.irrigated == nil || m.total == nil || *m.total == 0 {
			stats.IncompletePair++
			continue
		}
		rows = append(rows, CountyIrrigation{
			RegionID:         m.rec.StateFIPS + m.rec.CountyCode,
			StateFIPS:        m.rec.StateFIPS,
			CountyCode:       key.county,
			CountyName:       m.rec.CountyName,
			Year:             key.year,
			IrrigatedAcres:   *m.irrigated,
			TotalAcres:       *m.total,
			PercentIrrigated: roundTenth(*m.irrigated / *m.total * 100),
			ProcessedAt:      clock.Now(),
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].RegionID != rows[j].RegionID {
			return rows[i].RegionID < rows[j].RegionID
		}
		return rows[i].Year < rows[j].Year
	})

	return rows, stats, nil
}

// PracticeKey turns a free-text production practice label into a stable
// identifier: lower-cased, internal whitespace runs replaced with a single
// underscore. "All Production Practices" -> "all_production_practices".
func PracticeKey(desc string) string {
	desc = strings.ToLower(strings.TrimSpace(desc))
	return whitespaceRe.ReplaceAllString(desc, "_")
}

// parseValue cleans a Quick Stats Value field. Returns ok=false for the
// redaction sentinels. A non-sentinel value that does not parse as a number
// is a MalformedValueError.
func parseValue(raw string) (float64, bool, error) {
	s := strings.TrimSpace(raw)
	if s == sentinelWithheld || s == sentinelRoundsToZero {
		return 0, false, nil
	}

	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0, false, &MalformedValueError{Raw: s}
	}
	return v, true, nil
}

func parseYear(raw string) (int, error) {
	s := strings.TrimSpace(raw)
	year, err := strconv.Atoi(s)
	if err != nil {
		return 0, &MalformedValueError{Raw: s}
	}
	return year, nil
}

// roundTenth rounds to one decimal place, half away from zero
// (math.Round semantics): 12.25 -> 12.3.
func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
