// =============================================================================
// Country Normalizer - Shared Types
// =============================================================================
//
// This package contains shared types used across multiple modules to avoid
// import cycles. Types defined here are used by:
//   - batch
//   - csvsource, xmlsource, xlsxsource, dbsource
//   - normalizer
//
// =============================================================================

package types

import (
	"strings"
	"time"

	"github.com/ginjaninja78/country-normalizer/internal/countries"
)

// =============================================================================
// RESOLUTION
// =============================================================================

// Resolver maps a raw value to a country representation. The second return
// value is false when the value is unresolved; callers then keep the original.
type Resolver interface {
	Resolve(input string, to countries.Format) (string, bool)
}

// =============================================================================
// RESULTS
// =============================================================================

// Result represents the outcome of normalizing a single target: one file, or
// one database column.
type Result struct {
	// Target is the file path or the table.column that was processed.
	Target string

	// Values is the number of candidate values inspected (data cells, matched
	// XML nodes, or distinct database values).
	Values int

	// Changed is the number of values that were rewritten.
	Changed int

	// Unresolved is the number of non-empty values that matched no country.
	Unresolved int

	// Updates is the number of UPDATE statements issued. Always zero for file
	// targets.
	Updates int

	// RowsAffected is the number of database rows updated. Always zero for
	// file targets.
	RowsAffected int64

	// Written reports whether the target was actually modified. It is false
	// when nothing changed or during a dry run.
	Written bool

	// Duration is the time taken to process the target.
	Duration time.Duration
}

// Normalize resolves value into format to and records the outcome in res.
// It returns the replacement and true only when value must be rewritten:
// unresolved values and values already in canonical form are left alone.
func (res *Result) Normalize(r Resolver, value string, to countries.Format) (string, bool) {
	res.Values++
	out, ok := r.Resolve(value, to)
	if !ok {
		if strings.TrimSpace(value) != "" {
			res.Unresolved++
		}
		return value, false
	}
	if out == value {
		return value, false
	}
	res.Changed++
	return out, true
}
