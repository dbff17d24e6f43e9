// =============================================================================
// Country Normalizer - Resolver
// =============================================================================
//
// The resolver maps a raw value found in a data source to the requested
// output format. It never fails: a value that cannot be matched is reported
// as unresolved and the caller keeps the original.
//
// =============================================================================

package resolver

import (
	"strings"
	"sync/atomic"

	"github.com/ginjaninja78/country-normalizer/internal/countries"
)

// Resolver resolves raw values against a country table. It is safe for
// concurrent use.
type Resolver struct {
	table *countries.Table

	hits   atomic.Int64
	misses atomic.Int64
}

// Stats counts resolution outcomes since the resolver was created.
type Stats struct {
	Resolved   int64
	Unresolved int64
}

// New returns a resolver over table.
func New(table *countries.Table) *Resolver {
	return &Resolver{table: table}
}

// NewDefault returns a resolver over the bundled country table.
func NewDefault() (*Resolver, error) {
	tbl, err := countries.Default()
	if err != nil {
		return nil, err
	}
	return New(tbl), nil
}

// Resolve maps input to its representation in format to. Surrounding
// whitespace is ignored and matching is case-insensitive. The second return
// value is false when input is empty or matches no country; the first is
// then empty.
func (r *Resolver) Resolve(input string, to countries.Format) (string, bool) {
	s := strings.TrimSpace(input)
	if s == "" {
		r.misses.Add(1)
		return "", false
	}
	rec, ok := r.table.Lookup(s)
	if !ok {
		r.misses.Add(1)
		return "", false
	}
	out, ok := rec.Field(to)
	if !ok {
		r.misses.Add(1)
		return "", false
	}
	r.hits.Add(1)
	return out, true
}

// Formats lists the output formats the resolver can produce.
func (r *Resolver) Formats() []countries.Format {
	return countries.Formats()
}

// Stats returns a snapshot of the resolution counters.
func (r *Resolver) Stats() Stats {
	return Stats{
		Resolved:   r.hits.Load(),
		Unresolved: r.misses.Load(),
	}
}
