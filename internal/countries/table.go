package countries

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Table is the canonical country table with its alias index. A Table is
// read-only after NewTable returns and is safe for concurrent use.
type Table struct {
	records []Record
	index   map[string]int
}

// NewTable builds the alias index over records. Every record's codes and
// names are indexed alongside its aliases. An alias that maps to two
// different records is rejected.
func NewTable(records []Record) (*Table, error) {
	t := &Table{
		records: make([]Record, len(records)),
		index:   make(map[string]int, len(records)*6),
	}
	copy(t.records, records)

	for i, r := range t.records {
		if err := r.validate(); err != nil {
			return nil, err
		}
		for _, name := range r.names() {
			k := Key(name)
			if k == "" {
				continue
			}
			if prev, ok := t.index[k]; ok && prev != i {
				return nil, fmt.Errorf("alias %q maps to both %s and %s",
					name, t.records[prev].ISO2, r.ISO2)
			}
			t.index[k] = i
		}
	}
	return t, nil
}

// Lookup finds the record whose alias set contains s, ignoring case and
// surrounding or repeated whitespace.
func (t *Table) Lookup(s string) (Record, bool) {
	k := Key(s)
	if k == "" {
		return Record{}, false
	}
	i, ok := t.index[k]
	if !ok {
		return Record{}, false
	}
	return t.records[i], true
}

// Len returns the number of records.
func (t *Table) Len() int {
	return len(t.records)
}

// Records returns a copy of the table's records in dataset order.
func (t *Table) Records() []Record {
	out := make([]Record, len(t.records))
	copy(out, t.records)
	return out
}

// Key returns the index key for s: NFC-normalized, case-folded, trimmed and
// with inner whitespace runs collapsed to a single space.
func Key(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return ""
	}
	// A Caser keeps state and must not be shared between goroutines.
	return cases.Fold().String(norm.NFC.String(s))
}
