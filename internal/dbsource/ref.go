package dbsource

import (
	"regexp"
	"strings"

	"github.com/ginjaninja78/country-normalizer/internal/config"
)

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ColumnRef names the column to normalize. Table may be schema-qualified
// ("sales.customers").
type ColumnRef struct {
	Schema string
	Table  string
	Column string
}

// ParseColumnRef parses "table.column" or "schema.table.column". The column
// is everything after the last dot.
func ParseColumnRef(s string) (ColumnRef, error) {
	var ref ColumnRef
	i := strings.LastIndex(s, ".")
	if i < 0 {
		return ref, config.Errorf("invalid column reference %q: expected table.column", s)
	}
	table, column := s[:i], s[i+1:]
	if column == "" {
		return ref, config.Errorf("invalid column reference %q: column name is empty", s)
	}
	if table == "" {
		return ref, config.Errorf("invalid column reference %q: table name is empty", s)
	}
	parts := []string{column}
	if schema, name, ok := strings.Cut(table, "."); ok {
		ref.Schema, table = schema, name
		parts = append(parts, schema)
	}
	ref.Table, ref.Column = table, column
	parts = append(parts, table)

	for _, part := range parts {
		if !identifier.MatchString(part) {
			return ColumnRef{}, config.Errorf("invalid column reference %q: %q is not a valid identifier", s, part)
		}
	}
	return ref, nil
}

func (r ColumnRef) String() string {
	if r.Schema == "" {
		return r.Table + "." + r.Column
	}
	return r.Schema + "." + r.Table + "." + r.Column
}

// QualifiedTable returns the quoted, optionally schema-qualified table name.
func (r ColumnRef) QualifiedTable() string {
	if r.Schema == "" {
		return quote(r.Table)
	}
	return quote(r.Schema) + "." + quote(r.Table)
}

// QuotedColumn returns the quoted column name.
func (r ColumnRef) QuotedColumn() string {
	return quote(r.Column)
}

// quote wraps a validated identifier in double quotes, which both SQLite and
// PostgreSQL accept.
func quote(ident string) string {
	return `"` + ident + `"`
}
