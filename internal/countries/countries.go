// =============================================================================
// Country Normalizer - Canonical Country Records
// =============================================================================
//
// This package owns the canonical country table: one Record per country,
// every supported output Format, and the alias index used to match free-text
// input against the table.
//
// The table is immutable once built. Callers obtain it through Default() (the
// bundled dataset, loaded once) or NewTable() (tests, custom datasets).
//
// =============================================================================

package countries

import (
	"fmt"
	"strings"
)

// =============================================================================
// OUTPUT FORMATS
// =============================================================================

// Format names one representation of a country that a value can be
// normalized into.
type Format string

const (
	// ISO2 is the ISO 3166-1 alpha-2 code, e.g. "US".
	ISO2 Format = "iso2"

	// ISO3 is the ISO 3166-1 alpha-3 code, e.g. "USA".
	ISO3 Format = "iso3"

	// Numeric is the ISO 3166-1 numeric code, zero-padded to three digits,
	// e.g. "840".
	Numeric Format = "numeric"

	// ShortName is the common English short name, e.g. "United States".
	ShortName Format = "short_name"

	// FullName is the official English name, e.g.
	// "United States of America".
	FullName Format = "full_name"
)

var allFormats = []Format{ISO2, ISO3, Numeric, ShortName, FullName}

// Formats returns every supported output format in a stable order.
func Formats() []Format {
	out := make([]Format, len(allFormats))
	copy(out, allFormats)
	return out
}

// FormatNames returns the supported formats as plain strings.
func FormatNames() []string {
	out := make([]string, len(allFormats))
	for i, f := range allFormats {
		out[i] = string(f)
	}
	return out
}

// ParseFormat validates s against the supported formats.
func ParseFormat(s string) (Format, error) {
	for _, f := range allFormats {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown format %q (supported: %s)", s, strings.Join(FormatNames(), ", "))
}

// Valid reports whether f is one of the supported formats.
func (f Format) Valid() bool {
	_, err := ParseFormat(string(f))
	return err == nil
}

// =============================================================================
// RECORD
// =============================================================================

// Record is one country of the canonical table.
type Record struct {
	ISO2      string   `yaml:"iso2"`
	ISO3      string   `yaml:"iso3"`
	Numeric   string   `yaml:"numeric"`
	ShortName string   `yaml:"short_name"`
	FullName  string   `yaml:"full_name"`
	Aliases   []string `yaml:"aliases,omitempty"`
}

// Field returns the record's value for the given format. The second return
// value is false for an unsupported format.
func (r Record) Field(f Format) (string, bool) {
	switch f {
	case ISO2:
		return r.ISO2, true
	case ISO3:
		return r.ISO3, true
	case Numeric:
		return r.Numeric, true
	case ShortName:
		return r.ShortName, true
	case FullName:
		return r.FullName, true
	default:
		return "", false
	}
}

// names returns every string the record is known by: its codes, its names
// and its extra aliases.
func (r Record) names() []string {
	out := make([]string, 0, 5+len(r.Aliases))
	out = append(out, r.ISO2, r.ISO3, r.Numeric, r.ShortName, r.FullName)
	return append(out, r.Aliases...)
}

func (r Record) validate() error {
	switch {
	case r.ISO2 == "":
		return fmt.Errorf("record %q: missing iso2", r.ShortName)
	case r.ISO3 == "":
		return fmt.Errorf("record %q: missing iso3", r.ISO2)
	case r.Numeric == "":
		return fmt.Errorf("record %q: missing numeric", r.ISO2)
	case r.ShortName == "":
		return fmt.Errorf("record %q: missing short_name", r.ISO2)
	case r.FullName == "":
		return fmt.Errorf("record %q: missing full_name", r.ISO2)
	}
	return nil
}
