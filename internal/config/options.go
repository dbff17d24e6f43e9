package config

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ginjaninja78/country-normalizer/internal/countries"
)

// Source formats accepted by --format.
const (
	SourceCSV  = "csv"
	SourceXML  = "xml"
	SourceDB   = "db"
	SourceXLSX = "xlsx"
)

// SourceFormats lists the accepted --format values.
func SourceFormats() []string {
	return []string{SourceCSV, SourceXML, SourceDB, SourceXLSX}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if name := fld.Tag.Get("flag"); name != "" {
			return name
		}
		if name, _, _ := strings.Cut(fld.Tag.Get("yaml"), ","); name != "" && name != "-" {
			return name
		}
		return fld.Name
	})
	return v
}

// Options are the per-run options given on the command line.
type Options struct {
	// Format selects the adapter: csv, xml, db or xlsx.
	Format string `flag:"format" validate:"required,oneof=csv xml db xlsx"`

	// To is the output format values are normalized into.
	To string `flag:"to" validate:"required"`

	// Location is the column name (csv), path expression (xml),
	// table.column (db) or [Sheet!]column (xlsx).
	Location string `flag:"location" validate:"required"`

	// Source is the file, directory or database DSN to rewrite.
	Source string `flag:"SOURCE" validate:"required"`
}

// Validate checks the options and returns a configuration error naming the
// first offending option.
func (o Options) Validate() error {
	if err := validate.Struct(o); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) || len(verrs) == 0 {
			return Errorf("invalid options: %w", err)
		}
		fe := verrs[0]
		switch {
		case fe.Field() == "SOURCE":
			return Errorf("missing required argument SOURCE")
		case fe.Tag() == "required":
			return Errorf("missing required option --%s", fe.Field())
		case fe.Tag() == "oneof":
			return Errorf("unsupported --%s %q (supported: %s)",
				fe.Field(), fe.Value(), strings.Join(SourceFormats(), ", "))
		default:
			return Errorf("invalid option --%s: %v", fe.Field(), fe.Value())
		}
	}
	if _, err := countries.ParseFormat(o.To); err != nil {
		return Errorf("invalid option --to: %w", err)
	}
	return nil
}

// Target returns the validated output format. Call Validate first.
func (o Options) Target() countries.Format {
	return countries.Format(o.To)
}
