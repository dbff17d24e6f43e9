// =============================================================================
// Country Normalizer - Delimited-Text Adapter
// =============================================================================
//
// This adapter rewrites one column of CSV/TSV files in place.
//
// PIPELINE (per file):
//   1. Read the file and detect its dialect (delimiter, line ending)
//   2. Locate the configured column in the header row
//   3. Stream the data rows into a temp file, resolving the column's cells
//   4. Atomically replace the original with the temp file
//
// Rows whose cell does not change are copied byte for byte, and the header
// row is always written verbatim. A file in which nothing changes is not
// rewritten at all.
//
// =============================================================================

package csvsource

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ginjaninja78/country-normalizer/internal/batch"
	"github.com/ginjaninja78/country-normalizer/internal/config"
	"github.com/ginjaninja78/country-normalizer/internal/countries"
	"github.com/ginjaninja78/country-normalizer/internal/logger"
	"github.com/ginjaninja78/country-normalizer/internal/types"
	"github.com/ginjaninja78/country-normalizer/pkg/utils"
)

// Pattern selects the files of a directory.
const Pattern = "*.{csv,tsv}"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Options configures a delimited-text normalization target.
type Options struct {
	// Column is the header name of the column to normalize.
	Column string

	// To is the output format.
	To countries.Format

	// Delimiter forces the field delimiter. Zero means detect.
	Delimiter rune

	// Batch controls how the files of a directory are processed.
	Batch batch.Policy
}

// Adapter normalizes a column of delimited-text files.
type Adapter struct {
	opts     Options
	resolver types.Resolver
	files    *utils.FileManager
}

// New validates opts and returns an adapter.
func New(opts Options, resolver types.Resolver, files *utils.FileManager) (*Adapter, error) {
	if strings.TrimSpace(opts.Column) == "" {
		return nil, config.Errorf("csv column name is empty")
	}
	if !opts.To.Valid() {
		return nil, config.Errorf("unknown output format %q", opts.To)
	}
	return &Adapter{opts: opts, resolver: resolver, files: files}, nil
}

// Normalize rewrites path, or every *.csv and *.tsv file directly inside it
// when path is a directory.
func (a *Adapter) Normalize(ctx context.Context, path string) ([]types.Result, error) {
	runner := &batch.Runner{
		Files:   a.files,
		Pattern: Pattern,
		Process: a.NormalizeFile,
		Policy:  a.opts.Batch,
	}
	return runner.Run(ctx, path)
}

// NormalizeFile rewrites a single file.
func (a *Adapter) NormalizeFile(ctx context.Context, path string) (types.Result, error) {
	start := time.Now()
	res := types.Result{Target: path}

	data, err := a.files.ReadFile(path)
	if err != nil {
		return res, err
	}
	body, hasBOM := bytes.CutPrefix(data, utf8BOM)

	dialect := detectDialect(path, body, a.opts.Delimiter)
	logger.FromContext(ctx).Debug("Detected dialect",
		"file", path,
		"delimiter", string(dialect.Delimiter),
		"crlf", dialect.CRLF,
	)

	rows := newRowReader(body, dialect.Delimiter)
	header, headerRaw, err := rows.next()
	if errors.Is(err, io.EOF) {
		return res, config.Errorf("column %q not found in %s: file has no header row", a.opts.Column, path)
	}
	if err != nil {
		return res, fmt.Errorf("failed to parse header of %s: %w", path, err)
	}
	col := utils.ColumnIndex(header, a.opts.Column)
	if col < 0 {
		return res, config.Errorf("column %q not found in %s (columns: %s)",
			a.opts.Column, path, strings.Join(header, ", "))
	}

	res.Written, err = a.files.ReplaceAtomic(path, func(w io.Writer) error {
		if hasBOM {
			if _, err := w.Write(utf8BOM); err != nil {
				return err
			}
		}
		if _, err := w.Write(headerRaw); err != nil {
			return err
		}
		return a.rewriteRows(ctx, path, rows, col, dialect, w, &res)
	})
	if err != nil {
		return res, err
	}

	res.Duration = time.Since(start)
	return res, nil
}

func (a *Adapter) rewriteRows(ctx context.Context, path string, rows *rowReader, col int, dialect Dialect, w io.Writer, res *types.Result) error {
	for {
		if rows.row%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		record, raw, err := rows.next()
		if errors.Is(err, io.EOF) {
			if _, err := w.Write(raw); err != nil {
				return err
			}
			break
		}
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}

		if col < len(record) {
			if out, changed := res.Normalize(a.resolver, record[col], a.opts.To); changed {
				from, to := rows.fieldSpan(col, len(record), raw)
				raw = spliceField(raw, from, to, out, dialect.Delimiter)
			}
		}
		if _, err := w.Write(raw); err != nil {
			return err
		}
	}

	if res.Changed == 0 {
		return utils.ErrNoChange
	}
	return nil
}
