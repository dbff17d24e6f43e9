// =============================================================================
// Country Normalizer - Spreadsheet Adapter
// =============================================================================
//
// This adapter rewrites one column of XLSX workbooks in place.
//
// LOCATION SYNTAX:
//   "Country"          the column headed "Country" on every sheet that has it
//   "Sales!Country"    the column headed "Country" on sheet "Sales" only
//
// The first row of a sheet is its header row. Only cells that hold text are
// considered; numbers, dates, booleans and formulas are left alone.
//
// =============================================================================

package xlsxsource

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/country-normalizer/internal/batch"
	"github.com/ginjaninja78/country-normalizer/internal/config"
	"github.com/ginjaninja78/country-normalizer/internal/countries"
	"github.com/ginjaninja78/country-normalizer/internal/logger"
	"github.com/ginjaninja78/country-normalizer/internal/types"
	"github.com/ginjaninja78/country-normalizer/pkg/utils"
)

// Pattern selects the files of a directory.
const Pattern = "*.xlsx"

// =============================================================================
// OPTIONS
// =============================================================================

// Options configures a spreadsheet normalization target.
type Options struct {
	// Location is "[Sheet!]column".
	Location string

	// To is the output format.
	To countries.Format

	// Batch controls how the files of a directory are processed.
	Batch batch.Policy
}

// Location is a parsed "[Sheet!]column" reference.
type Location struct {
	// Sheet restricts the column to one sheet. Empty means every sheet.
	Sheet string

	// Column is the header text of the column.
	Column string
}

// ParseLocation splits s at its first "!".
func ParseLocation(s string) (Location, error) {
	var loc Location
	if sheet, column, ok := strings.Cut(s, "!"); ok {
		if strings.TrimSpace(sheet) == "" {
			return loc, config.Errorf("invalid location %q: sheet name is empty", s)
		}
		loc.Sheet, loc.Column = sheet, column
	} else {
		loc.Column = s
	}
	if strings.TrimSpace(loc.Column) == "" {
		return loc, config.Errorf("invalid location %q: column name is empty", s)
	}
	return loc, nil
}

func (l Location) String() string {
	if l.Sheet == "" {
		return l.Column
	}
	return l.Sheet + "!" + l.Column
}

// =============================================================================
// ADAPTER
// =============================================================================

// Adapter normalizes a column of XLSX workbooks.
type Adapter struct {
	opts     Options
	loc      Location
	resolver types.Resolver
	files    *utils.FileManager
}

// New validates opts and returns an adapter.
func New(opts Options, resolver types.Resolver, files *utils.FileManager) (*Adapter, error) {
	loc, err := ParseLocation(opts.Location)
	if err != nil {
		return nil, err
	}
	if !opts.To.Valid() {
		return nil, config.Errorf("unknown output format %q", opts.To)
	}
	return &Adapter{opts: opts, loc: loc, resolver: resolver, files: files}, nil
}

// Normalize rewrites path, or every *.xlsx file directly inside it when path
// is a directory.
func (a *Adapter) Normalize(ctx context.Context, path string) ([]types.Result, error) {
	runner := &batch.Runner{
		Files:   a.files,
		Pattern: Pattern,
		Process: a.NormalizeFile,
		Policy:  a.opts.Batch,
	}
	return runner.Run(ctx, path)
}

// NormalizeFile rewrites a single workbook.
func (a *Adapter) NormalizeFile(ctx context.Context, path string) (types.Result, error) {
	start := time.Now()
	log := logger.FromContext(ctx)
	res := types.Result{Target: path}

	data, err := a.files.ReadFile(path)
	if err != nil {
		return res, err
	}
	book, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return res, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer book.Close()

	columns, err := a.locate(book, path)
	if err != nil {
		return res, err
	}

	for _, sc := range columns {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		log.Debug("Normalizing sheet", "file", path, "sheet", sc.sheet, "column", sc.index+1)
		if err := a.rewriteColumn(book, sc, &res); err != nil {
			return res, fmt.Errorf("failed to update sheet %q of %s: %w", sc.sheet, path, err)
		}
	}

	res.Written, err = a.files.ReplaceAtomic(path, func(w io.Writer) error {
		if res.Changed == 0 {
			return utils.ErrNoChange
		}
		if _, err := book.WriteTo(w); err != nil {
			return fmt.Errorf("failed to serialize %s: %w", path, err)
		}
		return nil
	})
	if err != nil {
		return res, err
	}

	res.Duration = time.Since(start)
	return res, nil
}

// sheetColumn is a located column: the sheet, the 0-based column index and
// the sheet's rows as read.
type sheetColumn struct {
	sheet string
	index int
	rows  [][]string
}

func (a *Adapter) locate(book *excelize.File, path string) ([]sheetColumn, error) {
	sheets := book.GetSheetList()
	if a.loc.Sheet != "" {
		idx, err := book.GetSheetIndex(a.loc.Sheet)
		if err != nil {
			return nil, config.Errorf("invalid sheet name %q: %w", a.loc.Sheet, err)
		}
		if idx < 0 {
			return nil, config.Errorf("sheet %q not found in %s (sheets: %s)",
				a.loc.Sheet, path, strings.Join(sheets, ", "))
		}
		sheets = []string{a.loc.Sheet}
	}

	var found []sheetColumn
	for _, sheet := range sheets {
		rows, err := book.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %q of %s: %w", sheet, path, err)
		}
		if len(rows) == 0 {
			continue
		}
		if idx := utils.ColumnIndex(rows[0], a.loc.Column); idx >= 0 {
			found = append(found, sheetColumn{sheet: sheet, index: idx, rows: rows})
		}
	}
	if len(found) == 0 {
		return nil, config.Errorf("column %q not found in %s", a.loc.String(), path)
	}
	return found, nil
}

func (a *Adapter) rewriteColumn(book *excelize.File, sc sheetColumn, res *types.Result) error {
	for r := 1; r < len(sc.rows); r++ {
		row := sc.rows[r]
		if sc.index >= len(row) || strings.TrimSpace(row[sc.index]) == "" {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(sc.index+1, r+1)
		if err != nil {
			return err
		}
		text, err := isText(book, sc.sheet, cell)
		if err != nil {
			return err
		}
		if !text {
			continue
		}
		if out, changed := res.Normalize(a.resolver, row[sc.index], a.opts.To); changed {
			if err := book.SetCellStr(sc.sheet, cell, out); err != nil {
				return fmt.Errorf("cell %s: %w", cell, err)
			}
		}
	}
	return nil
}

func isText(book *excelize.File, sheet, cell string) (bool, error) {
	typ, err := book.GetCellType(sheet, cell)
	if err != nil {
		return false, err
	}
	switch typ {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString:
		return true, nil
	default:
		return false, nil
	}
}
