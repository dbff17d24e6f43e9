// =============================================================================
// Country Normalizer - Relational Adapter
// =============================================================================
//
// This adapter rewrites one column of one database table in place.
//
// PIPELINE:
//   1. Open a connection (closed again when Normalize returns)
//   2. Check that the table and the column exist
//   3. Snapshot the distinct non-NULL values of the column
//   4. Resolve every distinct value and group the ones that change by their
//      new value
//   5. Issue one UPDATE per group:
//        UPDATE t SET c = <new> WHERE c IN (<old values>)
//
// There is no surrounding transaction. Every UPDATE is a single atomic
// statement, so a failure after some groups leaves the updated groups in
// their new form and the rest as they were; running again resumes the work.
//
// =============================================================================

package dbsource

import (
	"cmp"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/sqlscan"

	"github.com/ginjaninja78/country-normalizer/internal/config"
	"github.com/ginjaninja78/country-normalizer/internal/countries"
	"github.com/ginjaninja78/country-normalizer/internal/logger"
	"github.com/ginjaninja78/country-normalizer/internal/types"
)

// Options configures a relational normalization target.
type Options struct {
	// Column is "table.column" or "schema.table.column".
	Column string

	// To is the output format.
	To countries.Format

	// BusyTimeout is how long SQLite waits on a locked database.
	BusyTimeout time.Duration

	// DryRun resolves and reports without issuing any UPDATE.
	DryRun bool
}

// Adapter normalizes a database column.
type Adapter struct {
	opts     Options
	ref      ColumnRef
	resolver types.Resolver
}

// New validates opts and returns an adapter. An invalid column reference is
// rejected here, before any connection is made.
func New(opts Options, resolver types.Resolver) (*Adapter, error) {
	ref, err := ParseColumnRef(opts.Column)
	if err != nil {
		return nil, err
	}
	if !opts.To.Valid() {
		return nil, config.Errorf("unknown output format %q", opts.To)
	}
	return &Adapter{opts: opts, ref: ref, resolver: resolver}, nil
}

// Normalize rewrites the column in the database identified by locator.
func (a *Adapter) Normalize(ctx context.Context, locator string) (types.Result, error) {
	start := time.Now()
	log := logger.FromContext(ctx).With("column", a.ref.String())
	res := types.Result{Target: a.ref.String()}

	conn, err := ParseConn(locator, a.opts.BusyTimeout)
	if err != nil {
		return res, err
	}
	db, err := open(ctx, conn)
	if err != nil {
		return res, err
	}
	defer db.Close()

	if err := a.checkSchema(ctx, db, conn); err != nil {
		return res, err
	}

	values, err := a.distinctValues(ctx, db, conn)
	if err != nil {
		return res, err
	}
	log.Info("Snapshot distinct values", "count", len(values))

	groups := a.plan(values, &res)
	for _, g := range groups {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if a.opts.DryRun {
			log.Info("Would update values", "from", g.from, "to", g.to)
			continue
		}
		n, err := a.update(ctx, db, conn, g)
		if err != nil {
			return res, fmt.Errorf("failed to update %s to %q: %w", a.ref, g.to, err)
		}
		res.Updates++
		res.RowsAffected += n
		res.Written = true
		log.Info("Updated values", "from", g.from, "to", g.to, "rows", n)
	}

	res.Duration = time.Since(start)
	return res, nil
}

func open(ctx context.Context, conn Conn) (*sql.DB, error) {
	if conn.Dialect == SQLite {
		if _, err := os.Stat(conn.Path); errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("database file %s does not exist", conn.Path)
		}
	}
	db, err := sql.Open(conn.driver(), conn.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", conn, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %s: %w", conn, err)
	}
	return db, nil
}

func (a *Adapter) checkSchema(ctx context.Context, db *sql.DB, conn Conn) error {
	found, err := exists(ctx, db, conn.tableQuery(a.ref))
	if err != nil {
		return fmt.Errorf("failed to look up table %s: %w", a.ref.Table, err)
	}
	if !found {
		return config.Errorf("table %q does not exist", a.ref.Table)
	}

	found, err = exists(ctx, db, conn.columnQuery(a.ref))
	if err != nil {
		return fmt.Errorf("failed to look up column %s: %w", a.ref, err)
	}
	if !found {
		return config.Errorf("column %q does not exist on table %q", a.ref.Column, a.ref.Table)
	}
	return nil
}

func exists(ctx context.Context, db *sql.DB, q squirrel.Sqlizer) (bool, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return false, err
	}
	var names []string
	if err := sqlscan.Select(ctx, db, &names, query, args...); err != nil {
		return false, err
	}
	return len(names) > 0, nil
}

// distinctValues returns the column's distinct values as the driver reports
// them. The values keep their storage type so they can be bound back into the
// UPDATE unchanged; in a column without a declared type SQLite does not match
// the integer 840 against the text '840'.
func (a *Adapter) distinctValues(ctx context.Context, db *sql.DB, conn Conn) ([]any, error) {
	col := a.ref.QuotedColumn()
	query, args, err := conn.builder().
		Select(col).
		Distinct().
		From(a.ref.QualifiedTable()).
		Where(squirrel.NotEq{col: nil}).
		OrderBy(col).
		ToSql()
	if err != nil {
		return nil, err
	}
	var values []any
	if err := sqlscan.Select(ctx, db, &values, query, args...); err != nil {
		return nil, fmt.Errorf("failed to read distinct values of %s: %w", a.ref, err)
	}
	return values, nil
}

// group is the set of original values that resolve to the same new value.
type group struct {
	to   string
	from []any
}

// plan resolves every distinct value and returns the groups to update,
// ordered by new value.
func (a *Adapter) plan(values []any, res *types.Result) []group {
	byTarget := make(map[string][]any)
	for _, v := range values {
		if out, changed := res.Normalize(a.resolver, text(v), a.opts.To); changed {
			byTarget[out] = append(byTarget[out], v)
		}
	}

	groups := make([]group, 0, len(byTarget))
	for to, from := range byTarget {
		groups = append(groups, group{to: to, from: from})
	}
	slices.SortFunc(groups, func(x, y group) int {
		return cmp.Compare(x.to, y.to)
	})
	return groups
}

// text renders a scanned value the way it is resolved.
func text(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}

func (a *Adapter) update(ctx context.Context, db *sql.DB, conn Conn, g group) (int64, error) {
	query, args, err := updateQuery(conn, a.ref, g).ToSql()
	if err != nil {
		return 0, err
	}
	logger.FromContext(ctx).Debug("Executing update", "sql", query, "args", len(args))

	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func updateQuery(conn Conn, ref ColumnRef, g group) squirrel.UpdateBuilder {
	col := ref.QuotedColumn()
	return conn.builder().
		Update(ref.QualifiedTable()).
		Set(col, g.to).
		Where(squirrel.Eq{col: g.from})
}
