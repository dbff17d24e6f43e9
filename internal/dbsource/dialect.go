package dbsource

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	_ "modernc.org/sqlite"             // registers the "sqlite" driver

	"github.com/ginjaninja78/country-normalizer/internal/config"
)

// Dialect identifies the database engine behind a connection string.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

var sqliteExtensions = []string{".db", ".sqlite", ".sqlite3"}

// Conn is a parsed connection string.
type Conn struct {
	Dialect Dialect

	// DSN is what is handed to the driver.
	DSN string

	// Path is the database file for SQLite, empty otherwise.
	Path string
}

// ParseConn detects the dialect of locator and builds the driver DSN.
// Accepted forms:
//
//	sqlite://path/to.db, sqlite:///abs/path.db
//	file:path.db?mode=rw
//	path/to.db (also .sqlite, .sqlite3)
//	postgres://... , postgresql://...
func ParseConn(locator string, busyTimeout time.Duration) (Conn, error) {
	s := strings.TrimSpace(locator)
	switch {
	case s == "":
		return Conn{}, config.Errorf("database connection string is empty")
	case strings.HasPrefix(s, "postgres://"), strings.HasPrefix(s, "postgresql://"):
		return Conn{Dialect: Postgres, DSN: s}, nil
	case strings.HasPrefix(s, "sqlite://"):
		return sqliteConn(strings.TrimPrefix(s, "sqlite://"), busyTimeout), nil
	case strings.HasPrefix(s, "file:"):
		path, _, _ := strings.Cut(strings.TrimPrefix(s, "file:"), "?")
		c := sqliteConn(s, busyTimeout)
		c.Path = path
		return c, nil
	}
	for _, ext := range sqliteExtensions {
		if strings.EqualFold(filepath.Ext(s), ext) {
			return sqliteConn(s, busyTimeout), nil
		}
	}
	return Conn{}, config.Errorf("unsupported database connection string %q (expected sqlite://, file:, *.db or postgres://)", redact(s))
}

func sqliteConn(dsn string, busyTimeout time.Duration) Conn {
	path, _, _ := strings.Cut(dsn, "?")
	if busyTimeout > 0 {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn = fmt.Sprintf("%s%s_pragma=busy_timeout(%d)", dsn, sep, busyTimeout.Milliseconds())
	}
	return Conn{Dialect: SQLite, DSN: dsn, Path: path}
}

// String returns the connection string with any password masked.
func (c Conn) String() string {
	return redact(c.DSN)
}

func (c Conn) driver() string {
	if c.Dialect == Postgres {
		return "pgx"
	}
	return "sqlite"
}

func (c Conn) builder() squirrel.StatementBuilderType {
	if c.Dialect == Postgres {
		return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	}
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)
}

// tableQuery selects the name of ref's table if it exists.
func (c Conn) tableQuery(ref ColumnRef) squirrel.SelectBuilder {
	b := c.builder()
	if c.Dialect == Postgres {
		return b.Select("table_name").
			From("information_schema.tables").
			Where(schemaFilter(ref)).
			Where(squirrel.Eq{"table_name": ref.Table})
	}
	master := "sqlite_master"
	if ref.Schema != "" {
		master = quote(ref.Schema) + ".sqlite_master"
	}
	return b.Select("name").
		From(master).
		Where(squirrel.Eq{"type": []string{"table", "view"}}).
		Where("name = ? COLLATE NOCASE", ref.Table)
}

// columnQuery selects the name of ref's column if it exists.
func (c Conn) columnQuery(ref ColumnRef) squirrel.SelectBuilder {
	b := c.builder()
	if c.Dialect == Postgres {
		return b.Select("column_name").
			From("information_schema.columns").
			Where(schemaFilter(ref)).
			Where(squirrel.Eq{"table_name": ref.Table, "column_name": ref.Column})
	}
	// Identifiers are validated, so they can be inlined as literals.
	from := fmt.Sprintf("pragma_table_info('%s')", ref.Table)
	if ref.Schema != "" {
		from = fmt.Sprintf("pragma_table_info('%s', '%s')", ref.Table, ref.Schema)
	}
	return b.Select("name").
		From(from).
		Where("name = ? COLLATE NOCASE", ref.Column)
}

func schemaFilter(ref ColumnRef) squirrel.Sqlizer {
	if ref.Schema == "" {
		return squirrel.Expr("table_schema = current_schema()")
	}
	return squirrel.Eq{"table_schema": ref.Schema}
}

func redact(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.User == nil {
		return dsn
	}
	return u.Redacted()
}
