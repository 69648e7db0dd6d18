package sfosql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"
)

// SQLite extended result codes for uniqueness violations.
const (
	sqliteConstraintPrimaryKey = 1555
	sqliteConstraintUnique     = 2067
)

func init() {
	// modernc registers as "sqlite", which sqlx does not know by default.
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// SQLiteDialect is the dialect for the embedded SQLite engine, backed by
// the CGO-free modernc.org/sqlite driver.
type SQLiteDialect struct{}

func (SQLiteDialect) Name() string       { return "sqlite" }
func (SQLiteDialect) DriverName() string { return "sqlite" }

// DSN applies the busy timeout and optional journal mode as URI pragmas.
// The database file is created if missing (driver default).
func (SQLiteDialect) DSN(cfg Config) (string, error) {
	dsn := cfg.URI
	if dsn == ":memory:" {
		return dsn, nil
	}
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	dsn += fmt.Sprintf("%s_pragma=busy_timeout(%d)", sep, cfg.BusyTimeout.Milliseconds())
	if cfg.JournalMode != "" {
		dsn += fmt.Sprintf("&_pragma=journal_mode(%s)", cfg.JournalMode)
	}
	return dsn, nil
}

// Normalize maps SQLite native errors onto the domain taxonomy. Both the
// primary-key and unique-index constraint codes report AlreadyExists; SQLite
// distinguishes them (1555 vs 2067) but callers must not have to.
func (SQLiteDialect) Normalize(err error, query string) error {
	if mapped, done := normalizeCommon(err, query); done {
		return mapped
	}

	var serr *sqlite.Error
	if errors.As(err, &serr) {
		switch serr.Code() {
		case sqliteConstraintPrimaryKey, sqliteConstraintUnique:
			return &Error{
				Code:    CodeAlreadyExists,
				Message: "already exists",
				Query:   query,
				Cause:   err,
			}
		}
	}

	return &Error{
		Code:    CodeFailed,
		Message: err.Error(),
		Query:   query,
		Cause:   err,
	}
}

// ColumnExists pattern-matches the column name inside the table's stored
// CREATE TABLE text in sqlite_master. This is a weak heuristic: a query
// failure of any kind, not just zero rows, reads as "does not exist", and a
// column name appearing anywhere in the definition matches.
func (d SQLiteDialect) ColumnExists(ctx context.Context, conn *Conn, table, column, _ string) (bool, error) {
	stmt := NewStatement(
		`select * from sqlite_master where type = 'table' and tbl_name = ? and sql like ?`,
		table, "%"+column+"%",
	)
	if _, err := conn.QueryOne(ctx, stmt); err != nil {
		return false, nil
	}
	return true, nil
}

// IndexExists looks the index up by name in sqlite_master. Same failure
// semantics as ColumnExists.
func (d SQLiteDialect) IndexExists(ctx context.Context, conn *Conn, table, index, _ string) (bool, error) {
	stmt := NewStatement(
		`select * from sqlite_master where type = 'index' and tbl_name = ? and name = ?`,
		table, index,
	)
	if _, err := conn.QueryOne(ctx, stmt); err != nil {
		return false, nil
	}
	return true, nil
}

var _ Dialect = SQLiteDialect{}
