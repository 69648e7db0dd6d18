package sfosql

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
)

// PostgreSQL unique_violation SQLSTATE.
// See: https://www.postgresql.org/docs/current/errcodes-appendix.html
const pgUniqueViolation = "23505"

// PostgresDialect is the dialect for PostgreSQL, backed by the pgx stdlib
// driver so native errors surface as *pgconn.PgError.
type PostgresDialect struct{}

func (PostgresDialect) Name() string       { return "postgres" }
func (PostgresDialect) DriverName() string { return "pgx" }

// DSN passes the URI through, applying TLS disablement when asked.
func (PostgresDialect) DSN(cfg Config) (string, error) {
	dsn := cfg.URI
	if cfg.DisableTLS && !strings.Contains(dsn, "sslmode=") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "sslmode=disable"
	}
	return dsn, nil
}

// Normalize maps PostgreSQL native errors onto the domain taxonomy.
func (PostgresDialect) Normalize(err error, query string) error {
	if mapped, done := normalizeCommon(err, query); done {
		return mapped
	}

	var perr *pgconn.PgError
	if errors.As(err, &perr) {
		if perr.Code == pgUniqueViolation {
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

// ColumnExists counts matching rows in information_schema.columns. An empty
// schema means the connection's current schema.
func (d PostgresDialect) ColumnExists(ctx context.Context, conn *Conn, table, column, schema string) (bool, error) {
	var stmt *Statement
	if schema == "" {
		stmt = NewStatement(
			`select count(*) as c from information_schema.columns where table_schema = current_schema() and table_name = $1 and column_name = $2`,
			table, column,
		)
	} else {
		stmt = NewStatement(
			`select count(*) as c from information_schema.columns where table_schema = $1 and table_name = $2 and column_name = $3`,
			schema, table, column,
		)
	}
	row, err := conn.QueryOne(ctx, stmt)
	if err != nil {
		return false, err
	}
	return row.Int("c") > 0, nil
}

// IndexExists counts matching rows in pg_indexes.
func (d PostgresDialect) IndexExists(ctx context.Context, conn *Conn, table, index, schema string) (bool, error) {
	var stmt *Statement
	if schema == "" {
		stmt = NewStatement(
			`select count(*) as c from pg_indexes where schemaname = current_schema() and tablename = $1 and indexname = $2`,
			table, index,
		)
	} else {
		stmt = NewStatement(
			`select count(*) as c from pg_indexes where schemaname = $1 and tablename = $2 and indexname = $3`,
			schema, table, index,
		)
	}
	row, err := conn.QueryOne(ctx, stmt)
	if err != nil {
		return false, err
	}
	return row.Int("c") > 0, nil
}

var _ Dialect = PostgresDialect{}
