package sfosql

import (
	"context"
	"errors"

	"github.com/go-sql-driver/mysql"
)

// MySQL duplicate-entry error number (ER_DUP_ENTRY).
const mysqlDupEntry = 1062

// MySQLDialect is the dialect for MySQL and compatible engines, backed by
// go-sql-driver/mysql.
type MySQLDialect struct{}

func (MySQLDialect) Name() string       { return "mysql" }
func (MySQLDialect) DriverName() string { return "mysql" }

// DSN parses the configured DSN and applies the dial/read/write timeouts
// and TLS disablement.
func (MySQLDialect) DSN(cfg Config) (string, error) {
	mc, err := mysql.ParseDSN(cfg.URI)
	if err != nil {
		return "", err
	}
	mc.Timeout = cfg.DialTimeout
	mc.ReadTimeout = cfg.ReadTimeout
	mc.WriteTimeout = cfg.WriteTimeout
	if cfg.DisableTLS {
		mc.TLSConfig = "false"
	}
	return mc.FormatDSN(), nil
}

// Normalize maps MySQL native errors onto the domain taxonomy.
func (MySQLDialect) Normalize(err error, query string) error {
	if mapped, done := normalizeCommon(err, query); done {
		return mapped
	}

	var merr *mysql.MySQLError
	if errors.As(err, &merr) {
		if merr.Number == mysqlDupEntry {
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
// schema means the connection's current database.
func (d MySQLDialect) ColumnExists(ctx context.Context, conn *Conn, table, column, schema string) (bool, error) {
	var stmt *Statement
	if schema == "" {
		stmt = NewStatement(
			`select count(*) as c from information_schema.columns where table_schema = database() and table_name = ? and column_name = ?`,
			table, column,
		)
	} else {
		stmt = NewStatement(
			`select count(*) as c from information_schema.columns where table_schema = ? and table_name = ? and column_name = ?`,
			schema, table, column,
		)
	}
	row, err := conn.QueryOne(ctx, stmt)
	if err != nil {
		return false, err
	}
	return row.Int("c") > 0, nil
}

// IndexExists counts matching rows in information_schema.statistics.
func (d MySQLDialect) IndexExists(ctx context.Context, conn *Conn, table, index, schema string) (bool, error) {
	var stmt *Statement
	if schema == "" {
		stmt = NewStatement(
			`select count(*) as c from information_schema.statistics where table_schema = database() and table_name = ? and index_name = ?`,
			table, index,
		)
	} else {
		stmt = NewStatement(
			`select count(*) as c from information_schema.statistics where table_schema = ? and table_name = ? and index_name = ?`,
			schema, table, index,
		)
	}
	row, err := conn.QueryOne(ctx, stmt)
	if err != nil {
		return false, err
	}
	return row.Int("c") > 0, nil
}

var _ Dialect = MySQLDialect{}
