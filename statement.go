package sfosql

import (
	"fmt"
	"strconv"

	"github.com/jmoiron/sqlx"
)

// Statement is an opaque prepared statement value: SQL text plus bound
// parameters. The core never parses the text; it is produced by the caller
// (or a statement-builder collaborator) and passed through to the driver.
type Statement struct {
	sql   string
	args  []any
	named bool
	arg   any
}

// NewStatement builds a statement with positional parameters.
func NewStatement(sql string, args ...any) *Statement {
	return &Statement{sql: sql, args: args}
}

// NewNamedStatement builds a statement with named parameters (":name"
// placeholders) bound from a struct or map. Placeholders are rebound to the
// dialect's bindvar style at execution time.
func NewNamedStatement(sql string, arg any) *Statement {
	return &Statement{sql: sql, named: true, arg: arg}
}

// SQL returns the statement text as written.
func (s *Statement) SQL() string {
	return s.sql
}

// build resolves the statement against a dialect's bindvar convention.
func (s *Statement) build(d Dialect) (string, []any, error) {
	if !s.named {
		return s.sql, s.args, nil
	}
	q, args, err := sqlx.Named(s.sql, s.arg)
	if err != nil {
		return "", nil, err
	}
	return sqlx.Rebind(sqlx.BindType(d.DriverName()), q), args, nil
}

// Row is a result row keyed by column name. Values hold whatever the driver
// produced; the typed getters coerce the common representations (MySQL's
// text protocol returns []byte for numeric columns).
type Row map[string]any

// Value returns the raw driver value for a column.
func (r Row) Value(column string) (any, bool) {
	v, ok := r[column]
	return v, ok
}

// Columns returns the column names present in the row.
func (r Row) Columns() []string {
	cols := make([]string, 0, len(r))
	for c := range r {
		cols = append(cols, c)
	}
	return cols
}

// Int64 returns the named column as int64, or 0 if absent or not numeric.
func (r Row) Int64(column string) int64 {
	switch v := r[column].(type) {
	case int64:
		return v
	case int32:
		return int64(v)
	case int:
		return int64(v)
	case uint64:
		return int64(v)
	case float64:
		return int64(v)
	case []byte:
		n, err := strconv.ParseInt(string(v), 10, 64)
		if err != nil {
			return 0
		}
		return n
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0
		}
		return n
	}
	return 0
}

// Int returns the named column as int.
func (r Row) Int(column string) int {
	return int(r.Int64(column))
}

// String returns the named column as a string, or "" if absent.
func (r Row) String(column string) string {
	switch v := r[column].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Bool returns the named column as a bool. Numeric values follow SQL
// conventions (non-zero is true).
func (r Row) Bool(column string) bool {
	switch v := r[column].(type) {
	case bool:
		return v
	default:
		return r.Int64(column) != 0
	}
}
