package sfosql

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/wugren/sfo-sql/hooks"
)

// session is an execution target: either the raw connection or its open
// transaction. Both *sqlx.Conn and *sqlx.Tx satisfy it.
type session interface {
	sqlx.QueryerContext
	sqlx.ExecerContext
}

// Conn is one live database session, either leased from a Pool or opened
// standalone with OpenConn. It holds at most one open transaction; while a
// transaction is open every statement is routed through it, never directly
// through the underlying session.
//
// A Conn is not safe for concurrent use by multiple goroutines. The caller
// must serialize all operations, including Begin/Commit/Rollback.
type Conn struct {
	sess    *sqlx.Conn
	tx      *sqlx.Tx
	dialect Dialect
	hooks   []hooks.QueryHook

	// standalone is the dedicated single-connection DB a non-pooled Conn
	// owns; nil when the Conn is pool-leased.
	standalone *sqlx.DB
}

// OpenConn opens a standalone connection: one dedicated session that is
// closed, not returned to a pool, on Release.
func OpenConn(cfg Config) (*Conn, error) {
	cfg.applyDefaults()
	if cfg.Dialect == nil {
		return nil, failf("OpenConn", "dialect is required")
	}
	if cfg.URI == "" {
		return nil, failf("OpenConn", "database URI is required")
	}

	dsn, err := cfg.Dialect.DSN(cfg)
	if err != nil {
		return nil, cfg.Dialect.Normalize(err, cfg.URI)
	}

	db, err := sqlx.Open(cfg.Dialect.DriverName(), dsn)
	if err != nil {
		return nil, cfg.Dialect.Normalize(err, cfg.URI)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()

	sess, err := db.Connx(ctx)
	if err != nil {
		_ = db.Close()
		return nil, cfg.Dialect.Normalize(err, cfg.URI)
	}

	qh, err := buildHooks(cfg)
	if err != nil {
		_ = sess.Close()
		_ = db.Close()
		return nil, err
	}

	return &Conn{
		sess:       sess,
		dialect:    cfg.Dialect,
		hooks:      qh,
		standalone: db,
	}, nil
}

// target returns the open transaction when present, else the raw session.
// Routing here keeps atomicity in one place instead of at every call site.
func (c *Conn) target() session {
	if c.tx != nil {
		return c.tx
	}
	return c.sess
}

func (c *Conn) beforeHooks(ctx context.Context, query string) (context.Context, *hooks.QueryEvent) {
	ev := &hooks.QueryEvent{Query: query, StartTime: time.Now()}
	for _, h := range c.hooks {
		ctx = h.BeforeQuery(ctx, ev)
	}
	return ctx, ev
}

func (c *Conn) afterHooks(ctx context.Context, ev *hooks.QueryEvent, err error) {
	ev.Err = err
	for _, h := range c.hooks {
		h.AfterQuery(ctx, ev)
	}
}

// Exec runs a non-row-returning statement, within the open transaction if
// one exists.
func (c *Conn) Exec(ctx context.Context, stmt *Statement) (sql.Result, error) {
	if c.sess == nil {
		return nil, failf("Exec", "connection already released")
	}
	query, args, err := stmt.build(c.dialect)
	if err != nil {
		return nil, &Error{Code: CodeFailed, Message: "bind parameters", Op: "Exec", Query: stmt.SQL(), Cause: err}
	}

	ctx, ev := c.beforeHooks(ctx, query)
	res, err := c.target().ExecContext(ctx, query, args...)
	c.afterHooks(ctx, ev, err)

	if err != nil {
		return nil, c.dialect.Normalize(err, query)
	}
	return res, nil
}

// QueryOne runs a statement expected to match exactly one row. Zero rows
// yield a CodeNotFound error. When more than one row matches, the first row
// the driver returns is used and the rest are discarded.
func (c *Conn) QueryOne(ctx context.Context, stmt *Statement) (Row, error) {
	if c.sess == nil {
		return nil, failf("QueryOne", "connection already released")
	}
	query, args, err := stmt.build(c.dialect)
	if err != nil {
		return nil, &Error{Code: CodeFailed, Message: "bind parameters", Op: "QueryOne", Query: stmt.SQL(), Cause: err}
	}

	ctx, ev := c.beforeHooks(ctx, query)
	row := Row{}
	err = c.target().QueryRowxContext(ctx, query, args...).MapScan(row)
	c.afterHooks(ctx, ev, err)

	if err != nil {
		return nil, c.dialect.Normalize(err, query)
	}
	return row, nil
}

// QueryAll runs a statement and returns every matching row. Zero matches
// yield an empty slice, not an error.
func (c *Conn) QueryAll(ctx context.Context, stmt *Statement) ([]Row, error) {
	if c.sess == nil {
		return nil, failf("QueryAll", "connection already released")
	}
	query, args, err := stmt.build(c.dialect)
	if err != nil {
		return nil, &Error{Code: CodeFailed, Message: "bind parameters", Op: "QueryAll", Query: stmt.SQL(), Cause: err}
	}

	ctx, ev := c.beforeHooks(ctx, query)
	rows, err := c.target().QueryxContext(ctx, query, args...)
	if err != nil {
		c.afterHooks(ctx, ev, err)
		return nil, c.dialect.Normalize(err, query)
	}
	defer rows.Close()

	out := make([]Row, 0)
	for rows.Next() {
		row := Row{}
		if err := rows.MapScan(row); err != nil {
			c.afterHooks(ctx, ev, err)
			return nil, c.dialect.Normalize(err, query)
		}
		out = append(out, row)
	}
	err = rows.Err()
	c.afterHooks(ctx, ev, err)
	if err != nil {
		return nil, c.dialect.Normalize(err, query)
	}
	return out, nil
}

// Begin opens a transaction bound to this connection. Beginning while a
// transaction is already open is rejected; the caller must commit or roll
// back first.
func (c *Conn) Begin(ctx context.Context) error {
	if c.sess == nil {
		return failf("Begin", "connection already released")
	}
	if c.tx != nil {
		return failf("Begin", "transaction already open")
	}

	ctx, ev := c.beforeHooks(ctx, "BEGIN")
	tx, err := c.sess.BeginTxx(ctx, nil)
	c.afterHooks(ctx, ev, err)

	if err != nil {
		return c.dialect.Normalize(err, "begin transaction")
	}
	c.tx = tx
	return nil
}

// Commit finalizes the open transaction. A no-op success when no
// transaction is open, so callers uncertain of state may call it freely.
func (c *Conn) Commit() error {
	if c.tx == nil {
		return nil
	}
	tx := c.tx
	c.tx = nil

	ctx, ev := c.beforeHooks(context.Background(), "COMMIT")
	err := tx.Commit()
	c.afterHooks(ctx, ev, err)

	if err != nil {
		return c.dialect.Normalize(err, "commit transaction")
	}
	return nil
}

// Rollback aborts the open transaction. Same idempotence as Commit.
func (c *Conn) Rollback() error {
	if c.tx == nil {
		return nil
	}
	tx := c.tx
	c.tx = nil

	ctx, ev := c.beforeHooks(context.Background(), "ROLLBACK")
	err := tx.Rollback()
	c.afterHooks(ctx, ev, err)

	if err != nil {
		return c.dialect.Normalize(err, "rollback transaction")
	}
	return nil
}

// InTx reports whether a transaction is currently open.
func (c *Conn) InTx() bool {
	return c.tx != nil
}

// ColumnExists reports whether table has the named column. An empty schema
// means the current database.
func (c *Conn) ColumnExists(ctx context.Context, table, column, schema string) (bool, error) {
	if c.sess == nil {
		return false, failf("ColumnExists", "connection already released")
	}
	return c.dialect.ColumnExists(ctx, c, table, column, schema)
}

// IndexExists reports whether table has the named index.
func (c *Conn) IndexExists(ctx context.Context, table, index, schema string) (bool, error) {
	if c.sess == nil {
		return false, failf("IndexExists", "connection already released")
	}
	return c.dialect.IndexExists(ctx, c, table, index, schema)
}

// Release returns a pool-leased connection to its pool, or closes a
// standalone one. Any still-open transaction is rolled back first, on every
// path, so no transactional state ever crosses to the next lessee; rollback
// failures during release are swallowed since no caller is left to receive
// them.
//
// Release is idempotent; subsequent calls are no-ops.
func (c *Conn) Release() error {
	if c.sess == nil {
		return nil
	}
	if c.tx != nil {
		tx := c.tx
		c.tx = nil
		ctx, ev := c.beforeHooks(context.Background(), "ROLLBACK")
		c.afterHooks(ctx, ev, tx.Rollback())
	}

	err := c.sess.Close()
	c.sess = nil

	if c.standalone != nil {
		if cerr := c.standalone.Close(); err == nil {
			err = cerr
		}
		c.standalone = nil
	}

	if err != nil {
		return c.dialect.Normalize(err, "release connection")
	}
	return nil
}

// Raw returns the underlying sqlx connection for direct driver access.
func (c *Conn) Raw() *sqlx.Conn {
	return c.sess
}
