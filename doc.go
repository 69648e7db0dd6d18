/*
Package sfosql provides a backend-agnostic SQL access layer for Go
applications.

It offers:
  - A bounded connection pool with acquisition timeout and idle eviction
  - One connection abstraction for pool-leased and standalone sessions
  - A transaction lifecycle with guaranteed rollback on release
  - Dialect-specific error normalization onto a small domain taxonomy
    (Failed, NotFound, AlreadyExists)
  - Column/index existence checks per backend dialect
  - Configurable observability (logging, metrics, tracing)

# Basic Usage

	cfg := sfosql.DefaultConfig("app.db", sfosql.SQLiteDialect{})
	cfg.Logger = slog.Default()
	cfg.LogSlowQueries = 100 * time.Millisecond

	pool, err := sfosql.Open(cfg)
	if err != nil {
	    log.Fatal(err)
	}
	defer pool.Close()

	conn, err := pool.Acquire(ctx)
	if err != nil {
	    log.Fatal(err)
	}
	defer conn.Release()

	row, err := conn.QueryOne(ctx, sfosql.NewStatement(
	    "select name, age from users where id = ?", 42))
	if sfosql.IsNotFound(err) {
	    // no such user
	}

# Transactions

A connection holds at most one open transaction; while it is open every
statement routes through it. Commit and Rollback are no-ops when no
transaction is open, and Release rolls back anything still pending before
the session is reused:

	if err := conn.Begin(ctx); err != nil {
	    return err
	}
	if _, err := conn.Exec(ctx, stmt); err != nil {
	    _ = conn.Rollback()
	    return err
	}
	return conn.Commit()

# Error Handling

Every driver error is normalized by the backend dialect before it reaches
the caller:

	_, err := conn.Exec(ctx, insertStmt)
	switch {
	case sfosql.IsAlreadyExists(err):
	    // uniqueness violation
	case err != nil:
	    // everything else is sfosql.ErrFailed or sfosql.ErrNotFound
	}

# Dialects

SQLiteDialect (modernc.org/sqlite, CGO-free), MySQLDialect
(go-sql-driver/mysql) and PostgresDialect (pgx) ship with the package. A
Dialect bundles the driver selection, DSN option handling, the error
normalization strategy, and the metadata queries answering "does this
column/index exist", so the pool and connection logic stay backend-free.
*/
package sfosql
