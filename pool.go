package sfosql

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/wugren/sfo-sql/hooks"
)

// Pool is a bounded set of reusable database sessions. It is safe for
// concurrent Acquire calls from many goroutines; at most MaxOpenConns
// sessions are leased at once, and callers beyond the bound block until a
// session frees or the acquire timeout elapses.
type Pool struct {
	db      *sqlx.DB
	uri     string
	cfg     Config
	dialect Dialect
	hooks   []hooks.QueryHook
}

// Open creates a pool for the configured URI and dialect, applies the pool
// sizing and timeout settings, and eagerly validates that the backend is
// reachable.
func Open(cfg Config) (*Pool, error) {
	cfg.applyDefaults()
	if cfg.Dialect == nil {
		return nil, failf("Open", "dialect is required")
	}
	if cfg.URI == "" {
		return nil, failf("Open", "database URI is required")
	}

	dsn, err := cfg.Dialect.DSN(cfg)
	if err != nil {
		return nil, cfg.Dialect.Normalize(err, cfg.URI)
	}

	db, err := sqlx.Open(cfg.Dialect.DriverName(), dsn)
	if err != nil {
		return nil, cfg.Dialect.Normalize(err, cfg.URI)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, &Error{
			Code:    CodeFailed,
			Message: "failed to connect to database",
			Op:      "Open",
			Query:   cfg.URI,
			Cause:   err,
		}
	}

	qh, err := buildHooks(cfg)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("opened database pool",
			"dialect", cfg.Dialect.Name(),
			"max_open_conns", cfg.MaxOpenConns,
		)
	}

	return &Pool{
		db:      db,
		uri:     cfg.URI,
		cfg:     cfg,
		dialect: cfg.Dialect,
		hooks:   qh,
	}, nil
}

// FromRawDB wraps an existing sqlx.DB in a Pool. The caller keeps
// responsibility for the DB's pool sizing.
func FromRawDB(db *sqlx.DB, dialect Dialect) *Pool {
	return &Pool{
		db:      db,
		dialect: dialect,
	}
}

// buildHooks assembles the observability hooks the config asks for.
func buildHooks(cfg Config) ([]hooks.QueryHook, error) {
	var qh []hooks.QueryHook
	if cfg.Logger != nil && (cfg.LogQueries || cfg.LogSlowQueries > 0) {
		qh = append(qh, hooks.NewLoggerHook(cfg.Logger, cfg.LogQueries, cfg.LogSlowQueries))
	}
	if cfg.MetricsRegistry != nil {
		hook, err := hooks.NewMetricsHook(cfg.MetricsRegistry)
		if err != nil {
			return nil, failf("Open", "failed to create metrics hook: %v", err)
		}
		qh = append(qh, hook)
	}
	if cfg.Tracer != nil {
		qh = append(qh, hooks.NewTracingHook(cfg.Tracer, cfg.Dialect.Name()))
	}
	return qh, nil
}

// Acquire leases a connection from the pool, blocking until one is
// available or the acquire timeout elapses. The returned Conn is
// exclusively owned by the caller until Release.
func (p *Pool) Acquire(ctx context.Context) (*Conn, error) {
	if p.cfg.AcquireTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.AcquireTimeout)
		defer cancel()
	}

	sess, err := p.db.Connx(ctx)
	if err != nil {
		return nil, p.dialect.Normalize(err, p.uri)
	}

	return &Conn{
		sess:    sess,
		dialect: p.dialect,
		hooks:   p.hooks,
	}, nil
}

// DB returns the underlying sqlx.DB for direct access. Operations on it
// still count against the pool's connection bound.
func (p *Pool) DB() *sqlx.DB {
	return p.db
}

// Dialect returns the pool's backend dialect.
func (p *Pool) Dialect() Dialect {
	return p.dialect
}

// Stats returns connection pool statistics
func (p *Pool) Stats() sql.DBStats {
	return p.db.Stats()
}

// Ping verifies the database connection is alive
func (p *Pool) Ping(ctx context.Context) error {
	if err := p.db.PingContext(ctx); err != nil {
		return p.dialect.Normalize(err, "ping")
	}
	return nil
}

// Close closes the pool and all its connections
func (p *Pool) Close() error {
	return p.db.Close()
}
