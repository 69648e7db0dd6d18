package sfosql

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
)

// newTestPool opens a pool against a fresh SQLite database file.
func newTestPool(t *testing.T, maxConns int) *Pool {
	t.Helper()

	cfg := DefaultConfig(filepath.Join(t.TempDir(), "test.db"), SQLiteDialect{})
	cfg.MaxOpenConns = maxConns
	cfg.MaxIdleConns = maxConns

	pool, err := Open(cfg)
	if err != nil {
		t.Fatalf("Failed to open test pool: %v", err)
	}
	t.Cleanup(func() { _ = pool.Close() })
	return pool
}

func mustAcquire(t *testing.T, pool *Pool) *Conn {
	t.Helper()
	conn, err := pool.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	return conn
}

func mustExec(t *testing.T, conn *Conn, query string, args ...any) {
	t.Helper()
	if _, err := conn.Exec(context.Background(), NewStatement(query, args...)); err != nil {
		t.Fatalf("Exec %q failed: %v", query, err)
	}
}

func TestOpen_MissingURI(t *testing.T) {
	if _, err := Open(Config{Dialect: SQLiteDialect{}}); !IsFailed(err) {
		t.Errorf("Expected Failed for missing URI, got %v", err)
	}
}

func TestOpen_MissingDialect(t *testing.T) {
	if _, err := Open(Config{URI: "test.db"}); !IsFailed(err) {
		t.Errorf("Expected Failed for missing dialect, got %v", err)
	}
}

func TestOpen_Unreachable(t *testing.T) {
	cfg := DefaultConfig("/nonexistent-dir/sub/test.db", SQLiteDialect{})
	cfg.DialTimeout = time.Second

	if _, err := Open(cfg); !IsFailed(err) {
		t.Errorf("Expected Failed for unreachable database, got %v", err)
	}
}

func TestPool_AcquireRelease(t *testing.T) {
	pool := newTestPool(t, 2)

	conn := mustAcquire(t, pool)
	mustExec(t, conn, "create table t (id integer primary key)")
	if err := conn.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}

	// The slot is reusable after release.
	conn = mustAcquire(t, pool)
	defer conn.Release()
	mustExec(t, conn, "insert into t (id) values (1)")
}

func TestPool_AcquireBlocksAtBound(t *testing.T) {
	pool := newTestPool(t, 1)

	held := mustAcquire(t, pool)

	type result struct {
		conn *Conn
		err  error
	}
	acquired := make(chan result, 1)
	go func() {
		conn, err := pool.Acquire(context.Background())
		acquired <- result{conn, err}
	}()

	select {
	case <-acquired:
		t.Fatal("Acquire should block while the pool is exhausted")
	case <-time.After(100 * time.Millisecond):
	}

	if err := held.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}

	select {
	case res := <-acquired:
		if res.err != nil {
			t.Fatalf("Acquire after release failed: %v", res.err)
		}
		_ = res.conn.Release()
	case <-time.After(2 * time.Second):
		t.Fatal("Acquire did not resume after release")
	}
}

func TestPool_AcquireTimeout(t *testing.T) {
	cfg := DefaultConfig(filepath.Join(t.TempDir(), "test.db"), SQLiteDialect{})
	cfg.MaxOpenConns = 1
	cfg.MaxIdleConns = 1
	cfg.AcquireTimeout = 50 * time.Millisecond

	pool, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer pool.Close()

	held, err := pool.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer held.Release()

	if _, err := pool.Acquire(context.Background()); !IsFailed(err) {
		t.Errorf("Expected Failed on acquire timeout, got %v", err)
	}
}

func TestPool_Stats(t *testing.T) {
	pool := newTestPool(t, 3)

	if got := pool.Stats().MaxOpenConnections; got != 3 {
		t.Errorf("Expected MaxOpenConnections 3, got %d", got)
	}

	conn := mustAcquire(t, pool)
	if got := pool.Stats().InUse; got != 1 {
		t.Errorf("Expected 1 connection in use, got %d", got)
	}
	conn.Release()
}

func TestPool_Health(t *testing.T) {
	pool := newTestPool(t, 2)

	status := pool.Health(context.Background())
	if !status.Healthy {
		t.Errorf("Expected healthy pool, got error %s", status.Error)
	}
	if status.PoolStats.MaxOpenConnections != 2 {
		t.Errorf("Expected MaxOpenConnections 2, got %d", status.PoolStats.MaxOpenConnections)
	}
	if !pool.IsHealthy(context.Background()) {
		t.Error("Expected IsHealthy true")
	}
}

func TestPool_RawDB(t *testing.T) {
	pool := newTestPool(t, 1)

	if pool.DB() == nil {
		t.Fatal("Expected raw DB handle")
	}
	if err := pool.DB().Ping(); err != nil {
		t.Errorf("Raw handle ping failed: %v", err)
	}
}

func TestFromRawDB(t *testing.T) {
	db, err := sqlx.Open("sqlite", "file:"+filepath.Join(t.TempDir(), "raw.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()

	pool := FromRawDB(db, SQLiteDialect{})
	conn := mustAcquire(t, pool)
	defer conn.Release()
	mustExec(t, conn, "create table t (id integer primary key)")
}

func TestPool_MetricsHookWired(t *testing.T) {
	registry := prometheus.NewRegistry()

	cfg := DefaultConfig(filepath.Join(t.TempDir(), "test.db"), SQLiteDialect{})
	cfg = cfg.WithMetrics(registry)

	pool, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer pool.Close()

	conn := mustAcquire(t, pool)
	defer conn.Release()
	mustExec(t, conn, "create table t (id integer primary key)")

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	found := false
	for _, f := range families {
		if f.GetName() == "sfosql_queries_total" {
			found = true
		}
	}
	if !found {
		t.Error("Expected sfosql_queries_total to be collected")
	}
}

func TestPool_LoggerHookWired(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	cfg := DefaultConfig(filepath.Join(t.TempDir(), "test.db"), SQLiteDialect{})
	cfg = cfg.WithLogger(logger)

	pool, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer pool.Close()

	conn := mustAcquire(t, pool)
	defer conn.Release()
	mustExec(t, conn, "create table t (id integer primary key)")

	if !strings.Contains(buf.String(), "database query") {
		t.Error("Expected query log output")
	}
}
