// Package sfosql provides a backend-agnostic SQL access layer for Go
// applications: a bounded connection pool, a unified connection/transaction
// abstraction, and dialect-specific error normalization onto a small domain
// error taxonomy.
package sfosql

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
)

// Config holds database configuration
type Config struct {
	// Connection
	URI     string  // Backend-specific connection string (required)
	Dialect Dialect // Backend dialect (required)

	// Pool settings
	MaxOpenConns    int           // Max concurrently leased connections (default: 25)
	MaxIdleConns    int           // Max idle connections kept for reuse (default: 5)
	ConnMaxLifetime time.Duration // Max connection lifetime (default: 5m)
	ConnMaxIdleTime time.Duration // Idle eviction timeout (default: 5m)

	// Timeouts
	AcquireTimeout time.Duration // Max wait for a pooled connection (default: 5m)
	DialTimeout    time.Duration // Connection dial timeout (default: 5s)
	ReadTimeout    time.Duration // Read timeout, network engines (default: 30s)
	WriteTimeout   time.Duration // Write timeout, network engines (default: 30s)

	// Engine-specific options, interpreted by the dialect's DSN()
	JournalMode string        // SQLite journal mode, e.g. "wal" (optional)
	BusyTimeout time.Duration // SQLite busy timeout (default: 5m)
	DisableTLS  bool          // Disable TLS, network engines

	// Observability (all optional)
	Logger          *slog.Logger          // Structured logger
	LogQueries      bool                  // Log all queries
	LogSlowQueries  time.Duration         // Log queries slower than this (0 = disabled)
	MetricsRegistry prometheus.Registerer // Prometheus registry for metrics
	Tracer          trace.Tracer          // OpenTelemetry tracer
}

// DefaultConfig returns sensible defaults
func DefaultConfig(uri string, dialect Dialect) Config {
	return Config{
		URI:             uri,
		Dialect:         dialect,
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
		ConnMaxIdleTime: 5 * time.Minute,
		AcquireTimeout:  5 * time.Minute,
		DialTimeout:     5 * time.Second,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		BusyTimeout:     5 * time.Minute,
	}
}

// applyDefaults fills in zero values with defaults
func (c *Config) applyDefaults() {
	if c.MaxOpenConns == 0 {
		c.MaxOpenConns = 25
	}
	if c.MaxIdleConns == 0 {
		c.MaxIdleConns = 5
	}
	if c.ConnMaxLifetime == 0 {
		c.ConnMaxLifetime = 5 * time.Minute
	}
	if c.ConnMaxIdleTime == 0 {
		c.ConnMaxIdleTime = 5 * time.Minute
	}
	if c.AcquireTimeout == 0 {
		c.AcquireTimeout = 5 * time.Minute
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = 5 * time.Second
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 30 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 30 * time.Second
	}
	if c.BusyTimeout == 0 {
		c.BusyTimeout = 5 * time.Minute
	}
}

// WithLogger enables query logging
func (c Config) WithLogger(logger *slog.Logger) Config {
	c.Logger = logger
	c.LogQueries = true
	return c
}

// WithSlowQueryLog logs queries slower than the threshold
func (c Config) WithSlowQueryLog(threshold time.Duration) Config {
	c.LogSlowQueries = threshold
	return c
}

// WithMetrics enables Prometheus metrics
func (c Config) WithMetrics(registry prometheus.Registerer) Config {
	c.MetricsRegistry = registry
	return c
}

// WithTracing enables OpenTelemetry tracing
func (c Config) WithTracing(tracer trace.Tracer) Config {
	c.Tracer = tracer
	return c
}
