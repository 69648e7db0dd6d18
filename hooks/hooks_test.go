package hooks

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestOperationType(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"SELECT * FROM users", "select"},
		{"  select 1", "select"},
		{"INSERT INTO t VALUES (1)", "insert"},
		{"update t set a = 1", "update"},
		{"DELETE FROM t", "delete"},
		{"CREATE TABLE t (id int)", "create"},
		{"DROP TABLE t", "drop"},
		{"ALTER TABLE t ADD c int", "alter"},
		{"BEGIN", "begin"},
		{"COMMIT", "commit"},
		{"ROLLBACK", "rollback"},
		{"PRAGMA journal_mode", "pragma"},
		{"EXPLAIN SELECT 1", "other"},
	}

	for _, tt := range tests {
		if got := OperationType(tt.query); got != tt.want {
			t.Errorf("OperationType(%q) = %q, want %q", tt.query, got, tt.want)
		}
	}
}

func TestLoggerHook_LogAll(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	h := NewLoggerHook(logger, true, 0)
	ev := &QueryEvent{Query: "select 1", StartTime: time.Now()}
	ctx := h.BeforeQuery(context.Background(), ev)
	h.AfterQuery(ctx, ev)

	out := buf.String()
	if !strings.Contains(out, "database query") {
		t.Errorf("Expected debug log, got %q", out)
	}
	if !strings.Contains(out, "operation=select") {
		t.Errorf("Expected operation attribute, got %q", out)
	}
}

func TestLoggerHook_ErrorLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	h := NewLoggerHook(logger, false, 0)
	ev := &QueryEvent{Query: "select 1", StartTime: time.Now(), Err: errors.New("boom")}
	h.AfterQuery(context.Background(), ev)

	// Errors are logged even when logAll is off.
	if !strings.Contains(buf.String(), "database query failed") {
		t.Errorf("Expected error log, got %q", buf.String())
	}
}

func TestLoggerHook_SlowQuery(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	h := NewLoggerHook(logger, false, time.Nanosecond)
	ev := &QueryEvent{Query: "select 1", StartTime: time.Now().Add(-time.Second)}
	h.AfterQuery(context.Background(), ev)

	if !strings.Contains(buf.String(), "slow database query") {
		t.Errorf("Expected slow query warning, got %q", buf.String())
	}
}

func TestLoggerHook_QuietByDefault(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	h := NewLoggerHook(logger, false, 0)
	ev := &QueryEvent{Query: "select 1", StartTime: time.Now()}
	h.AfterQuery(context.Background(), ev)

	if buf.Len() != 0 {
		t.Errorf("Expected no output, got %q", buf.String())
	}
}

func TestMetricsHook(t *testing.T) {
	registry := prometheus.NewRegistry()
	h, err := NewMetricsHook(registry)
	if err != nil {
		t.Fatalf("NewMetricsHook failed: %v", err)
	}

	ev := &QueryEvent{Query: "select 1", StartTime: time.Now()}
	h.AfterQuery(context.Background(), ev)

	evErr := &QueryEvent{Query: "insert into t values (1)", StartTime: time.Now(), Err: errors.New("boom")}
	h.AfterQuery(context.Background(), evErr)

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}

	byName := map[string]bool{}
	for _, f := range families {
		byName[f.GetName()] = true
	}
	for _, name := range []string{"sfosql_query_duration_seconds", "sfosql_queries_total", "sfosql_query_errors_total"} {
		if !byName[name] {
			t.Errorf("Expected metric %s to be collected", name)
		}
	}
}

func TestMetricsHook_DoubleRegister(t *testing.T) {
	registry := prometheus.NewRegistry()
	if _, err := NewMetricsHook(registry); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	// Registering against the same registry again must not error.
	if _, err := NewMetricsHook(registry); err != nil {
		t.Fatalf("second register failed: %v", err)
	}
}
