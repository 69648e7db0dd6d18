// Package hooks provides observability hooks for sfosql
package hooks

import (
	"context"
	"strings"
	"time"
)

// QueryEvent describes one statement execution as seen by hooks.
type QueryEvent struct {
	Query     string    // Statement text or operation tag
	StartTime time.Time // When execution started
	Err       error     // Native driver error, nil on success
}

// QueryHook observes statement execution. BeforeQuery may derive a new
// context (e.g. to carry a span); AfterQuery receives the same event with
// Err populated.
type QueryHook interface {
	BeforeQuery(ctx context.Context, event *QueryEvent) context.Context
	AfterQuery(ctx context.Context, event *QueryEvent)
}

// OperationType extracts the operation type from a query
func OperationType(query string) string {
	query = strings.TrimSpace(strings.ToUpper(query))
	switch {
	case strings.HasPrefix(query, "SELECT"):
		return "select"
	case strings.HasPrefix(query, "INSERT"):
		return "insert"
	case strings.HasPrefix(query, "UPDATE"):
		return "update"
	case strings.HasPrefix(query, "DELETE"):
		return "delete"
	case strings.HasPrefix(query, "CREATE"):
		return "create"
	case strings.HasPrefix(query, "DROP"):
		return "drop"
	case strings.HasPrefix(query, "ALTER"):
		return "alter"
	case strings.HasPrefix(query, "BEGIN"):
		return "begin"
	case strings.HasPrefix(query, "COMMIT"):
		return "commit"
	case strings.HasPrefix(query, "ROLLBACK"):
		return "rollback"
	case strings.HasPrefix(query, "PRAGMA"):
		return "pragma"
	default:
		return "other"
	}
}
