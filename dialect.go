package sfosql

import "context"

// ErrorMapper converts a native driver error plus call-site context into a
// normalized *Error. It is the single chokepoint between driver errors and
// callers; no other component inspects native error values.
type ErrorMapper interface {
	// Normalize maps err onto the domain taxonomy. The query argument is
	// carried for diagnostics only and never affects classification.
	// A nil err normalizes to nil.
	Normalize(err error, query string) error
}

// Dialect abstracts backend-specific behavior behind one interface. The
// Pool and Conn are parametrized over it at construction and contain no
// backend knowledge of their own.
//
// Introspection has no portable implementation: catalog backends (MySQL,
// PostgreSQL) count rows in an information schema, while SQLite pattern
// matches the stored table definition in sqlite_master.
type Dialect interface {
	ErrorMapper

	// Name identifies the backend ("sqlite", "mysql", "postgres").
	Name() string

	// DriverName is the registered database/sql driver name.
	DriverName() string

	// DSN resolves the configured URI into a driver DSN, applying the
	// engine-specific options the config carries.
	DSN(cfg Config) (string, error)

	// ColumnExists reports whether table has the named column. An empty
	// schema means the current database.
	ColumnExists(ctx context.Context, conn *Conn, table, column, schema string) (bool, error)

	// IndexExists reports whether table has the named index.
	IndexExists(ctx context.Context, conn *Conn, table, index, schema string) (bool, error)
}
