// Package env provides opt-in environment-variable configuration for
// sfosql. Importing it registers the DB_* variables; call Config after
// process flags are handled to parse them into a pool configuration.
package env

import (
	"fmt"
	"time"

	"github.com/trebent/envparser"

	sfosql "github.com/wugren/sfo-sql"
)

var (
	uri = envparser.Register(&envparser.Opts[string]{
		Name: "DB_URI",
		Desc: "Backend-specific database connection string.",
	})
	dialect = envparser.Register(&envparser.Opts[string]{
		Name:  "DB_DIALECT",
		Desc:  "Database dialect: sqlite, mysql or postgres.",
		Value: "sqlite",
		Validate: func(v string) error {
			switch v {
			case "sqlite", "mysql", "postgres":
				return nil
			}
			return fmt.Errorf("unknown dialect: %s", v)
		},
	})
	maxConns = envparser.Register(&envparser.Opts[int]{
		Name:  "DB_MAX_CONNS",
		Desc:  "Maximum number of concurrently leased connections.",
		Value: 25,
		Validate: func(v int) error {
			if v < 1 {
				return fmt.Errorf("must be greater than 0: %d", v)
			}
			return nil
		},
	})
	acquireTimeoutSeconds = envparser.Register(&envparser.Opts[int]{
		Name:  "DB_ACQUIRE_TIMEOUT_SECONDS",
		Desc:  "Max seconds to wait for a pooled connection.",
		Value: 300,
		Validate: func(v int) error {
			if v < 1 {
				return fmt.Errorf("must be greater than 0: %d", v)
			}
			return nil
		},
	})
	idleTimeoutSeconds = envparser.Register(&envparser.Opts[int]{
		Name:  "DB_IDLE_TIMEOUT_SECONDS",
		Desc:  "Seconds before an idle connection is evicted.",
		Value: 300,
		Validate: func(v int) error {
			if v < 1 {
				return fmt.Errorf("must be greater than 0: %d", v)
			}
			return nil
		},
	})
	disableTLS = envparser.Register(&envparser.Opts[bool]{
		Name: "DB_DISABLE_TLS",
		Desc: "Disable TLS for network engines.",
	})
)

// Config parses the registered environment variables into a pool
// configuration.
func Config() (sfosql.Config, error) {
	if err := envparser.Parse(); err != nil {
		return sfosql.Config{}, err
	}

	var d sfosql.Dialect
	switch dialect.Value() {
	case "sqlite":
		d = sfosql.SQLiteDialect{}
	case "mysql":
		d = sfosql.MySQLDialect{}
	case "postgres":
		d = sfosql.PostgresDialect{}
	}

	cfg := sfosql.DefaultConfig(uri.Value(), d)
	cfg.MaxOpenConns = maxConns.Value()
	cfg.AcquireTimeout = time.Duration(acquireTimeoutSeconds.Value()) * time.Second
	cfg.ConnMaxIdleTime = time.Duration(idleTimeoutSeconds.Value()) * time.Second
	cfg.DisableTLS = disableTLS.Value()
	return cfg, nil
}

// Help returns usage text for the registered variables.
func Help() string {
	return envparser.Help()
}
