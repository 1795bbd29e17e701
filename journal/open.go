package journal

import (
	"context"
	"fmt"
)

// Store drivers accepted by Open.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Open returns the repository for driver. dsn is a file path for sqlite and a
// connection string for postgres; it is ignored for memory.
func Open(ctx context.Context, driver, dsn string) (Repository, error) {
	switch driver {
	case DriverMemory:
		return NewMemory(), nil
	case DriverSQLite:
		return NewSQLite(dsn)
	case DriverPostgres:
		return NewPostgres(ctx, dsn)
	default:
		return nil, fmt.Errorf("unknown store driver %q (want memory|sqlite|postgres)", driver)
	}
}
