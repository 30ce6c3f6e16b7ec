package recorder

import (
	"context"
	"fmt"
)

// Supported storage drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverAzTables = "aztables"
)

// Open returns the recorder for driver. For sqlite dsn is a file path; for
// postgres a connection URL; for aztables a storage connection string.
func Open(ctx context.Context, driver, dsn, table string) (Recorder, error) {
	switch driver {
	case DriverMemory:
		return NewMemoryRecorder(), nil
	case DriverSQLite:
		return NewSQLiteRecorder(dsn, table)
	case DriverPostgres:
		return NewPostgresRecorder(ctx, dsn, table)
	case DriverAzTables:
		return NewTableRecorder(ctx, dsn, table)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}
