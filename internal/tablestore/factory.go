package tablestore

import (
	"context"
	"fmt"
	"os"

	"cdmcore/internal/tablestore/postgres"
	"cdmcore/internal/tablestore/sqlite"
)

var (
	_ Tables = (*sqlite.Store)(nil)
	_ Tables = (*postgres.Store)(nil)
)

// Driver identifies a concrete table backend implementation.
type Driver string

const (
	DriverSQLite   Driver = "sqlite"   // single-file snapshot (default)
	DriverPostgres Driver = "postgres" // shared snapshot database
	DriverMemory   Driver = "memory"   // in-memory (tests)
)

// Open selects a Tables implementation using environment variables.
//
//	CDMCORE_TABLE_DRIVER: sqlite|postgres|memory (default sqlite)
//	CDMCORE_TABLE_SQLITE_PATH: snapshot path when driver=sqlite (default ./cdm.db)
//	CDMCORE_TABLE_POSTGRES_DSN: DSN when driver=postgres
//	CDMCORE_DATA_VERSION: data version when driver=memory
func Open(ctx context.Context) (Tables, error) {
	driver := os.Getenv("CDMCORE_TABLE_DRIVER")
	if driver == "" {
		driver = string(DriverSQLite)
	}
	switch Driver(driver) {
	case DriverSQLite:
		path := os.Getenv("CDMCORE_TABLE_SQLITE_PATH")
		return sqlite.NewStore(path)
	case DriverPostgres:
		return postgres.NewStore(ctx, os.Getenv("CDMCORE_TABLE_POSTGRES_DSN"))
	case DriverMemory:
		version := os.Getenv("CDMCORE_DATA_VERSION")
		if version == "" {
			version = "dev"
		}
		return NewMemory(version), nil
	default:
		return nil, fmt.Errorf("unknown table driver %s", driver)
	}
}
