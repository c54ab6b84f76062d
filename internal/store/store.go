// Package store selects and constructs DocumentStore backends.
package store

import (
	"context"
	"fmt"
	"os"

	"tillcore/internal/store/firestore"
	"tillcore/internal/store/memory"
	"tillcore/internal/store/postgres"
	"tillcore/internal/store/sqlite"
	"tillcore/pkg/domain"
)

// Driver identifies a concrete document store implementation.
type Driver string

const (
	DriverMemory    Driver = "memory"    // in-memory (tests / ephemeral)
	DriverSQLite    Driver = "sqlite"    // embedded sqlite file
	DriverPostgres  Driver = "postgres"  // PostgreSQL server
	DriverFirestore Driver = "firestore" // Cloud Firestore (production)
)

// Open selects a backend using environment variables. Defaults to sqlite
// when unset.
//
//	TILLCORE_STORE_DRIVER: memory|sqlite|postgres|firestore (default sqlite)
//	TILLCORE_SQLITE_PATH: path to sqlite file (default ./tillcore.db)
//	TILLCORE_POSTGRES_DSN: postgres DSN when driver=postgres
//	TILLCORE_FIRESTORE_PROJECT: GCP project when driver=firestore
//	TILLCORE_FIRESTORE_DATABASE: optional named database
func Open(ctx context.Context) (domain.DocumentStore, error) {
	driver := os.Getenv("TILLCORE_STORE_DRIVER")
	if driver == "" {
		driver = string(DriverSQLite)
	}
	switch Driver(driver) {
	case DriverMemory:
		return memory.NewStore(), nil
	case DriverSQLite:
		return sqlite.NewStore(os.Getenv("TILLCORE_SQLITE_PATH"))
	case DriverPostgres:
		return postgres.NewStore(ctx, os.Getenv("TILLCORE_POSTGRES_DSN"))
	case DriverFirestore:
		return firestore.New(ctx,
			os.Getenv("TILLCORE_FIRESTORE_PROJECT"),
			os.Getenv("TILLCORE_FIRESTORE_DATABASE"))
	default:
		return nil, fmt.Errorf("unknown store driver %s", driver)
	}
}
