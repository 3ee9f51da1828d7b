// Package sqlite opens the store's SQLite database with dbflow's spatial SQL
// functions registered, supporting both pure Go (modernc.org/sqlite) and CGO
// (mattn/go-sqlite3) drivers.
//
// Build modes:
//   - Default: pure Go modernc.org/sqlite
//   - CGO mode (CGO_ENABLED=1 -tags cgo_sqlite): mattn/go-sqlite3
//
// Use Open instead of sql.Open so the spatial functions are available on
// every connection.
package sqlite

import (
	"database/sql"
	"time"
)

// DriverName returns the database/sql driver name in use.
func DriverName() string {
	return driverName
}

// DriverType returns "cgo" for mattn/go-sqlite3, "purego" for modernc.org/sqlite.
func DriverType() string {
	return driverType
}

// IsCGO returns true if the CGO implementation is being used.
func IsCGO() bool {
	return driverType == "cgo"
}

// Open opens the database file at path with WAL journaling and the given
// busy timeout. The spatial functions are registered before the first
// connection is made.
func Open(path string, busyTimeout time.Duration) (*sql.DB, error) {
	if err := register(); err != nil {
		return nil, err
	}
	return sql.Open(driverName, dsn(path, busyTimeout))
}

// Info contains information about the SQLite driver configuration.
type Info struct {
	DriverName string `json:"driver_name"`
	DriverType string `json:"driver_type"`
	IsCGO      bool   `json:"is_cgo"`
	Package    string `json:"package"`
}

// GetInfo returns information about the current SQLite configuration.
func GetInfo() Info {
	return Info{
		DriverName: driverName,
		DriverType: driverType,
		IsCGO:      IsCGO(),
		Package:    driverPackage,
	}
}
