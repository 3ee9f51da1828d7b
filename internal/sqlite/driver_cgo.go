//go:build cgo_sqlite

// CGO SQLite driver using mattn/go-sqlite3.
//
// Build with: go build -tags cgo_sqlite
// Requires: CGO_ENABLED=1
package sqlite

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/Aranil/dbflow/internal/spatial"
)

const (
	driverName    = "sqlite3_dbflow"
	driverType    = "cgo"
	driverPackage = "github.com/mattn/go-sqlite3"
)

var registerOnce sync.Once

// register adds a driver whose connect hook installs the spatial functions
// on each new connection.
func register() error {
	registerOnce.Do(func() {
		sql.Register(driverName, &sqlite3.SQLiteDriver{
			ConnectHook: func(conn *sqlite3.SQLiteConn) error {
				for _, fn := range spatial.Functions() {
					fn := fn
					impl := func(args ...interface{}) (interface{}, error) {
						return fn.Call(args)
					}
					if err := conn.RegisterFunc(fn.Name, impl, true); err != nil {
						return fmt.Errorf("register %s: %w", fn.Name, err)
					}
				}
				return nil
			},
		})
	})
	return nil
}

func dsn(path string, busyTimeout time.Duration) string {
	return fmt.Sprintf("%s?_busy_timeout=%d&_journal_mode=WAL", path, busyTimeout.Milliseconds())
}
