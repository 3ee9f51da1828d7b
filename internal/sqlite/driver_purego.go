//go:build !cgo_sqlite

package sqlite

import (
	"database/sql/driver"
	"fmt"
	"sync"
	"time"

	"modernc.org/sqlite"

	"github.com/Aranil/dbflow/internal/spatial"
)

const (
	driverName    = "sqlite"
	driverType    = "purego"
	driverPackage = "modernc.org/sqlite"
)

var (
	registerOnce sync.Once
	registerErr  error
)

// register installs the spatial functions on the modernc driver. Functions
// registered this way apply to every connection it opens.
func register() error {
	registerOnce.Do(func() {
		for _, fn := range spatial.Functions() {
			fn := fn
			err := sqlite.RegisterDeterministicScalarFunction(fn.Name, -1,
				func(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
					in := make([]any, len(args))
					for i, a := range args {
						in[i] = a
					}
					return fn.Call(in)
				})
			if err != nil {
				registerErr = fmt.Errorf("register %s: %w", fn.Name, err)
				return
			}
		}
	})
	return registerErr
}

func dsn(path string, busyTimeout time.Duration) string {
	return fmt.Sprintf("%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)", path, busyTimeout.Milliseconds())
}
