// Package testing holds helpers shared by dbflow's package tests: temporary
// SQLite stores, catalog fixtures, log capture and SQL assertions.
package testing

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Aranil/dbflow/internal/logger"
	"github.com/Aranil/dbflow/internal/sqlite"
)

// TestDB provides a temporary SQLite database with the spatial functions
type TestDB struct {
	DB   *sql.DB
	Path string
	t    *testing.T
}

// TempPath returns a database path inside a fresh temporary directory.
// Nested directories are not created.
func TempPath(t *testing.T, parts ...string) string {
	t.Helper()
	if len(parts) == 0 {
		parts = []string{"dbflow.db"}
	}
	return filepath.Join(append([]string{t.TempDir()}, parts...)...)
}

// NewTestDB opens a new temporary database that is closed when the test ends
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	path := TempPath(t)
	db, err := sqlite.Open(path, time.Second)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	db.SetMaxOpenConns(1)

	tdb := &TestDB{DB: db, Path: path, t: t}
	t.Cleanup(tdb.Cleanup)
	return tdb
}

// Cleanup closes the database
func (tdb *TestDB) Cleanup() {
	if err := tdb.DB.Close(); err != nil {
		tdb.t.Logf("Failed to close test database: %v", err)
	}
}

// ExecuteSQL executes SQL statements separated by semicolons
func (tdb *TestDB) ExecuteSQL(sql string) error {
	statements := strings.Split(sql, ";")
	for _, stmt := range statements {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := tdb.DB.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute SQL: %w\nStatement: %s", err, stmt)
		}
	}
	return nil
}

// TableExists checks if a table exists
func (tdb *TestDB) TableExists(tableName string) (bool, error) {
	var exists bool
	err := tdb.DB.QueryRow(
		`SELECT EXISTS (SELECT 1 FROM sqlite_master WHERE type = 'table' AND name = ?)`,
		tableName,
	).Scan(&exists)
	return exists, err
}

// ColumnExists checks if a column exists in a table
func (tdb *TestDB) ColumnExists(tableName, columnName string) (bool, error) {
	var exists bool
	err := tdb.DB.QueryRow(
		`SELECT EXISTS (SELECT 1 FROM pragma_table_info(?) WHERE name = ?)`,
		tableName, columnName,
	).Scan(&exists)
	return exists, err
}

// GetColumnType returns the declared type of a column
func (tdb *TestDB) GetColumnType(tableName, columnName string) (string, error) {
	var dataType string
	err := tdb.DB.QueryRow(
		`SELECT type FROM pragma_table_info(?) WHERE name = ?`,
		tableName, columnName,
	).Scan(&dataType)
	return dataType, err
}

// RowCount returns the number of rows in a table
func (tdb *TestDB) RowCount(tableName string) (int, error) {
	var n int
	err := tdb.DB.QueryRow(`SELECT COUNT(*) FROM "` + strings.ReplaceAll(tableName, `"`, `""`) + `"`).Scan(&n)
	return n, err
}

// ObserveLogs routes the process logger into an in-memory observer for the
// rest of the test
func ObserveLogs(t *testing.T) *observer.ObservedLogs {
	t.Helper()

	core, logs := observer.New(zapcore.DebugLevel)
	restore := logger.SetLogger(zap.New(core))
	t.Cleanup(restore)
	return logs
}
