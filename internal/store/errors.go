package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Aranil/dbflow/internal/introspect"
)

// Common errors
var (
	ErrStoreUnavailable  = errors.New("store unavailable")
	ErrUnknownTable      = introspect.ErrUnknownTable
	ErrInvalidPrimaryKey = errors.New("invalid primary key")
	ErrClosed            = errors.New("store closed")
	ErrNotFound          = errors.New("record not found")
	ErrDuplicateKey      = errors.New("duplicate key violation")
	ErrForeignKey        = errors.New("foreign key violation")
	ErrNotNull           = errors.New("not null constraint violation")
	ErrBusy              = errors.New("database is locked")
	ErrInvalidDateFilter = errors.New("invalid date filter")
	ErrMissingKey        = errors.New("missing primary key value")
)

// Error provides detailed error information
type Error struct {
	Op     string        // Operation that failed
	Table  string        // Table involved
	Err    error         // Underlying error
	Query  string        // SQL query (if applicable)
	Args   []interface{} // Query arguments (if applicable)
	Column string        // Column name (if applicable)
}

func (e *Error) Error() string {
	var parts []string

	parts = append(parts, fmt.Sprintf("store: %s", e.Op))

	if e.Table != "" {
		parts = append(parts, fmt.Sprintf("table=%s", e.Table))
	}

	if e.Column != "" {
		parts = append(parts, fmt.Sprintf("column=%s", e.Column))
	}

	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}

	return strings.Join(parts, ": ")
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for Error type
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return errors.Is(e.Err, target)
	}

	if t.Op != "" && e.Op == t.Op {
		return true
	}

	return errors.Is(e.Err, t.Err)
}

// parseSQLiteError converts driver errors to store errors
func parseSQLiteError(err error, op, table string) error {
	if err == nil {
		return nil
	}

	var storeErr *Error
	if errors.As(err, &storeErr) {
		return err
	}

	if errors.Is(err, sql.ErrNoRows) {
		return &Error{Op: op, Table: table, Err: ErrNotFound}
	}

	errStr := err.Error()

	switch {
	case strings.Contains(errStr, "UNIQUE constraint failed"),
		strings.Contains(errStr, "PRIMARY KEY constraint failed"):
		return &Error{Op: op, Table: table, Err: fmt.Errorf("%w: %v", ErrDuplicateKey, err), Column: extractColumnName(errStr)}
	case strings.Contains(errStr, "FOREIGN KEY constraint failed"):
		return &Error{Op: op, Table: table, Err: fmt.Errorf("%w: %v", ErrForeignKey, err)}
	case strings.Contains(errStr, "NOT NULL constraint failed"):
		return &Error{Op: op, Table: table, Err: fmt.Errorf("%w: %v", ErrNotNull, err), Column: extractColumnName(errStr)}
	case strings.Contains(errStr, "database is locked"), strings.Contains(errStr, "SQLITE_BUSY"):
		return &Error{Op: op, Table: table, Err: fmt.Errorf("%w: %v", ErrBusy, err)}
	}

	return &Error{Op: op, Table: table, Err: err}
}

// extractColumnName reads the "table.column" suffix SQLite appends to
// constraint failures.
func extractColumnName(errStr string) string {
	const marker = "constraint failed: "
	idx := strings.LastIndex(errStr, marker)
	if idx == -1 {
		return ""
	}
	fields := strings.Fields(errStr[idx+len(marker):])
	if len(fields) == 0 {
		return ""
	}
	col := strings.TrimSuffix(fields[0], ",")
	if dot := strings.LastIndexByte(col, '.'); dot >= 0 {
		col = col[dot+1:]
	}
	return col
}

// IsConstraintError checks if an error is a constraint violation
func IsConstraintError(err error) bool {
	return errors.Is(err, ErrDuplicateKey) ||
		errors.Is(err, ErrForeignKey) ||
		errors.Is(err, ErrNotNull)
}
