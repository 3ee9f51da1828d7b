package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Aranil/dbflow/internal/introspect"
	"github.com/Aranil/dbflow/internal/logger"
)

// WriteMode selects how records that match an existing primary key are treated
type WriteMode int

const (
	// InsertOrSkip inserts new records and rejects those whose key exists
	InsertOrSkip WriteMode = iota
	// Upsert inserts new records and overwrites the non-key columns of existing ones
	Upsert
)

func (m WriteMode) String() string {
	switch m {
	case InsertOrSkip:
		return "insert-or-skip"
	case Upsert:
		return "upsert"
	}
	return fmt.Sprintf("WriteMode(%d)", int(m))
}

// WriteResult reports the outcome of one Write call
type WriteResult struct {
	BatchID  string
	Table    string
	Mode     WriteMode
	Ingested int
	// Rejected holds the primary key tuples skipped because they already exist
	Rejected [][]any
	// Dropped lists record fields that were not written
	Dropped []string
	// Skipped counts records left out because a primary key value was missing
	// or could not be coerced to the column type
	Skipped int
	// Err is set when the batch failed and was rolled back
	Err error
}

// row is a record reduced to the table's columns and bound values
type row struct {
	columns []string
	values  []any
	key     []any
}

// Write stores records into table, reconciling them against existing rows
// by primary key. The batch runs in one transaction. A failure while
// executing the batch rolls it back and is reported in WriteResult.Err with
// a nil error; an unknown table, an invalid key set or an unsupported
// geometry value is returned as an error and nothing is written.
func (h *Handle) Write(ctx context.Context, table string, primaryKeys []string, records []Record, mode WriteMode) (*WriteResult, error) {
	if h.closed {
		return nil, &Error{Op: "write", Table: table, Err: ErrClosed}
	}
	t, ok := h.index.Table(table)
	if !ok {
		return nil, &Error{Op: "write", Table: table, Err: ErrUnknownTable}
	}

	if err := validatePrimaryKeys(t, primaryKeys); err != nil {
		return nil, &Error{Op: "write", Table: table, Err: err}
	}

	log := logger.Writer().WithFields(map[string]interface{}{"table": table, "mode": mode.String()})

	result := &WriteResult{
		BatchID: uuid.NewString(),
		Table:   table,
		Mode:    mode,
	}

	rows := make([]row, 0, len(records))
	dropped := make(map[string]bool)
	for _, rec := range records {
		r, err := h.prepareRow(t, primaryKeys, rec, func(field, reason string) {
			if !dropped[field] {
				log.Warn("Dropping field", "field", field, "reason", reason)
			}
			dropped[field] = true
		})
		if errors.Is(err, ErrMissingKey) {
			log.Warn("Skipping record", "reason", err.Error())
			result.Skipped++
			continue
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, r)
	}
	for f := range dropped {
		result.Dropped = append(result.Dropped, f)
	}
	sort.Strings(result.Dropped)

	var (
		ingested int
		rejected [][]any
	)
	err := withTransaction(ctx, h.db, nil, func(tx *sqlx.Tx) error {
		for _, r := range rows {
			switch mode {
			case Upsert:
				if err := upsertRow(ctx, tx, t.Name, primaryKeys, r); err != nil {
					return err
				}
				ingested++
			default:
				exists, err := rowExists(ctx, tx, t.Name, primaryKeys, r)
				if err != nil {
					return err
				}
				if exists {
					rejected = append(rejected, r.key)
					continue
				}
				if err := insertRow(ctx, tx, t.Name, r); err != nil {
					return err
				}
				ingested++
			}
		}
		return nil
	})
	if err != nil {
		result.Err = parseSQLiteError(err, "write", table)
		log.Error("Batch rolled back", "batch", result.BatchID, "records", len(rows), "error", result.Err)
		return result, nil
	}

	result.Ingested = ingested
	result.Rejected = rejected

	msg := fmt.Sprintf("Ingested %d entries to table %s", ingested, table)
	if len(rejected) > 0 {
		msg += fmt.Sprintf(", rejected %d (already existing)", len(rejected))
		log.Info(msg, "batch", result.BatchID, "rejected_keys", formatKeys(rejected))
	} else {
		log.Info(msg, "batch", result.BatchID)
	}
	return result, nil
}

func validatePrimaryKeys(t *introspect.Table, primaryKeys []string) error {
	if len(primaryKeys) == 0 {
		return fmt.Errorf("%w: no primary key columns given", ErrInvalidPrimaryKey)
	}
	seen := make(map[string]bool, len(primaryKeys))
	for _, pk := range primaryKeys {
		if _, ok := t.Column(pk); !ok {
			return fmt.Errorf("%w: column %q not in table %s", ErrInvalidPrimaryKey, pk, t.Name)
		}
		if seen[pk] {
			return fmt.Errorf("%w: column %q listed twice", ErrInvalidPrimaryKey, pk)
		}
		seen[pk] = true
	}
	return nil
}

// prepareRow keeps the record fields that are table columns, in column
// order, and binds their values.
func (h *Handle) prepareRow(t *introspect.Table, primaryKeys []string, rec Record, drop func(field, reason string)) (row, error) {
	for field := range rec {
		if _, ok := t.Column(field); !ok {
			drop(field, "not a column of "+t.Name)
		}
	}

	var r row
	bound := make(map[string]any, len(rec))
	for _, col := range t.Columns {
		v, ok := rec[col.Name]
		if !ok {
			continue
		}

		srid := h.defaultSRID
		if g, isGeom := t.GeometryColumn(col.Name); isGeom && g.SRID > 0 {
			srid = g.SRID
		}

		value, err := bindValue(col, srid, v)
		var invalid errInvalidNumber
		if errors.As(err, &invalid) {
			drop(col.Name, invalid.Error())
			continue
		}
		if err != nil {
			return row{}, &Error{Op: "write", Table: t.Name, Column: col.Name, Err: err}
		}

		r.columns = append(r.columns, col.Name)
		r.values = append(r.values, value)
		bound[col.Name] = value
	}

	r.key = make([]any, len(primaryKeys))
	for i, pk := range primaryKeys {
		v, ok := bound[pk]
		if !ok || v == nil {
			return row{}, &Error{Op: "write", Table: t.Name, Column: pk, Err: ErrMissingKey}
		}
		r.key[i] = v
	}
	return r, nil
}

func keyPredicate(primaryKeys []string, r row) squirrel.Eq {
	eq := squirrel.Eq{}
	for i, pk := range primaryKeys {
		eq[quoteIdent(pk)] = r.key[i]
	}
	return eq
}

func rowExists(ctx context.Context, exec DBExecutor, table string, primaryKeys []string, r row) (bool, error) {
	query, args, err := squirrel.Select("1").
		Prefix("SELECT EXISTS(").
		From(quoteIdent(table)).
		Where(keyPredicate(primaryKeys, r)).
		Suffix(")").
		PlaceholderFormat(squirrel.Question).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build existence query: %w", err)
	}

	var exists int
	if err := exec.GetContext(ctx, &exists, query, args...); err != nil {
		return false, fmt.Errorf("failed to check existing row: %w", err)
	}
	return exists == 1, nil
}

func insertBuilder(table string, r row) squirrel.InsertBuilder {
	return squirrel.Insert(quoteIdent(table)).
		Columns(quoteIdents(r.columns)...).
		Values(r.values...).
		PlaceholderFormat(squirrel.Question)
}

func insertRow(ctx context.Context, exec DBExecutor, table string, r row) error {
	query, args, err := insertBuilder(table, r).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert query: %w", err)
	}
	if _, err := exec.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert row: %w", err)
	}
	return nil
}

// upsertSuffix renders the ON CONFLICT clause updating every non-key column
// present in the row.
func upsertSuffix(primaryKeys []string, columns []string) string {
	conflict := make(map[string]bool, len(primaryKeys))
	for _, pk := range primaryKeys {
		conflict[pk] = true
	}

	var set []string
	for _, col := range columns {
		if conflict[col] {
			continue
		}
		q := quoteIdent(col)
		set = append(set, fmt.Sprintf("%s = excluded.%s", q, q))
	}

	clause := fmt.Sprintf("ON CONFLICT (%s)", strings.Join(quoteIdents(primaryKeys), ", "))
	if len(set) == 0 {
		return clause + " DO NOTHING"
	}
	return clause + " DO UPDATE SET " + strings.Join(set, ", ")
}

func upsertRow(ctx context.Context, exec DBExecutor, table string, primaryKeys []string, r row) error {
	query, args, err := insertBuilder(table, r).
		Suffix(upsertSuffix(primaryKeys, r.columns)).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build upsert query: %w", err)
	}
	if _, err := exec.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to execute upsert: %w", err)
	}
	return nil
}

func formatKeys(keys [][]any) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		vals := make([]string, len(k))
		for j, v := range k {
			vals[j] = fmt.Sprint(v)
		}
		parts[i] = "(" + strings.Join(vals, ", ") + ")"
	}
	return strings.Join(parts, ", ")
}
