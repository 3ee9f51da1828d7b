package store

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"time"
	"unicode/utf8"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/Aranil/dbflow/internal/introspect"
	"github.com/Aranil/dbflow/internal/logger"
	"github.com/Aranil/dbflow/internal/spatial"
)

// DateColumn is the column date filters apply to
const DateColumn = "date"

// DateFilter selects rows by the date column: an exact match when To is nil,
// otherwise the inclusive range [From, To]
type DateFilter struct {
	From any
	To   any
	// Range makes From and To inclusive bounds; a nil bound leaves that side open
	Range bool
}

// On matches a single date
func On(date any) *DateFilter {
	return &DateFilter{From: date}
}

// Between matches the inclusive range [from, to]. A nil bound is open ended.
func Between(from, to any) *DateFilter {
	return &DateFilter{From: from, To: to, Range: true}
}

// QueryRequest describes a read against one table
type QueryRequest struct {
	Table string
	// Columns to return; nil or ["*"] selects every column
	Columns []string
	// Filters maps a column to a scalar (=) or a slice (IN)
	Filters map[string]any
	Date    *DateFilter
	// Spatial is a WKT/EWKT string or a shape whose geographic envelope must
	// intersect the table's first geometry column
	Spatial     any
	SpatialSRID int
}

// BuildQuery translates req into SQL text and its positional arguments.
// Unknown columns and filters are dropped and reported as warnings.
func BuildQuery(idx *introspect.SchemaIndex, req QueryRequest) (string, []any, []string, error) {
	table, ok := idx.Table(req.Table)
	if !ok {
		return "", nil, nil, &Error{Op: "query", Table: req.Table, Err: ErrUnknownTable}
	}

	var warnings []string
	warnf := func(format string, args ...any) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	}

	builder := squirrel.Select(projection(table, req.Columns, warnf)...).
		From(quoteIdent(table.Name)).
		PlaceholderFormat(squirrel.Question)

	var where squirrel.And

	keys := make([]string, 0, len(req.Filters))
	for k := range req.Filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if _, ok := table.Column(k); !ok {
			warnf("filter column %q not in table %s, ignored", k, table.Name)
			continue
		}
		where = append(where, squirrel.Eq{quoteIdent(k): filterValue(req.Filters[k])})
	}

	if req.Date != nil {
		pred, err := datePredicate(req.Date)
		if err != nil {
			return "", nil, warnings, &Error{Op: "query", Table: table.Name, Column: DateColumn, Err: err}
		}
		where = append(where, pred...)
	}

	if req.Spatial != nil {
		pred, err := spatialPredicate(table, req, warnf)
		if err != nil {
			return "", nil, warnings, &Error{Op: "query", Table: table.Name, Err: err}
		}
		if pred != nil {
			where = append(where, pred)
		}
	}

	if len(where) > 0 {
		builder = builder.Where(where)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return "", nil, warnings, &Error{Op: "query", Table: table.Name, Err: fmt.Errorf("failed to build query: %w", err)}
	}
	return query, args, warnings, nil
}

// projection resolves the requested columns against the table. Geometry
// columns are returned as EWKT text.
func projection(table *introspect.Table, requested []string, warnf func(string, ...any)) []string {
	var names []string
	if len(requested) == 0 || (len(requested) == 1 && requested[0] == "*") {
		names = table.ColumnNames()
	} else {
		for _, name := range requested {
			if _, ok := table.Column(name); !ok {
				warnf("column %q not in table %s, ignored", name, table.Name)
				continue
			}
			names = append(names, name)
		}
		if len(names) == 0 {
			names = table.ColumnNames()
		}
	}

	cols := make([]string, len(names))
	for i, name := range names {
		col, _ := table.Column(name)
		if col.Type == introspect.TypeGeometry {
			cols[i] = fmt.Sprintf("AsEWKT(%s) AS %s", quoteIdent(name), quoteIdent(name))
			continue
		}
		cols[i] = quoteIdent(name)
	}
	return cols
}

// filterValue normalizes a filter value; slices stay slices so squirrel
// renders them as IN lists.
func filterValue(v any) any {
	if v == nil {
		return nil
	}
	if _, ok := v.([]byte); ok {
		return v
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return bindScalar(v)
	}

	out := make([]any, rv.Len())
	for i := range out {
		out[i] = bindScalar(rv.Index(i).Interface())
	}
	return out
}

func spatialPredicate(table *introspect.Table, req QueryRequest, warnf func(string, ...any)) (squirrel.Sqlizer, error) {
	if len(table.Geometry) == 0 {
		warnf("table %s has no geometry column, spatial filter ignored", table.Name)
		return nil, nil
	}
	column := table.Geometry[0]
	if len(table.Geometry) > 1 {
		warnf("table %s has %d geometry columns, filtering on %s", table.Name, len(table.Geometry), column.Name)
	}

	srid := req.SpatialSRID
	if srid == 0 {
		srid = spatial.DefaultSRID
	}

	shape := req.Spatial
	if text, ok := req.Spatial.(string); ok {
		g, ewktSRID, hasSRID, err := spatial.ParseWKT(text)
		if err != nil {
			return nil, err
		}
		shape = g
		if hasSRID {
			srid = ewktSRID
		}
	}

	envelope, err := spatial.EnvelopeWKT(shape, srid)
	if errors.Is(err, spatial.ErrUnsupportedProjection) {
		warnf("spatial filter ignored: %v", err)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return squirrel.Expr(
		fmt.Sprintf("ST_Intersects(GeomFromText(?, %d), %s) = 1", spatial.DefaultSRID, quoteIdent(column.Name)),
		envelope,
	), nil
}

func datePredicate(d *DateFilter) ([]squirrel.Sqlizer, error) {
	col := quoteIdent(DateColumn)
	if !d.Range && d.To == nil {
		if d.From == nil {
			return nil, fmt.Errorf("%w: no date given", ErrInvalidDateFilter)
		}
		return []squirrel.Sqlizer{squirrel.Eq{col: bindScalar(d.From)}}, nil
	}

	if d.From == nil && d.To == nil {
		return nil, fmt.Errorf("%w: date range has neither bound", ErrInvalidDateFilter)
	}
	var pred []squirrel.Sqlizer
	if d.From != nil {
		pred = append(pred, squirrel.GtOrEq{col: bindScalar(d.From)})
	}
	if d.To != nil {
		pred = append(pred, squirrel.LtOrEq{col: bindScalar(d.To)})
	}
	return pred, nil
}

// TableExists reports whether the table is in the reflected schema.
func (h *Handle) TableExists(table string) bool {
	return h.index.HasTable(table)
}

// TableEmpty reports whether an existing table has no rows.
func (h *Handle) TableEmpty(ctx context.Context, table string) (bool, error) {
	if !h.index.HasTable(table) {
		return false, &Error{Op: "probe", Table: table, Err: ErrUnknownTable}
	}

	query, args, err := squirrel.Select("1").
		From(quoteIdent(table)).
		Limit(1).
		PlaceholderFormat(squirrel.Question).
		ToSql()
	if err != nil {
		return false, &Error{Op: "probe", Table: table, Err: err}
	}

	rows, err := h.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return false, parseSQLiteError(err, "probe", table)
	}
	defer rows.Close()

	empty := !rows.Next()
	if err := rows.Err(); err != nil {
		return false, parseSQLiteError(err, "probe", table)
	}
	return empty, nil
}

// Fetch reads the rows of a table matching req. A missing or empty table
// yields an empty result and a log entry, never an error.
func (h *Handle) Fetch(ctx context.Context, req QueryRequest) ([]Record, error) {
	if h.closed {
		return nil, &Error{Op: "fetch", Table: req.Table, Err: ErrClosed}
	}
	log := logger.Query().WithField("table", req.Table)

	if !h.index.HasTable(req.Table) {
		log.Warn("Table does not exist")
		return []Record{}, nil
	}

	empty, err := h.TableEmpty(ctx, req.Table)
	if err != nil {
		return nil, err
	}
	if empty {
		log.Warn("Table is empty")
		return []Record{}, nil
	}

	query, args, warnings, err := BuildQuery(h.index, req)
	for _, w := range warnings {
		log.Warn(w)
	}
	if err != nil {
		return nil, err
	}

	log.Debug("Executing query", "sql", query, "args", len(args))

	records, err := h.queryRecords(ctx, h.db, query, args...)
	if err != nil {
		return nil, parseSQLiteError(fmt.Errorf("failed to execute query: %w", err), "fetch", req.Table)
	}
	return records, nil
}

// Query runs raw SQL, such as a rendered template, and returns its rows.
func (h *Handle) Query(ctx context.Context, query string, args ...any) ([]Record, error) {
	if h.closed {
		return nil, &Error{Op: "query", Err: ErrClosed}
	}
	start := time.Now()
	records, err := h.queryRecords(ctx, h.db, query, args...)
	if err != nil {
		return nil, parseSQLiteError(fmt.Errorf("failed to execute query: %w", err), "query", "")
	}

	if len(records) == 0 {
		logger.Query().Warn("Query returned no rows")
	}
	logger.Query().Debug("Query finished", "rows", len(records), "elapsed", time.Since(start))
	return records, nil
}

func (h *Handle) queryRecords(ctx context.Context, exec sqlx.QueryerContext, query string, args ...any) ([]Record, error) {
	rows, err := exec.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		row := make(map[string]any)
		if err := rows.MapScan(row); err != nil {
			return nil, err
		}
		for k, v := range row {
			if b, ok := v.([]byte); ok && utf8.Valid(b) {
				row[k] = string(b)
			}
		}
		records = append(records, Record(row))
	}
	return records, rows.Err()
}
