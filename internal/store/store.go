// Package store is dbflow's data-access layer over a single-file SQLite
// store with spatial support. A Handle reflects the store's schema when it
// is opened, creates missing catalog tables, and exposes table-generic reads
// and primary-key reconciled writes.
package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Aranil/dbflow/internal/catalog"
	"github.com/Aranil/dbflow/internal/introspect"
	"github.com/Aranil/dbflow/internal/logger"
	"github.com/Aranil/dbflow/internal/spatial"
	"github.com/Aranil/dbflow/internal/sqlite"
)

// DefaultBusyTimeout is how long a connection waits on a locked database
const DefaultBusyTimeout = 5 * time.Second

// Record is one row keyed by column name
type Record map[string]any

// Option configures Open
type Option func(*options)

type options struct {
	catalog     *catalog.Catalog
	busyTimeout time.Duration
	defaultSRID int
}

// WithCatalog sets the tables created when missing from the store
func WithCatalog(c *catalog.Catalog) Option {
	return func(o *options) { o.catalog = c }
}

// WithBusyTimeout sets the SQLite busy timeout
func WithBusyTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.busyTimeout = d
		}
	}
}

// WithDefaultSRID sets the SRID used for geometry values written to columns
// without a registered SRID and for spatial filters without one
func WithDefaultSRID(srid int) Option {
	return func(o *options) {
		if srid > 0 {
			o.defaultSRID = srid
		}
	}
}

// Handle is an open store session. It is not safe for concurrent writers.
type Handle struct {
	path        string
	db          *sqlx.DB
	inspector   *introspect.Inspector
	index       *introspect.SchemaIndex
	catalog     *catalog.Catalog
	defaultSRID int
	created     []string
	closed      bool
}

// Open opens the store at path, creating parent directories as needed,
// attaches the spatial functions and metadata table, reflects the schema
// and creates the catalog tables that do not exist yet.
func Open(ctx context.Context, path string, opts ...Option) (*Handle, error) {
	o := options{busyTimeout: DefaultBusyTimeout, defaultSRID: spatial.DefaultSRID}
	for _, opt := range opts {
		opt(&o)
	}

	if path == "" {
		return nil, &Error{Op: "open", Err: fmt.Errorf("%w: empty database path", ErrStoreUnavailable)}
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, &Error{Op: "open", Err: fmt.Errorf("%w: create directory %s: %w", ErrStoreUnavailable, dir, err)}
		}
	}

	raw, err := sqlite.Open(path, o.busyTimeout)
	if err != nil {
		return nil, &Error{Op: "open", Err: fmt.Errorf("%w: %w", ErrStoreUnavailable, err)}
	}

	db := sqlx.NewDb(raw, sqlite.DriverName())
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, &Error{Op: "open", Err: fmt.Errorf("%w: %w", ErrStoreUnavailable, err)}
	}

	h := newHandle(db, o)
	h.path = path

	if err := h.init(ctx); err != nil {
		db.Close()
		return nil, err
	}

	logger.Store().Info("Opened store",
		"path", path,
		"driver", sqlite.DriverType(),
		"tables", h.index.Len(),
		"created", len(h.created),
	)
	return h, nil
}

func newHandle(db *sqlx.DB, o options) *Handle {
	if o.defaultSRID == 0 {
		o.defaultSRID = spatial.DefaultSRID
	}
	return &Handle{
		db:          db,
		inspector:   introspect.NewInspector(db.DB),
		catalog:     o.catalog,
		defaultSRID: o.defaultSRID,
	}
}

func (h *Handle) init(ctx context.Context) error {
	if err := h.attachSpatial(ctx); err != nil {
		return err
	}

	if err := h.Refresh(ctx); err != nil {
		return err
	}

	created, err := h.ensureCatalog(ctx)
	h.created = created
	return err
}

// attachSpatial checks that the spatial SQL functions answer and creates the
// geometry_columns metadata table when absent. Failure makes the store
// unusable.
func (h *Handle) attachSpatial(ctx context.Context) error {
	const probe = "SELECT AsText(GeomFromText('POINT(0 0)', 4326))"

	var text string
	if err := h.db.GetContext(ctx, &text, probe); err != nil {
		return &Error{Op: "spatial", Query: probe, Err: fmt.Errorf("%w: spatial functions unavailable: %w", ErrStoreUnavailable, err)}
	}
	if text != "POINT(0 0)" {
		return &Error{Op: "spatial", Query: probe, Err: fmt.Errorf("%w: spatial self test returned %q", ErrStoreUnavailable, text)}
	}

	if _, err := h.db.ExecContext(ctx, createGeometryColumnsSQL); err != nil {
		return &Error{Op: "spatial", Err: fmt.Errorf("%w: init spatial metadata: %w", ErrStoreUnavailable, err)}
	}
	return nil
}

// Refresh rebuilds the schema index from the live store, replacing the
// previous one wholesale.
func (h *Handle) Refresh(ctx context.Context) error {
	if h.closed {
		return &Error{Op: "reflect", Err: ErrClosed}
	}

	idx, err := h.inspector.Reflect(ctx)
	if err != nil {
		return &Error{Op: "reflect", Err: err}
	}
	h.index = idx
	return nil
}

// Index returns the current schema index.
func (h *Handle) Index() *introspect.SchemaIndex {
	return h.index
}

// Path returns the database file path.
func (h *Handle) Path() string {
	return h.path
}

// DB returns the underlying connection pool.
func (h *Handle) DB() *sqlx.DB {
	return h.db
}

// CreatedTables lists the catalog tables created when the handle was opened.
func (h *Handle) CreatedTables() []string {
	return append([]string(nil), h.created...)
}

// Columns returns the reflected columns of a table.
func (h *Handle) Columns(table string) ([]string, error) {
	return h.index.Columns(table)
}

// PrimaryKeys returns the reflected primary key columns of a table.
func (h *Handle) PrimaryKeys(table string) ([]string, error) {
	return h.index.PrimaryKeys(table)
}

// GeometryColumns returns the geometry columns of a table.
func (h *Handle) GeometryColumns(table string) ([]introspect.GeometryColumn, error) {
	return h.index.GeometryColumns(table)
}

// TableInfo summarizes a table for callers that only need to know whether
// it exists and what it holds
type TableInfo struct {
	Name       string
	Exists     bool
	Columns    []string
	PrimaryKey []string
	Geometry   []introspect.GeometryColumn
}

// TableInfo describes a table without failing for unknown names.
func (h *Handle) TableInfo(table string) TableInfo {
	info := TableInfo{Name: table}
	t, ok := h.index.Table(table)
	if !ok {
		return info
	}
	info.Exists = true
	info.Columns = t.ColumnNames()
	info.PrimaryKey = append([]string(nil), t.PrimaryKey...)
	info.Geometry = append([]introspect.GeometryColumn(nil), t.Geometry...)
	return info
}

// CreateTableFromSQL runs caller supplied DDL when table does not exist yet
// and re-reflects. It reports whether the table was created.
func (h *Handle) CreateTableFromSQL(ctx context.Context, ddl, table string) (bool, error) {
	if h.index.HasTable(table) {
		logger.Store().Info("Table already exists", "table", table)
		return false, nil
	}

	if _, err := h.db.ExecContext(ctx, ddl); err != nil {
		return false, parseSQLiteError(fmt.Errorf("failed to execute DDL: %w", err), "create", table)
	}

	if err := h.Refresh(ctx); err != nil {
		return false, err
	}

	if !h.index.HasTable(table) {
		return false, &Error{Op: "create", Table: table, Query: ddl, Err: fmt.Errorf("%w: DDL did not create the table", ErrUnknownTable)}
	}

	logger.Store().Info("Created table", "table", table)
	return true, nil
}

// Close releases the schema session and then the connection. Calling it
// again is a no-op.
func (h *Handle) Close() error {
	if h == nil || h.closed {
		return nil
	}
	h.closed = true
	h.index = nil

	if err := h.db.Close(); err != nil {
		return &Error{Op: "close", Err: err}
	}
	return nil
}
