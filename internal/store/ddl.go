package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/Aranil/dbflow/internal/catalog"
	"github.com/Aranil/dbflow/internal/introspect"
	"github.com/Aranil/dbflow/internal/logger"
)

// quoteIdent quotes a table or column name for interpolation into SQL text.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteIdents(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = quoteIdent(n)
	}
	return out
}

var sqlTypes = map[catalog.ColumnType]string{
	catalog.TypeInteger:   "INTEGER",
	catalog.TypeReal:      "REAL",
	catalog.TypeText:      "TEXT",
	catalog.TypeTimestamp: "TIMESTAMP",
	catalog.TypeBoolean:   "BOOLEAN",
	catalog.TypeBlob:      "BLOB",
}

// createTableSQL renders the CREATE TABLE statement of a catalog table.
// Geometry columns are declared with their geometry type name.
func createTableSQL(t catalog.Table) (string, error) {
	var defs []string

	for _, c := range t.Columns {
		typ, ok := sqlTypes[c.Type]
		if !ok {
			return "", fmt.Errorf("column %s.%s: unsupported type %q", t.Name, c.Name, c.Type)
		}

		def := quoteIdent(c.Name) + " " + typ
		if c.NotNull || c.PrimaryKey {
			def += " NOT NULL"
		}
		if c.Default != "" {
			def += " DEFAULT " + defaultExpr(c.Default)
		}
		defs = append(defs, def)
	}

	for _, g := range t.Geometry {
		typ := strings.ToUpper(g.Type)
		if typ == "" {
			typ = "GEOMETRY"
		}
		defs = append(defs, quoteIdent(g.Name)+" "+typ)
	}

	if pks := t.PrimaryKeys(); len(pks) > 0 {
		defs = append(defs, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(quoteIdents(pks), ", ")))
	}

	for _, c := range t.Columns {
		refTable, refColumn, ok := c.Reference()
		if !ok {
			continue
		}
		defs = append(defs, fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s (%s)",
			quoteIdent(c.Name), quoteIdent(refTable), quoteIdent(refColumn)))
	}

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", quoteIdent(t.Name), strings.Join(defs, ",\n\t")), nil
}

// defaultExpr keeps SQL keywords and numbers as they are and quotes
// everything else as a string literal.
func defaultExpr(v string) string {
	switch strings.ToUpper(strings.TrimSpace(v)) {
	case "CURRENT_TIMESTAMP", "CURRENT_DATE", "CURRENT_TIME", "NULL", "TRUE", "FALSE":
		return strings.ToUpper(strings.TrimSpace(v))
	}
	if strings.HasPrefix(v, "(") || strings.HasPrefix(v, "'") {
		return v
	}
	if _, err := parseNumber(v); err == nil {
		return v
	}
	return "'" + strings.ReplaceAll(v, "'", "''") + "'"
}

const createGeometryColumnsSQL = `CREATE TABLE IF NOT EXISTS ` + introspect.GeometryColumnsTable + ` (
	f_table_name TEXT NOT NULL,
	f_geometry_column TEXT NOT NULL,
	geometry_type TEXT NOT NULL,
	coord_dimension INTEGER NOT NULL DEFAULT 2,
	srid INTEGER NOT NULL,
	PRIMARY KEY (f_table_name, f_geometry_column)
)`

// registerGeometryColumn records a geometry column in the spatial metadata table.
func registerGeometryColumn(ctx context.Context, exec DBExecutor, table string, g catalog.GeometryColumn) error {
	typ := strings.ToUpper(g.Type)
	if typ == "" {
		typ = "GEOMETRY"
	}

	query, args, err := squirrel.Insert(introspect.GeometryColumnsTable).
		Options("OR IGNORE").
		Columns("f_table_name", "f_geometry_column", "geometry_type", "coord_dimension", "srid").
		Values(table, g.Name, typ, 2, g.SRID).
		PlaceholderFormat(squirrel.Question).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build geometry registration: %w", err)
	}

	if _, err := exec.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to register geometry column %s.%s: %w", table, g.Name, err)
	}
	return nil
}

// createTable creates one catalog table and registers its geometry columns
// in a single transaction.
func (h *Handle) createTable(ctx context.Context, t catalog.Table) error {
	ddl, err := createTableSQL(t)
	if err != nil {
		return &Error{Op: "create", Table: t.Name, Err: err}
	}

	err = withTransaction(ctx, h.db, nil, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
		for _, g := range t.Geometry {
			if err := registerGeometryColumn(ctx, tx, t.Name, g); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return &Error{Op: "create", Table: t.Name, Query: ddl, Err: err}
	}

	logger.Store().Info("Created table", "table", t.Name, "geometry_columns", len(t.Geometry))
	return nil
}

// ensureCatalog creates the catalog tables missing from the store in
// foreign key dependency order and re-reflects when anything was created.
func (h *Handle) ensureCatalog(ctx context.Context) ([]string, error) {
	if h.catalog.Len() == 0 {
		return nil, nil
	}

	tables, err := h.catalog.SortTables()
	if err != nil {
		return nil, &Error{Op: "create", Err: err}
	}

	var created []string
	for _, t := range tables {
		if h.index.HasTable(t.Name) {
			logger.Store().Debug("Table already exists", "table", t.Name)
			continue
		}
		if err := h.createTable(ctx, t); err != nil {
			return created, err
		}
		created = append(created, t.Name)
	}

	if len(created) > 0 {
		if err := h.Refresh(ctx); err != nil {
			return created, err
		}
	}
	return created, nil
}
