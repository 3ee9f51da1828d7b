package introspect

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"ariga.io/atlas/sql/schema"
	atlassqlite "ariga.io/atlas/sql/sqlite"

	"github.com/Aranil/dbflow/internal/logger"
)

// GeometryColumnsTable is the spatial metadata table listing geometry columns
const GeometryColumnsTable = "geometry_columns"

// Inspector reflects the structure of a SQLite store
type Inspector struct {
	db *sql.DB
}

// NewInspector creates a new database inspector
func NewInspector(db *sql.DB) *Inspector {
	return &Inspector{db: db}
}

// Reflect builds a fresh SchemaIndex from the live store. SQLite internal
// tables and the spatial metadata table are left out.
func (i *Inspector) Reflect(ctx context.Context) (*SchemaIndex, error) {
	drv, err := atlassqlite.Open(i.db)
	if err != nil {
		return nil, fmt.Errorf("failed to open schema inspector: %w", err)
	}

	realm, err := drv.InspectRealm(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect schema: %w", err)
	}

	registered, err := i.registeredGeometry(ctx)
	if err != nil {
		return nil, err
	}

	var tables []*Table
	for _, s := range realm.Schemas {
		for _, t := range s.Tables {
			if isInternalTable(t.Name) {
				continue
			}
			tables = append(tables, convertTable(t, registered))
		}
	}

	idx := NewSchemaIndex(tables...)
	idx.InspectedAt = time.Now()

	logger.Schema().Debug("Reflected schema", "tables", idx.Len())
	return idx, nil
}

func isInternalTable(name string) bool {
	return strings.HasPrefix(name, "sqlite_") || strings.EqualFold(name, GeometryColumnsTable)
}

func geometryKey(table, column string) string {
	return strings.ToLower(table) + "." + strings.ToLower(column)
}

// registeredGeometry reads the geometry_columns rows keyed by table.column.
// A store without the metadata table yields an empty map.
func (i *Inspector) registeredGeometry(ctx context.Context) (map[string]GeometryColumn, error) {
	out := make(map[string]GeometryColumn)

	var n int
	err := i.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, GeometryColumnsTable,
	).Scan(&n)
	if err != nil {
		return nil, fmt.Errorf("failed to probe %s: %w", GeometryColumnsTable, err)
	}
	if n == 0 {
		return out, nil
	}

	rows, err := i.db.QueryContext(ctx,
		`SELECT f_table_name, f_geometry_column, geometry_type, srid FROM `+GeometryColumnsTable+` ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", GeometryColumnsTable, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			table, column string
			geomType      sql.NullString
			srid          sql.NullInt64
		)
		if err := rows.Scan(&table, &column, &geomType, &srid); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", GeometryColumnsTable, err)
		}
		out[geometryKey(table, column)] = GeometryColumn{
			Name: column,
			Type: strings.ToUpper(geomType.String),
			SRID: int(srid.Int64),
		}
	}
	return out, rows.Err()
}

func convertTable(t *schema.Table, registered map[string]GeometryColumn) *Table {
	table := &Table{Name: t.Name, PrimaryKey: []string{}}

	pk := make(map[string]bool)
	if t.PrimaryKey != nil {
		for _, part := range t.PrimaryKey.Parts {
			if part.C == nil {
				continue
			}
			table.PrimaryKey = append(table.PrimaryKey, part.C.Name)
			pk[part.C.Name] = true
		}
	}

	var fromType []GeometryColumn
	for _, c := range t.Columns {
		col := Column{
			Name:       c.Name,
			Type:       columnType(c),
			PrimaryKey: pk[c.Name],
		}
		if c.Type != nil {
			col.RawType = c.Type.Raw
			col.NotNull = !c.Type.Null
		}

		if g, ok := registered[geometryKey(t.Name, c.Name)]; ok {
			col.Type = TypeGeometry
			g.Name = c.Name
			if g.Type == "" {
				g.Type = "GEOMETRY"
			}
			table.Geometry = append(table.Geometry, g)
		} else if col.Type == TypeGeometry {
			fromType = append(fromType, GeometryColumn{Name: c.Name, Type: normalizeRawType(col.RawType)})
		}
		table.Columns = append(table.Columns, col)
	}
	table.Geometry = append(table.Geometry, fromType...)
	return table
}

func columnType(c *schema.Column) ColumnType {
	if c.Type == nil {
		return TypeBlob
	}
	if IsGeometryType(c.Type.Raw) {
		return TypeGeometry
	}

	switch c.Type.Type.(type) {
	case *schema.IntegerType:
		return TypeInteger
	case *schema.FloatType, *schema.DecimalType:
		return TypeReal
	case *schema.StringType:
		return TypeText
	case *schema.TimeType:
		return TypeTimestamp
	case *schema.BoolType:
		return TypeBoolean
	case *schema.BinaryType:
		return TypeBlob
	case *schema.SpatialType:
		return TypeGeometry
	}
	return semanticType(c.Type.Raw)
}
