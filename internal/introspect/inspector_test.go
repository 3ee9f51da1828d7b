package introspect

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aranil/dbflow/internal/sqlite"
)

func openTestDB(t *testing.T, ddl ...string) *sql.DB {
	t.Helper()

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "inspect.db"), time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	for _, stmt := range ddl {
		_, err := db.Exec(stmt)
		require.NoError(t, err, stmt)
	}
	return db
}

func TestInspector_Reflect(t *testing.T) {
	db := openTestDB(t,
		`CREATE TABLE geometry_columns (f_table_name TEXT, f_geometry_column TEXT, geometry_type TEXT, coord_dimension INTEGER, srid INTEGER)`,
		`CREATE TABLE aoilegend (aoi TEXT PRIMARY KEY, description TEXT)`,
		`CREATE TABLE areaofinterest (
			fid INTEGER NOT NULL,
			year INTEGER NOT NULL,
			aoi TEXT NOT NULL,
			area REAL,
			datetime_inserted TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			field_geom BLOB,
			PRIMARY KEY (fid, year, aoi)
		)`,
		`CREATE TABLE plain (id INTEGER PRIMARY KEY, centroid POINT, active BOOLEAN)`,
		`INSERT INTO geometry_columns VALUES ('areaofinterest', 'field_geom', 'POLYGON', 2, 4326)`,
	)

	idx, err := NewInspector(db).Reflect(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"aoilegend", "areaofinterest", "plain"}, idx.TableNames())
	assert.False(t, idx.HasTable(GeometryColumnsTable))

	cols, err := idx.Columns("areaofinterest")
	require.NoError(t, err)
	assert.Equal(t, []string{"fid", "year", "aoi", "area", "datetime_inserted", "field_geom"}, cols)

	pks, err := idx.PrimaryKeys("areaofinterest")
	require.NoError(t, err)
	assert.Equal(t, []string{"fid", "year", "aoi"}, pks)

	geoms, err := idx.GeometryColumns("areaofinterest")
	require.NoError(t, err)
	assert.Equal(t, []GeometryColumn{{Name: "field_geom", Type: "POLYGON", SRID: 4326}}, geoms)

	table, ok := idx.Table("areaofinterest")
	require.True(t, ok)
	col, ok := table.Column("field_geom")
	require.True(t, ok)
	assert.Equal(t, TypeGeometry, col.Type)
	col, ok = table.Column("area")
	require.True(t, ok)
	assert.Equal(t, TypeReal, col.Type)
	col, ok = table.Column("fid")
	require.True(t, ok)
	assert.True(t, col.PrimaryKey)
	assert.Equal(t, TypeInteger, col.Type)

	plainGeoms, err := idx.GeometryColumns("plain")
	require.NoError(t, err)
	assert.Equal(t, []GeometryColumn{{Name: "centroid", Type: "POINT"}}, plainGeoms)

	legendGeoms, err := idx.GeometryColumns("aoilegend")
	require.NoError(t, err)
	assert.Empty(t, legendGeoms)

	assert.Len(t, idx.AllGeometryColumns(), 2)
	assert.True(t, idx.HasColumn("plain", "active"))
	assert.False(t, idx.HasColumn("plain", "missing"))
	assert.False(t, idx.HasColumn("missing", "id"))
}

func TestInspector_ReflectWithoutMetadataTable(t *testing.T) {
	db := openTestDB(t, `CREATE TABLE readings (id INTEGER PRIMARY KEY, value REAL)`)

	idx, err := NewInspector(db).Reflect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"readings"}, idx.TableNames())

	pks, err := idx.PrimaryKeys("readings")
	require.NoError(t, err)
	assert.Equal(t, []string{"id"}, pks)
}

func TestInspector_ReflectEmptyStore(t *testing.T) {
	idx, err := NewInspector(openTestDB(t)).Reflect(context.Background())
	require.NoError(t, err)
	assert.Zero(t, idx.Len())
}

func TestSchemaIndex_UnknownTable(t *testing.T) {
	idx := NewSchemaIndex(&Table{Name: "a", Columns: []Column{{Name: "id", Type: TypeInteger}}})

	_, err := idx.Columns("b")
	assert.ErrorIs(t, err, ErrUnknownTable)
	_, err = idx.PrimaryKeys("b")
	assert.ErrorIs(t, err, ErrUnknownTable)
	_, err = idx.GeometryColumns("b")
	assert.ErrorIs(t, err, ErrUnknownTable)

	var nilIdx *SchemaIndex
	assert.False(t, nilIdx.HasTable("a"))
	assert.Zero(t, nilIdx.Len())
}

func TestSemanticType(t *testing.T) {
	tests := map[string]ColumnType{
		"INTEGER":        TypeInteger,
		"bigint":         TypeInteger,
		"REAL":           TypeReal,
		"double":         TypeReal,
		"NUMERIC(10,2)":  TypeReal,
		"TEXT":           TypeText,
		"varchar(20)":    TypeText,
		"TIMESTAMP":      TypeTimestamp,
		"DATE":           TypeTimestamp,
		"BOOLEAN":        TypeBoolean,
		"BLOB":           TypeBlob,
		"":               TypeBlob,
		"POLYGON":        TypeGeometry,
		"MULTIPOLYGON Z": TypeGeometry,
		"geometry":       TypeGeometry,
		"something else": TypeText,
	}

	for raw, want := range tests {
		assert.Equal(t, want, semanticType(raw), raw)
	}
}
