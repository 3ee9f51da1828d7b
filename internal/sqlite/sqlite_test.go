package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetInfo(t *testing.T) {
	info := GetInfo()
	assert.Equal(t, DriverName(), info.DriverName)
	assert.Equal(t, DriverType(), info.DriverType)
	assert.Equal(t, IsCGO(), info.IsCGO)
	assert.NotEmpty(t, info.Package)
}

func TestOpen_SpatialFunctions(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "test.db"), 5*time.Second)
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()

	var text string
	require.NoError(t, db.QueryRowContext(ctx, "SELECT AsText(GeomFromText('POINT(0 0)', 4326))").Scan(&text))
	assert.Equal(t, "POINT(0 0)", text)

	var ewkt string
	require.NoError(t, db.QueryRowContext(ctx, "SELECT ST_AsEWKT(GeomFromText(?, ?))", "POINT Z (1 2 3)", 3857).Scan(&ewkt))
	assert.Equal(t, "SRID=3857;POINT(1 2)", ewkt)

	var hit int
	require.NoError(t, db.QueryRowContext(ctx,
		"SELECT ST_Intersects(GeomFromText('POLYGON((0 0, 10 0, 10 10, 0 10, 0 0))', 4326), GeomFromText('POINT(5 5)', 4326))",
	).Scan(&hit))
	assert.Equal(t, 1, hit)
}

func TestOpen_StoredGeometry(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "test.db"), time.Second)
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	_, err = db.ExecContext(ctx, `CREATE TABLE shapes (id INTEGER PRIMARY KEY, geom BLOB)`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO shapes (id, geom) VALUES (1, GeomFromText('POINT(5 5)', 4326)), (2, GeomFromText('POINT(50 50)', 4326))`)
	require.NoError(t, err)

	rows, err := db.QueryContext(ctx,
		`SELECT id FROM shapes WHERE ST_Intersects(GeomFromText(?, 4326), geom) = 1`,
		"POLYGON((0 0, 10 0, 10 10, 0 10, 0 0))")
	require.NoError(t, err)
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		require.NoError(t, rows.Scan(&id))
		ids = append(ids, id)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []int{1}, ids)
}
