package spatial

import (
	"testing"

	"github.com/go-spatial/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntersects(t *testing.T) {
	withHole := "POLYGON ((0 0, 10 0, 10 10, 0 10, 0 0), (4 4, 6 4, 6 6, 4 6, 4 4))"

	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"overlapping squares", square, "POLYGON ((5 5, 15 5, 15 15, 5 15, 5 5))", true},
		{"disjoint squares", square, "POLYGON ((20 20, 30 20, 30 30, 20 30, 20 20))", false},
		{"contained square", square, "POLYGON ((2 2, 3 2, 3 3, 2 3, 2 2))", true},
		{"containing square", "POLYGON ((2 2, 3 2, 3 3, 2 3, 2 2))", square, true},
		{"touching edge", square, "POLYGON ((10 0, 20 0, 20 10, 10 10, 10 0))", true},
		{"point inside", square, "POINT (5 5)", true},
		{"point on boundary", square, "POINT (10 5)", true},
		{"point outside", square, "POINT (11 5)", false},
		{"point in hole", withHole, "POINT (5 5)", false},
		{"square in hole", withHole, "POLYGON ((4.5 4.5, 5.5 4.5, 5.5 5.5, 4.5 5.5, 4.5 4.5))", false},
		{"line crossing", square, "LINESTRING (-5 5, 15 5)", true},
		{"line outside", square, "LINESTRING (-5 -5, -1 20)", false},
		{"same point", "POINT (1 1)", "POINT (1 1)", true},
		{"different points", "POINT (1 1)", "POINT (1 2)", false},
		{"envelopes overlap only", "POLYGON ((0 0, 10 0, 0 10, 0 0))", "POLYGON ((9 9, 10 9, 10 10, 9 10, 9 9))", false},
		{
			"multipolygon second part",
			"MULTIPOLYGON (((0 0, 1 0, 1 1, 0 1, 0 0)), ((20 20, 30 20, 30 30, 20 30, 20 20)))",
			"POINT (25 25)",
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Intersects(mustParse(t, tt.a), mustParse(t, tt.b))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMbrIntersects(t *testing.T) {
	triangle := mustParse(t, "POLYGON ((0 0, 10 0, 0 10, 0 0))")
	corner := mustParse(t, "POLYGON ((9 9, 10 9, 10 10, 9 10, 9 9))")

	hit, err := MbrIntersects(triangle, corner)
	require.NoError(t, err)
	assert.True(t, hit)
}

func TestIntersects_Unsupported(t *testing.T) {
	_, err := Intersects(geom.Point{0, 0}, nil)
	assert.ErrorIs(t, err, ErrUnsupportedGeometry)
}
