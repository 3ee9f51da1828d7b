package spatial

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func function(t *testing.T, name string) Function {
	t.Helper()
	for _, f := range Functions() {
		if f.Name == name {
			return f
		}
	}
	t.Fatalf("function %s not registered", name)
	return Function{}
}

func TestFunctions_TextRoundTrip(t *testing.T) {
	native, err := function(t, "GeomFromText").Call([]any{"POINT(0 0)", int64(4326)})
	require.NoError(t, err)

	text, err := function(t, "AsText").Call([]any{native})
	require.NoError(t, err)
	assert.Equal(t, "POINT(0 0)", text)

	ewkt, err := function(t, "ST_AsEWKT").Call([]any{native})
	require.NoError(t, err)
	assert.Equal(t, "SRID=4326;POINT(0 0)", ewkt)

	srid, err := function(t, "ST_SRID").Call([]any{native})
	require.NoError(t, err)
	assert.Equal(t, int64(4326), srid)

	kind, err := function(t, "GeometryType").Call([]any{native})
	require.NoError(t, err)
	assert.Equal(t, "POINT", kind)
}

func TestFunctions_GeomFromEWKT(t *testing.T) {
	native, err := function(t, "GeomFromEWKT").Call([]any{[]byte("SRID=3857;POINT(1 2)")})
	require.NoError(t, err)

	srid, err := function(t, "SRID").Call([]any{native})
	require.NoError(t, err)
	assert.Equal(t, int64(3857), srid)
}

func TestFunctions_Null(t *testing.T) {
	for _, name := range []string{"GeomFromText", "AsText", "AsEWKT", "ST_SRID"} {
		got, err := function(t, name).Call([]any{nil})
		require.NoError(t, err, name)
		assert.Nil(t, got, name)
	}

	got, err := function(t, "ST_Intersects").Call([]any{nil, nil})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFunctions_Intersects(t *testing.T) {
	from := function(t, "GeomFromText")
	a, err := from.Call([]any{square, int64(4326)})
	require.NoError(t, err)
	b, err := from.Call([]any{"POINT(5 5)", int64(4326)})
	require.NoError(t, err)
	c, err := from.Call([]any{"POINT(50 50)", int64(4326)})
	require.NoError(t, err)

	hit, err := function(t, "ST_Intersects").Call([]any{a, b})
	require.NoError(t, err)
	assert.Equal(t, int64(1), hit)

	miss, err := function(t, "Intersects").Call([]any{a, c})
	require.NoError(t, err)
	assert.Equal(t, int64(0), miss)
}

func TestFunctions_Arity(t *testing.T) {
	_, err := function(t, "AsText").Call([]any{})
	assert.Error(t, err)

	_, err = function(t, "GeomFromText").Call([]any{"POINT(0 0)", int64(1), int64(2)})
	assert.Error(t, err)

	_, err = function(t, "AsText").Call([]any{"POINT(0 0)"})
	assert.ErrorIs(t, err, ErrInvalidGeometry)
}
