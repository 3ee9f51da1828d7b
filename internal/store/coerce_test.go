package store

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aranil/dbflow/internal/introspect"
	"github.com/Aranil/dbflow/internal/spatial"
)

func TestBindValue(t *testing.T) {
	integer := introspect.Column{Name: "n", Type: introspect.TypeInteger}
	float := introspect.Column{Name: "r", Type: introspect.TypeReal}
	text := introspect.Column{Name: "s", Type: introspect.TypeText}
	boolean := introspect.Column{Name: "b", Type: introspect.TypeBoolean}

	ts := time.Date(2021, 3, 4, 5, 6, 7, 0, time.UTC)

	tests := []struct {
		name string
		col  introspect.Column
		in   any
		want any
	}{
		{"nil", integer, nil, nil},
		{"int", integer, 7, int64(7)},
		{"uint", integer, uint8(7), int64(7)},
		{"integer string", integer, " 42 ", int64(42)},
		{"whole float to integer", integer, 3.0, int64(3)},
		{"fractional float to integer column", integer, 3.5, 3.5},
		{"float string", float, "2.25", 2.25},
		{"empty string", float, "", nil},
		{"bool", integer, true, int64(1)},
		{"NaN", float, math.NaN(), nil},
		{"time", text, ts, "2021-03-04 05:06:07"},
		{"time pointer", text, &ts, "2021-03-04 05:06:07"},
		{"text", text, "abc", "abc"},
		{"bool string", boolean, "true", true},
		{"bool passthrough", boolean, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := bindValue(tt.col, 4326, tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBindValue_InvalidNumber(t *testing.T) {
	col := introspect.Column{Name: "value", Type: introspect.TypeReal}

	for _, in := range []any{"abc", struct{}{}, time.Now()} {
		_, err := bindValue(col, 4326, in)
		var invalid errInvalidNumber
		assert.True(t, errors.As(err, &invalid), "%v", in)
	}
}

func TestBindValue_Geometry(t *testing.T) {
	col := introspect.Column{Name: "g", Type: introspect.TypeGeometry}

	native, err := bindValue(col, 3857, "POINT(1 2)")
	require.NoError(t, err)
	blob, ok := native.([]byte)
	require.True(t, ok)

	srid, err := spatial.SRID(blob)
	require.NoError(t, err)
	assert.Equal(t, 3857, srid)

	again, err := bindValue(col, 4326, blob)
	require.NoError(t, err)
	assert.Equal(t, blob, again)

	empty, err := bindValue(col, 4326, "  ")
	require.NoError(t, err)
	assert.Nil(t, empty)

	_, err = bindValue(col, 4326, 12)
	assert.True(t, errors.Is(err, spatial.ErrUnsupportedGeometry))
}
