package store

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/Aranil/dbflow/internal/introspect"
	"github.com/Aranil/dbflow/internal/spatial"
)

// TimeLayout is the text layout used for time values bound to the store
const TimeLayout = "2006-01-02 15:04:05"

func parseNumber(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

// errInvalidNumber marks a value that cannot be stored in a numeric column.
// It is a soft failure: the field is dropped and the record kept.
type errInvalidNumber struct {
	column string
	value  any
}

func (e errInvalidNumber) Error() string {
	return fmt.Sprintf("invalid numeric value %v for column %s", e.value, e.column)
}

// bindValue converts v into a value bound for a column of the given type.
// Geometry columns are encoded in the store's native form using srid unless
// the value carries its own.
func bindValue(col introspect.Column, srid int, v any) (any, error) {
	if v == nil {
		return nil, nil
	}

	switch col.Type {
	case introspect.TypeGeometry:
		return bindGeometry(v, srid)
	case introspect.TypeInteger, introspect.TypeReal:
		return bindNumber(col, v)
	case introspect.TypeBoolean:
		if s, ok := v.(string); ok {
			if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
				return b, nil
			}
		}
	}
	return bindScalar(v), nil
}

func bindGeometry(v any, srid int) (any, error) {
	switch g := v.(type) {
	case []byte:
		if _, _, err := spatial.ToShape(g); err == nil {
			return g, nil
		}
	case string:
		if strings.TrimSpace(g) == "" {
			return nil, nil
		}
	}
	return spatial.ToStoreForm(v, srid)
}

func bindScalar(v any) any {
	switch t := v.(type) {
	case time.Time:
		return t.Format(TimeLayout)
	case *time.Time:
		if t == nil {
			return nil
		}
		return t.Format(TimeLayout)
	}
	return v
}

func bindNumber(col introspect.Column, v any) (any, error) {
	integer := col.Type == introspect.TypeInteger

	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil, nil
		}
		if integer {
			if n, err := strconv.ParseInt(s, 10, 64); err == nil {
				return n, nil
			}
		}
		f, err := parseNumber(s)
		if err != nil {
			return nil, errInvalidNumber{column: col.Name, value: v}
		}
		return numberFromFloat(f, integer), nil
	case bool:
		if t {
			return int64(1), nil
		}
		return int64(0), nil
	case time.Time:
		return nil, errInvalidNumber{column: col.Name, value: v}
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if math.IsNaN(f) {
			return nil, nil
		}
		return numberFromFloat(f, integer), nil
	}
	return nil, errInvalidNumber{column: col.Name, value: v}
}

// numberFromFloat keeps whole numbers bound for integer columns as integers.
func numberFromFloat(f float64, integer bool) any {
	if integer && f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return int64(f)
	}
	return f
}
