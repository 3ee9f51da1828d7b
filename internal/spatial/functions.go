package spatial

import (
	"fmt"
	"strconv"

	"github.com/go-spatial/geom"
)

// Function is a scalar SQL function implemented in Go. Args and the result
// use the database/sql/driver value types (nil, int64, float64, string,
// []byte).
type Function struct {
	Name string
	// MinArgs and MaxArgs bound the accepted argument count.
	MinArgs int
	MaxArgs int
	Fn      func(args []any) (any, error)
}

// Call checks the argument count and invokes the function.
func (f Function) Call(args []any) (any, error) {
	if len(args) < f.MinArgs || len(args) > f.MaxArgs {
		return nil, fmt.Errorf("%s: expected %d..%d arguments, got %d", f.Name, f.MinArgs, f.MaxArgs, len(args))
	}
	return f.Fn(args)
}

// Functions returns the spatial SQL functions the store registers on every
// connection. Each is deterministic and returns NULL when a geometry
// argument is NULL.
func Functions() []Function {
	var (
		fromText      = Function{MinArgs: 1, MaxArgs: 2, Fn: geomFromText}
		fromEWKT      = Function{MinArgs: 1, MaxArgs: 1, Fn: geomFromText}
		toText        = Function{MinArgs: 1, MaxArgs: 1, Fn: asText}
		toEWKT        = Function{MinArgs: 1, MaxArgs: 1, Fn: asEWKT}
		srid          = Function{MinArgs: 1, MaxArgs: 1, Fn: geometrySRID}
		typeName      = Function{MinArgs: 1, MaxArgs: 1, Fn: geometryType}
		intersects    = Function{MinArgs: 2, MaxArgs: 2, Fn: predicate(Intersects)}
		mbrIntersects = Function{MinArgs: 2, MaxArgs: 2, Fn: predicate(MbrIntersects)}
	)

	named := func(f Function, names ...string) []Function {
		out := make([]Function, 0, len(names))
		for _, n := range names {
			f.Name = n
			out = append(out, f)
		}
		return out
	}

	var fns []Function
	fns = append(fns, named(fromText, "GeomFromText", "ST_GeomFromText")...)
	fns = append(fns, named(fromEWKT, "GeomFromEWKT", "ST_GeomFromEWKT")...)
	fns = append(fns, named(toText, "AsText", "ST_AsText")...)
	fns = append(fns, named(toEWKT, "AsEWKT", "ST_AsEWKT")...)
	fns = append(fns, named(srid, "SRID", "ST_SRID")...)
	fns = append(fns, named(typeName, "GeometryType", "ST_GeometryType")...)
	fns = append(fns, named(intersects, "Intersects", "ST_Intersects")...)
	fns = append(fns, named(mbrIntersects, "MbrIntersects")...)
	return fns
}

func textArg(v any) (string, bool, error) {
	switch t := v.(type) {
	case nil:
		return "", false, nil
	case string:
		return t, true, nil
	case []byte:
		return string(t), true, nil
	}
	return "", false, fmt.Errorf("expected text, got %T", v)
}

func intArg(v any) (int, error) {
	switch t := v.(type) {
	case int64:
		return int(t), nil
	case float64:
		return int(t), nil
	case string:
		return strconv.Atoi(t)
	case []byte:
		return strconv.Atoi(string(t))
	}
	return 0, fmt.Errorf("expected integer, got %T", v)
}

func blobArg(v any) ([]byte, bool, error) {
	switch t := v.(type) {
	case nil:
		return nil, false, nil
	case []byte:
		return t, true, nil
	}
	return nil, false, fmt.Errorf("%w: expected geometry blob, got %T", ErrInvalidGeometry, v)
}

func geomFromText(args []any) (any, error) {
	text, ok, err := textArg(args[0])
	if err != nil || !ok {
		return nil, err
	}

	srid := 0
	if len(args) > 1 && args[1] != nil {
		if srid, err = intArg(args[1]); err != nil {
			return nil, err
		}
	}
	return ToStoreForm(text, srid)
}

func asText(args []any) (any, error) {
	native, ok, err := blobArg(args[0])
	if err != nil || !ok {
		return nil, err
	}
	return ToWKT(native)
}

func asEWKT(args []any) (any, error) {
	native, ok, err := blobArg(args[0])
	if err != nil || !ok {
		return nil, err
	}
	return ToEWKT(native)
}

func geometrySRID(args []any) (any, error) {
	native, ok, err := blobArg(args[0])
	if err != nil || !ok {
		return nil, err
	}
	srid, err := SRID(native)
	if err != nil {
		return nil, err
	}
	return int64(srid), nil
}

func geometryType(args []any) (any, error) {
	native, ok, err := blobArg(args[0])
	if err != nil || !ok {
		return nil, err
	}
	g, _, err := ToShape(native)
	if err != nil {
		return nil, err
	}
	return TypeName(g), nil
}

func predicate(test func(a, b geom.Geometry) (bool, error)) func(args []any) (any, error) {
	return func(args []any) (any, error) {
		shapes := make([]geom.Geometry, 2)
		for i := range shapes {
			native, ok, err := blobArg(args[i])
			if err != nil || !ok {
				return nil, err
			}
			if shapes[i], _, err = ToShape(native); err != nil {
				return nil, err
			}
		}

		hit, err := test(shapes[0], shapes[1])
		if err != nil {
			return nil, err
		}
		if hit {
			return int64(1), nil
		}
		return int64(0), nil
	}
}
