package spatial

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/go-spatial/geom"

	"github.com/Aranil/dbflow/internal/logger"
)

// DefaultSRID is the spatial reference assumed when none is given.
const DefaultSRID = 4326

// sridSize is the length of the SRID prefix of the native encoding.
const sridSize = 4

// ToStoreForm encodes a WKT/EWKT string or a point, polygon or multi-polygon
// shape into the store's native geometry encoding. An EWKT SRID takes
// precedence over srid.
func ToStoreForm(value any, srid int) ([]byte, error) {
	var (
		g   geom.Geometry
		err error
	)

	switch v := value.(type) {
	case string:
		var (
			ewktSRID int
			hasSRID  bool
		)
		if _, dropped := flattenWKT(v); dropped {
			logger.Geometry().Debug("Dropping Z/M ordinates from WKT input")
		}
		g, ewktSRID, hasSRID, err = ParseWKT(v)
		if err != nil {
			return nil, err
		}
		if hasSRID {
			srid = ewktSRID
		}
	case geom.Point, *geom.Point, geom.PointZ, *geom.PointZ,
		geom.Polygon, *geom.Polygon, geom.PolygonZ, *geom.PolygonZ,
		geom.MultiPolygon, *geom.MultiPolygon, []geom.PolygonZ, [][][][3]float64:
		g, err = Flatten(v)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedGeometry, value)
	}

	return Encode(g, srid)
}

// Encode writes a flattened shape with its SRID in native form.
func Encode(g geom.Geometry, srid int) ([]byte, error) {
	g, err := Flatten(g)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.LittleEndian, int32(srid))
	if err := encodeWKB(&buf, g); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ToShape decodes a native geometry value into a 2D shape and its SRID.
func ToShape(native []byte) (geom.Geometry, int, error) {
	if len(native) < sridSize+5 {
		return nil, 0, fmt.Errorf("%w: native value too short (%d bytes)", ErrInvalidGeometry, len(native))
	}

	srid := int(int32(binary.LittleEndian.Uint32(native[:sridSize])))
	r := bytes.NewReader(native[sridSize:])
	g, err := decodeWKB(r)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
	}
	if r.Len() != 0 {
		return nil, 0, fmt.Errorf("%w: %d trailing bytes", ErrInvalidGeometry, r.Len())
	}
	return g, srid, nil
}

// ToEWKT decodes a native geometry value into "SRID=<n>;<WKT>".
func ToEWKT(native []byte) (string, error) {
	g, srid, err := ToShape(native)
	if err != nil {
		return "", err
	}
	return FormatEWKT(g, srid)
}

// ToWKT decodes a native geometry value into plain WKT.
func ToWKT(native []byte) (string, error) {
	g, _, err := ToShape(native)
	if err != nil {
		return "", err
	}
	return FormatWKT(g)
}

// SRID reads the SRID prefix of a native geometry value.
func SRID(native []byte) (int, error) {
	if len(native) < sridSize {
		return 0, fmt.Errorf("%w: native value too short (%d bytes)", ErrInvalidGeometry, len(native))
	}
	return int(int32(binary.LittleEndian.Uint32(native[:sridSize]))), nil
}
