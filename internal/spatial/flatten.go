package spatial

import (
	"fmt"

	"github.com/go-spatial/geom"
)

// Flatten returns g as one of the 2D value shapes (Point, MultiPoint,
// LineString, MultiLineString, Polygon, MultiPolygon). Z ordinates are dropped
// and polygon rings are closed. A 3D multi-polygon is accepted as a
// []geom.PolygonZ or as raw [][][][3]float64 coordinates.
func Flatten(g geom.Geometry) (geom.Geometry, error) {
	switch v := g.(type) {
	case geom.Point:
		return v, nil
	case *geom.Point:
		if v == nil {
			break
		}
		return *v, nil
	case geom.PointZ:
		return geom.Point{v[0], v[1]}, nil
	case *geom.PointZ:
		if v == nil {
			break
		}
		return geom.Point{v[0], v[1]}, nil
	case geom.MultiPoint:
		return v, nil
	case *geom.MultiPoint:
		if v == nil {
			break
		}
		return *v, nil
	case geom.LineString:
		return v, nil
	case *geom.LineString:
		if v == nil {
			break
		}
		return *v, nil
	case geom.MultiLineString:
		return v, nil
	case *geom.MultiLineString:
		if v == nil {
			break
		}
		return *v, nil
	case geom.Polygon:
		return closePolygon(v), nil
	case *geom.Polygon:
		if v == nil {
			break
		}
		return closePolygon(*v), nil
	case geom.PolygonZ:
		return flattenPolygonZ(v), nil
	case *geom.PolygonZ:
		if v == nil {
			break
		}
		return flattenPolygonZ(*v), nil
	case geom.MultiPolygon:
		return closeMultiPolygon(v), nil
	case *geom.MultiPolygon:
		if v == nil {
			break
		}
		return closeMultiPolygon(*v), nil
	case []geom.PolygonZ:
		return flattenMultiPolygonZ(v), nil
	case [][][][3]float64:
		polys := make([]geom.PolygonZ, 0, len(v))
		for _, p := range v {
			polys = append(polys, geom.PolygonZ(p))
		}
		return flattenMultiPolygonZ(polys), nil
	}
	return nil, fmt.Errorf("%w: %T", ErrUnsupportedGeometry, g)
}

// closePolygon returns a copy of p whose rings all end on their first vertex.
func closePolygon(p geom.Polygon) geom.Polygon {
	out := make(geom.Polygon, 0, len(p))
	for _, ring := range p {
		r := make([][2]float64, len(ring), len(ring)+1)
		copy(r, ring)
		if n := len(r); n > 0 && r[0] != r[n-1] {
			r = append(r, r[0])
		}
		out = append(out, r)
	}
	return out
}

func closeMultiPolygon(mp geom.MultiPolygon) geom.MultiPolygon {
	out := make(geom.MultiPolygon, 0, len(mp))
	for _, p := range mp {
		out = append(out, [][][2]float64(closePolygon(p)))
	}
	return out
}

func flattenPolygonZ(p geom.PolygonZ) geom.Polygon {
	out := make(geom.Polygon, 0, len(p))
	for _, ring := range p {
		r := make([][2]float64, 0, len(ring))
		for _, c := range ring {
			r = append(r, [2]float64{c[0], c[1]})
		}
		out = append(out, r)
	}
	return closePolygon(out)
}

func flattenMultiPolygonZ(mp []geom.PolygonZ) geom.MultiPolygon {
	out := make(geom.MultiPolygon, 0, len(mp))
	for _, p := range mp {
		out = append(out, [][][2]float64(flattenPolygonZ(p)))
	}
	return out
}

// TypeName returns the upper case WKT name of a flattened shape.
func TypeName(g geom.Geometry) string {
	switch g.(type) {
	case geom.Point:
		return "POINT"
	case geom.MultiPoint:
		return "MULTIPOINT"
	case geom.LineString:
		return "LINESTRING"
	case geom.MultiLineString:
		return "MULTILINESTRING"
	case geom.Polygon:
		return "POLYGON"
	case geom.MultiPolygon:
		return "MULTIPOLYGON"
	}
	return "GEOMETRY"
}

// coordinates walks every vertex of a flattened shape.
func coordinates(g geom.Geometry, fn func(p [2]float64)) {
	switch v := g.(type) {
	case geom.Point:
		fn(v)
	case geom.MultiPoint:
		for _, p := range v {
			fn(p)
		}
	case geom.LineString:
		for _, p := range v {
			fn(p)
		}
	case geom.MultiLineString:
		for _, l := range v {
			for _, p := range l {
				fn(p)
			}
		}
	case geom.Polygon:
		for _, r := range v {
			for _, p := range r {
				fn(p)
			}
		}
	case geom.MultiPolygon:
		for _, poly := range v {
			for _, r := range poly {
				for _, p := range r {
					fn(p)
				}
			}
		}
	}
}
