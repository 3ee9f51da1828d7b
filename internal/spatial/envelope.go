package spatial

import (
	"fmt"
	"math"

	"github.com/go-spatial/geom"
	"github.com/go-spatial/proj"
)

// Envelope returns the bounding box of a shape in its own coordinates.
func Envelope(g geom.Geometry) (geom.Extent, error) {
	g, err := Flatten(g)
	if err != nil {
		return geom.Extent{}, err
	}

	ext := geom.Extent{math.Inf(1), math.Inf(1), math.Inf(-1), math.Inf(-1)}
	n := 0
	coordinates(g, func(p [2]float64) {
		n++
		ext[0] = math.Min(ext[0], p[0])
		ext[1] = math.Min(ext[1], p[1])
		ext[2] = math.Max(ext[2], p[0])
		ext[3] = math.Max(ext[3], p[1])
	})
	if n == 0 {
		return geom.Extent{}, fmt.Errorf("%w: empty shape", ErrInvalidGeometry)
	}
	return ext, nil
}

// GeographicEnvelope returns the bounding box of a shape in EPSG:4326. Every
// vertex is reprojected before the box is computed. SRID 0 and 4326 are taken
// as already geographic.
func GeographicEnvelope(g geom.Geometry, srid int) (geom.Extent, error) {
	if srid == 0 || srid == DefaultSRID {
		return Envelope(g)
	}

	g, err := Flatten(g)
	if err != nil {
		return geom.Extent{}, err
	}

	var flat []float64
	coordinates(g, func(p [2]float64) {
		flat = append(flat, p[0], p[1])
	})
	if len(flat) == 0 {
		return geom.Extent{}, fmt.Errorf("%w: empty shape", ErrInvalidGeometry)
	}

	lonlat, err := proj.Inverse(proj.EPSGCode(srid), flat)
	if err != nil {
		return geom.Extent{}, fmt.Errorf("%w: EPSG:%d: %v", ErrUnsupportedProjection, srid, err)
	}

	pts := make(geom.MultiPoint, 0, len(lonlat)/2)
	for i := 0; i+1 < len(lonlat); i += 2 {
		pts = append(pts, [2]float64{lonlat[i], lonlat[i+1]})
	}
	return Envelope(pts)
}

// ExtentPolygon returns the closed rectangle covering ext.
func ExtentPolygon(ext geom.Extent) geom.Polygon {
	return geom.Polygon{{
		{ext[0], ext[1]},
		{ext[2], ext[1]},
		{ext[2], ext[3]},
		{ext[0], ext[3]},
		{ext[0], ext[1]},
	}}
}

// EnvelopeWKT returns the WKT of the geographic bounding rectangle of a shape.
func EnvelopeWKT(g geom.Geometry, srid int) (string, error) {
	ext, err := GeographicEnvelope(g, srid)
	if err != nil {
		return "", err
	}
	return FormatWKT(ExtentPolygon(ext))
}
