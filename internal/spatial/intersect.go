package spatial

import (
	"github.com/go-spatial/geom"
)

type segment [2][2]float64

// parts is a shape split into the pieces the intersection test works on.
type parts struct {
	points   [][2]float64
	segments []segment
	polygons [][][][2]float64
}

func decompose(g geom.Geometry) parts {
	var p parts
	addLine := func(line [][2]float64) {
		if len(line) > 0 {
			p.points = append(p.points, line[0])
		}
		for i := 0; i+1 < len(line); i++ {
			p.segments = append(p.segments, segment{line[i], line[i+1]})
		}
	}
	addPolygon := func(poly [][][2]float64) {
		for _, ring := range poly {
			addLine(ring)
			if n := len(ring); n > 1 && ring[0] != ring[n-1] {
				p.segments = append(p.segments, segment{ring[n-1], ring[0]})
			}
		}
		p.polygons = append(p.polygons, poly)
	}

	switch v := g.(type) {
	case geom.Point:
		p.points = append(p.points, v)
	case geom.MultiPoint:
		p.points = append(p.points, v...)
	case geom.LineString:
		addLine(v)
	case geom.MultiLineString:
		for _, l := range v {
			addLine(l)
		}
	case geom.Polygon:
		addPolygon(v)
	case geom.MultiPolygon:
		for _, poly := range v {
			addPolygon(poly)
		}
	}
	return p
}

// Intersects reports whether two shapes share at least one point. Both are
// compared in their own coordinates.
func Intersects(a, b geom.Geometry) (bool, error) {
	a, err := Flatten(a)
	if err != nil {
		return false, err
	}
	b, err = Flatten(b)
	if err != nil {
		return false, err
	}

	ea, err := Envelope(a)
	if err != nil {
		return false, err
	}
	eb, err := Envelope(b)
	if err != nil {
		return false, err
	}
	if !extentsOverlap(ea, eb) {
		return false, nil
	}

	pa, pb := decompose(a), decompose(b)
	return partsIntersect(pa, pb) || partsIntersect(pb, pa), nil
}

// MbrIntersects reports whether the bounding boxes of two shapes overlap.
func MbrIntersects(a, b geom.Geometry) (bool, error) {
	ea, err := Envelope(a)
	if err != nil {
		return false, err
	}
	eb, err := Envelope(b)
	if err != nil {
		return false, err
	}
	return extentsOverlap(ea, eb), nil
}

func extentsOverlap(a, b geom.Extent) bool {
	return a[0] <= b[2] && b[0] <= a[2] && a[1] <= b[3] && b[1] <= a[3]
}

func partsIntersect(a, b parts) bool {
	for _, sa := range a.segments {
		for _, sb := range b.segments {
			if segmentsIntersect(sa, sb) {
				return true
			}
		}
	}

	for _, p := range a.points {
		for _, q := range b.points {
			if p == q {
				return true
			}
		}
		for _, s := range b.segments {
			if onSegment(s[0], s[1], p) && orientation(s[0], s[1], p) == 0 {
				return true
			}
		}
		for _, poly := range b.polygons {
			if pointInPolygon(p, poly) {
				return true
			}
		}
	}
	return false
}

func orientation(p, q, r [2]float64) int {
	v := (q[1]-p[1])*(r[0]-q[0]) - (q[0]-p[0])*(r[1]-q[1])
	switch {
	case v > 0:
		return 1
	case v < 0:
		return 2
	}
	return 0
}

// onSegment reports whether r lies inside the bounding box of segment p-q.
func onSegment(p, q, r [2]float64) bool {
	return r[0] <= max(p[0], q[0]) && r[0] >= min(p[0], q[0]) &&
		r[1] <= max(p[1], q[1]) && r[1] >= min(p[1], q[1])
}

func segmentsIntersect(a, b segment) bool {
	o1 := orientation(a[0], a[1], b[0])
	o2 := orientation(a[0], a[1], b[1])
	o3 := orientation(b[0], b[1], a[0])
	o4 := orientation(b[0], b[1], a[1])

	if o1 != o2 && o3 != o4 {
		return true
	}
	return (o1 == 0 && onSegment(a[0], a[1], b[0])) ||
		(o2 == 0 && onSegment(a[0], a[1], b[1])) ||
		(o3 == 0 && onSegment(b[0], b[1], a[0])) ||
		(o4 == 0 && onSegment(b[0], b[1], a[1]))
}

// pointInPolygon uses ray casting on the outer ring and excludes holes.
func pointInPolygon(p [2]float64, poly [][][2]float64) bool {
	if len(poly) == 0 || !pointInRing(p, poly[0]) {
		return false
	}
	for _, hole := range poly[1:] {
		if pointInRing(p, hole) {
			return false
		}
	}
	return true
}

func pointInRing(p [2]float64, ring [][2]float64) bool {
	inside := false
	n := len(ring)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := ring[i], ring[j]
		if (a[1] > p[1]) != (b[1] > p[1]) &&
			p[0] < (b[0]-a[0])*(p[1]-a[1])/(b[1]-a[1])+a[0] {
			inside = !inside
		}
	}
	return inside
}
