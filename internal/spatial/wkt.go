package spatial

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-spatial/geom"
	"github.com/go-spatial/geom/encoding/wkt"
)

var (
	dimensionTag = regexp.MustCompile(`(?i)\b(POINT|LINESTRING|POLYGON|MULTIPOINT|MULTILINESTRING|MULTIPOLYGON)\s*(ZM|Z|M)\b`)

	number         = `[-+]?(?:\d+\.?\d*|\.\d+)(?:[eE][-+]?\d+)?`
	extraOrdinates = regexp.MustCompile(`(` + number + `)\s+(` + number + `)(?:\s+` + number + `)+`)
)

// SplitEWKT separates an optional "SRID=n;" prefix from the WKT body.
func SplitEWKT(text string) (body string, srid int, ok bool, err error) {
	text = strings.TrimSpace(text)
	if len(text) < 5 || !strings.EqualFold(text[:5], "SRID=") {
		return text, 0, false, nil
	}

	sep := strings.IndexByte(text, ';')
	if sep < 0 {
		return "", 0, false, fmt.Errorf("%w: missing ';' after SRID in %q", ErrInvalidGeometry, text)
	}

	srid, err = strconv.Atoi(strings.TrimSpace(text[5:sep]))
	if err != nil {
		return "", 0, false, fmt.Errorf("%w: bad SRID in %q", ErrInvalidGeometry, text)
	}
	return strings.TrimSpace(text[sep+1:]), srid, true, nil
}

// flattenWKT rewrites a WKT body with Z, M or ZM ordinates into plain 2D WKT.
func flattenWKT(body string) (string, bool) {
	flat := dimensionTag.ReplaceAllString(body, "$1")
	flat = extraOrdinates.ReplaceAllString(flat, "$1 $2")
	return flat, flat != body
}

// ParseWKT decodes WKT or EWKT text into a 2D shape. The returned srid is
// only meaningful when hasSRID is true.
func ParseWKT(text string) (g geom.Geometry, srid int, hasSRID bool, err error) {
	body, srid, hasSRID, err := SplitEWKT(text)
	if err != nil {
		return nil, 0, false, err
	}
	if body == "" {
		return nil, 0, false, fmt.Errorf("%w: empty WKT", ErrInvalidGeometry)
	}

	flat, _ := flattenWKT(body)
	decoded, err := wkt.DecodeString(flat)
	if err != nil {
		return nil, 0, false, fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
	}

	g, err = Flatten(decoded)
	if err != nil {
		return nil, 0, false, err
	}
	return g, srid, hasSRID, nil
}

// FormatWKT renders a shape as WKT in the compact form the store's text
// functions return, e.g. "POLYGON((0 0, 1 0, 1 1, 0 0))".
func FormatWKT(g geom.Geometry) (string, error) {
	g, err := Flatten(g)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(TypeName(g))
	switch v := g.(type) {
	case geom.Point:
		b.WriteByte('(')
		writeCoord(&b, v)
		b.WriteByte(')')
	case geom.MultiPoint:
		b.WriteByte('(')
		for i, p := range v {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteByte('(')
			writeCoord(&b, p)
			b.WriteByte(')')
		}
		b.WriteByte(')')
	case geom.LineString:
		writeSequence(&b, v)
	case geom.MultiLineString:
		writeRings(&b, v)
	case geom.Polygon:
		writeRings(&b, v)
	case geom.MultiPolygon:
		b.WriteByte('(')
		for i, p := range v {
			if i > 0 {
				b.WriteString(", ")
			}
			writeRings(&b, p)
		}
		b.WriteByte(')')
	}
	return b.String(), nil
}

func writeCoord(b *strings.Builder, p [2]float64) {
	b.WriteString(strconv.FormatFloat(p[0], 'f', -1, 64))
	b.WriteByte(' ')
	b.WriteString(strconv.FormatFloat(p[1], 'f', -1, 64))
}

func writeSequence(b *strings.Builder, pts [][2]float64) {
	b.WriteByte('(')
	for i, p := range pts {
		if i > 0 {
			b.WriteString(", ")
		}
		writeCoord(b, p)
	}
	b.WriteByte(')')
}

func writeRings(b *strings.Builder, rings [][][2]float64) {
	b.WriteByte('(')
	for i, r := range rings {
		if i > 0 {
			b.WriteString(", ")
		}
		writeSequence(b, r)
	}
	b.WriteByte(')')
}

// FormatEWKT renders a shape as "SRID=<srid>;<WKT>".
func FormatEWKT(g geom.Geometry, srid int) (string, error) {
	text, err := FormatWKT(g)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("SRID=%d;%s", srid, text), nil
}
