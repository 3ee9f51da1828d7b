package spatial

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/go-spatial/geom"
)

// WKB geometry type codes
const (
	wkbPoint           uint32 = 1
	wkbLineString      uint32 = 2
	wkbPolygon         uint32 = 3
	wkbMultiPoint      uint32 = 4
	wkbMultiLineString uint32 = 5
	wkbMultiPolygon    uint32 = 6

	ewkbZ    uint32 = 0x80000000
	ewkbM    uint32 = 0x40000000
	ewkbSRID uint32 = 0x20000000
)

func encodeWKB(w *bytes.Buffer, g geom.Geometry) error {
	le := binary.LittleEndian
	header := func(t uint32) {
		w.WriteByte(1)
		_ = binary.Write(w, le, t)
	}
	coords := func(pts [][2]float64) {
		_ = binary.Write(w, le, uint32(len(pts)))
		for _, p := range pts {
			_ = binary.Write(w, le, p[0])
			_ = binary.Write(w, le, p[1])
		}
	}
	rings := func(rs [][][2]float64) {
		_ = binary.Write(w, le, uint32(len(rs)))
		for _, r := range rs {
			coords(r)
		}
	}

	switch v := g.(type) {
	case geom.Point:
		header(wkbPoint)
		_ = binary.Write(w, le, v[0])
		_ = binary.Write(w, le, v[1])
	case geom.LineString:
		header(wkbLineString)
		coords(v)
	case geom.Polygon:
		header(wkbPolygon)
		rings(v)
	case geom.MultiPoint:
		header(wkbMultiPoint)
		_ = binary.Write(w, le, uint32(len(v)))
		for _, p := range v {
			if err := encodeWKB(w, geom.Point(p)); err != nil {
				return err
			}
		}
	case geom.MultiLineString:
		header(wkbMultiLineString)
		_ = binary.Write(w, le, uint32(len(v)))
		for _, l := range v {
			if err := encodeWKB(w, geom.LineString(l)); err != nil {
				return err
			}
		}
	case geom.MultiPolygon:
		header(wkbMultiPolygon)
		_ = binary.Write(w, le, uint32(len(v)))
		for _, p := range v {
			if err := encodeWKB(w, geom.Polygon(p)); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedGeometry, g)
	}
	return nil
}

type wkbReader struct {
	r   io.Reader
	bom binary.ByteOrder
	dim int
}

func (wr *wkbReader) uint32() (uint32, error) {
	var v uint32
	err := binary.Read(wr.r, wr.bom, &v)
	return v, err
}

func (wr *wkbReader) point() ([2]float64, error) {
	var p [2]float64
	for i := 0; i < wr.dim; i++ {
		var f float64
		if err := binary.Read(wr.r, wr.bom, &f); err != nil {
			return p, err
		}
		if i < 2 {
			p[i] = f
		}
	}
	return p, nil
}

func (wr *wkbReader) points() ([][2]float64, error) {
	n, err := wr.uint32()
	if err != nil {
		return nil, err
	}
	if n > math.MaxInt32 {
		return nil, fmt.Errorf("%w: point count %d", ErrInvalidGeometry, n)
	}
	pts := make([][2]float64, 0, n)
	for i := uint32(0); i < n; i++ {
		p, err := wr.point()
		if err != nil {
			return nil, err
		}
		pts = append(pts, p)
	}
	return pts, nil
}

func (wr *wkbReader) rings() ([][][2]float64, error) {
	n, err := wr.uint32()
	if err != nil {
		return nil, err
	}
	rs := make([][][2]float64, 0, n)
	for i := uint32(0); i < n; i++ {
		r, err := wr.points()
		if err != nil {
			return nil, err
		}
		rs = append(rs, r)
	}
	return rs, nil
}

// decodeWKB reads one WKB (ISO or EWKB) geometry and drops any Z or M
// ordinates.
func decodeWKB(r io.Reader) (geom.Geometry, error) {
	var order [1]byte
	if _, err := io.ReadFull(r, order[:]); err != nil {
		return nil, err
	}

	wr := &wkbReader{r: r, dim: 2}
	switch order[0] {
	case 0:
		wr.bom = binary.BigEndian
	case 1:
		wr.bom = binary.LittleEndian
	default:
		return nil, fmt.Errorf("%w: bad byte order %d", ErrInvalidGeometry, order[0])
	}

	typ, err := wr.uint32()
	if err != nil {
		return nil, err
	}

	if typ&ewkbZ != 0 {
		wr.dim++
	}
	if typ&ewkbM != 0 {
		wr.dim++
	}
	if typ&ewkbSRID != 0 {
		if _, err := wr.uint32(); err != nil {
			return nil, err
		}
	}
	typ &^= ewkbZ | ewkbM | ewkbSRID

	switch typ / 1000 {
	case 1, 2:
		wr.dim++
	case 3:
		wr.dim += 2
	}
	typ %= 1000

	switch typ {
	case wkbPoint:
		p, err := wr.point()
		return geom.Point(p), err
	case wkbLineString:
		pts, err := wr.points()
		return geom.LineString(pts), err
	case wkbPolygon:
		rs, err := wr.rings()
		return geom.Polygon(rs), err
	case wkbMultiPoint, wkbMultiLineString, wkbMultiPolygon:
		n, err := wr.uint32()
		if err != nil {
			return nil, err
		}
		var (
			mp  geom.MultiPoint
			mls geom.MultiLineString
			mpl geom.MultiPolygon
		)
		for i := uint32(0); i < n; i++ {
			part, err := decodeWKB(r)
			if err != nil {
				return nil, err
			}
			switch p := part.(type) {
			case geom.Point:
				mp = append(mp, [2]float64(p))
			case geom.LineString:
				mls = append(mls, [][2]float64(p))
			case geom.Polygon:
				mpl = append(mpl, [][][2]float64(p))
			}
		}
		switch typ {
		case wkbMultiPoint:
			return mp, nil
		case wkbMultiLineString:
			return mls, nil
		default:
			return mpl, nil
		}
	default:
		return nil, fmt.Errorf("%w: wkb type %d", ErrUnsupportedGeometry, typ)
	}
}
