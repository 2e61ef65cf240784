// Package geo holds the region boundary used to keep demand inside the area
// of interest, plus loaders for the boundary file formats the CLI accepts.
package geo

import (
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
	"github.com/twpayne/go-geom/xy/location"
)

// SRID is the spatial reference of every boundary (WGS84 lon/lat).
const SRID = 4326

// ErrEmptyBoundary is returned when a geometry carries no polygon.
var ErrEmptyBoundary = eris.New("geo: boundary has no polygons")

// Boundary is a multi-polygon region in lon/lat order. Points on an edge
// are inside.
type Boundary struct {
	mp     *geom.MultiPolygon
	bounds *geom.Bounds
	parts  []*geom.Bounds
}

// NewBoundary wraps a Polygon or MultiPolygon. Other geometry types are
// rejected.
func NewBoundary(g geom.T) (*Boundary, error) {
	var mp *geom.MultiPolygon
	switch v := g.(type) {
	case *geom.MultiPolygon:
		mp = v
	case *geom.Polygon:
		mp = geom.NewMultiPolygon(geom.XY)
		if err := mp.Push(v); err != nil {
			return nil, eris.Wrap(err, "geo: wrap polygon")
		}
	case nil:
		return nil, ErrEmptyBoundary
	default:
		return nil, eris.Errorf("geo: unsupported boundary geometry %T", g)
	}
	if mp.NumPolygons() == 0 {
		return nil, ErrEmptyBoundary
	}
	if mp.SRID() == 0 {
		mp.SetSRID(SRID)
	}

	b := &Boundary{mp: mp, bounds: mp.Bounds()}
	for i := range mp.NumPolygons() {
		b.parts = append(b.parts, mp.Polygon(i).Bounds())
	}
	return b, nil
}

// MultiPolygon returns the underlying geometry.
func (b *Boundary) MultiPolygon() *geom.MultiPolygon { return b.mp }

// NumPolygons returns the number of polygons in the boundary.
func (b *Boundary) NumPolygons() int { return b.mp.NumPolygons() }

// Bounds returns the bounding box of the whole boundary.
func (b *Boundary) Bounds() *geom.Bounds { return b.bounds }

// Contains reports whether (lat, lon) lies inside or on the edge of any
// polygon. Holes exclude their interior but not their edge.
func (b *Boundary) Contains(lat, lon float64) bool {
	pt := geom.Coord{lon, lat}
	if !b.bounds.OverlapsPoint(geom.XY, pt) {
		return false
	}
	for i, pb := range b.parts {
		if !pb.OverlapsPoint(geom.XY, pt) {
			continue
		}
		if polygonContains(b.mp.Polygon(i), pt) {
			return true
		}
	}
	return false
}

// polygonContains locates pt against the shell, then each hole. A point on
// any ring counts as inside.
func polygonContains(p *geom.Polygon, pt geom.Coord) bool {
	if p.NumLinearRings() == 0 {
		return false
	}
	switch xy.LocatePointInRing(p.Layout(), pt, p.LinearRing(0).FlatCoords()) {
	case location.Exterior:
		return false
	case location.Boundary:
		return true
	}
	for r := 1; r < p.NumLinearRings(); r++ {
		switch xy.LocatePointInRing(p.Layout(), pt, p.LinearRing(r).FlatCoords()) {
		case location.Boundary:
			return true
		case location.Interior:
			return false
		}
	}
	return true
}
