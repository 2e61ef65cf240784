package geo

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// LoadGeoJSON reads a boundary from a GeoJSON file holding a geometry, a
// Feature, or a FeatureCollection. Every Polygon and MultiPolygon found is
// merged; other geometry types are ignored.
func LoadGeoJSON(path string) (*Boundary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "geo: read geojson")
	}
	return ParseGeoJSON(data)
}

// ParseGeoJSON is LoadGeoJSON over an in-memory document.
func ParseGeoJSON(data []byte) (*Boundary, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, eris.Wrap(err, "geo: decode geojson")
	}

	var geoms []geom.T
	switch head.Type {
	case "FeatureCollection":
		var fc geojson.FeatureCollection
		if err := json.Unmarshal(data, &fc); err != nil {
			return nil, eris.Wrap(err, "geo: decode feature collection")
		}
		for _, f := range fc.Features {
			geoms = append(geoms, f.Geometry)
		}
	case "Feature":
		var f geojson.Feature
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, eris.Wrap(err, "geo: decode feature")
		}
		geoms = append(geoms, f.Geometry)
	default:
		var g geom.T
		if err := geojson.Unmarshal(data, &g); err != nil {
			return nil, eris.Wrap(err, "geo: decode geometry")
		}
		geoms = append(geoms, g)
	}

	mp := geom.NewMultiPolygon(geom.XY).SetSRID(SRID)
	for _, g := range geoms {
		if err := pushPolygons(mp, g); err != nil {
			return nil, err
		}
	}
	return NewBoundary(mp)
}

func pushPolygons(mp *geom.MultiPolygon, g geom.T) error {
	switch v := g.(type) {
	case *geom.Polygon:
		return pushPolygon(mp, v)
	case *geom.MultiPolygon:
		for i := range v.NumPolygons() {
			if err := pushPolygon(mp, v.Polygon(i)); err != nil {
				return err
			}
		}
	}
	return nil
}

func pushPolygon(mp *geom.MultiPolygon, p *geom.Polygon) error {
	xyp, err := toXY(p)
	if err != nil {
		return eris.Wrap(err, "geo: flatten polygon")
	}
	if err := mp.Push(xyp); err != nil {
		return eris.Wrap(err, "geo: add polygon")
	}
	return nil
}

// toXY drops any Z or M ordinate so every polygon shares the XY layout.
func toXY(p *geom.Polygon) (*geom.Polygon, error) {
	if p.Layout() == geom.XY {
		return p, nil
	}
	out := geom.NewPolygon(geom.XY)
	for r := range p.NumLinearRings() {
		lr := p.LinearRing(r)
		coords := make([]geom.Coord, 0, lr.NumCoords())
		for i := range lr.NumCoords() {
			c := lr.Coord(i)
			coords = append(coords, geom.Coord{c[0], c[1]})
		}
		if err := out.Push(geom.NewLinearRingFlat(geom.XY, flatCoords(coords))); err != nil {
			return nil, err
		}
	}
	return out, nil
}
