package geo

import (
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/wkb"
)

// EncodeWKB serializes the boundary as little-endian WKB.
func EncodeWKB(b *Boundary) ([]byte, error) {
	data, err := wkb.Marshal(b.mp, wkb.NDR)
	if err != nil {
		return nil, eris.Wrap(err, "geo: encode WKB")
	}
	return data, nil
}

// DecodeWKB rebuilds a boundary from EncodeWKB output.
func DecodeWKB(data []byte) (*Boundary, error) {
	g, err := wkb.Unmarshal(data)
	if err != nil {
		return nil, eris.Wrap(err, "geo: decode WKB")
	}
	return NewBoundary(g)
}
