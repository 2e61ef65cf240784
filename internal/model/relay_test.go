package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCentroidFromCity(t *testing.T) {
	t.Parallel()

	c := CentroidFromCity(CityCandidate{Latitude: 45.764, Longitude: 4.8357, Name: "Lyon"})
	assert.Equal(t, Centroid{Latitude: 45.764, Longitude: 4.8357, Name: "Lyon"}, c)

	rp := RelayPointFromCentroid(c)
	assert.Equal(t, "Lyon", rp.Name)
	assert.Equal(t, c.Latitude, rp.Latitude)
	assert.Equal(t, c.Longitude, rp.Longitude)
}

func TestCoords_PreservesOrder(t *testing.T) {
	t.Parallel()

	cs := []Centroid{
		{Latitude: 1, Longitude: 2, Name: "a"},
		{Latitude: 3, Longitude: 4, Name: "b"},
	}
	assert.Equal(t, []Coord{{1, 2}, {3, 4}}, Coords(cs))
}

func TestCoord_IsFinite(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		coord Coord
		want  bool
	}{
		{"finite", Coord{48.85, 2.35}, true},
		{"nan lat", Coord{math.NaN(), 2.35}, false},
		{"inf lon", Coord{48.85, math.Inf(1)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.coord.IsFinite())
		})
	}
}
