// Package distance computes demand-weighted great-circle distances between
// demand points and relay centroids.
package distance

import (
	"math"

	"github.com/sells-group/relay-cli/internal/model"
)

// EarthRadiusKM is the mean Earth radius used by Haversine.
const EarthRadiusKM = 6371.0

const degToRad = math.Pi / 180

// Haversine returns the great-circle distance in kilometers between a and b.
func Haversine(a, b model.Coord) float64 {
	return haversineKM(a.Latitude, a.Longitude, b.Latitude, b.Longitude)
}

func haversineKM(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * degToRad
	dLon := (lon2 - lon1) * degToRad
	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	a := sinLat*sinLat +
		math.Cos(lat1*degToRad)*math.Cos(lat2*degToRad)*sinLon*sinLon
	// Rounding can push a just past 1 for antipodal points.
	a = math.Min(1, math.Max(0, a))
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKM * c
}
