package model

import "math"

// Coord is a WGS84 latitude/longitude pair in degrees.
type Coord struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// DemandPoint is one client location weighted by its purchase intensity.
// Weight is not a probability and is never normalized.
type DemandPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Weight    float64 `json:"weight"`
}

// Coord returns the point's position.
func (d DemandPoint) Coord() Coord {
	return Coord{Latitude: d.Latitude, Longitude: d.Longitude}
}

// CityCandidate is a named settlement a relay may be placed on.
type CityCandidate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Name      string  `json:"name"`
}

// Coord returns the city's position.
func (c CityCandidate) Coord() Coord {
	return Coord{Latitude: c.Latitude, Longitude: c.Longitude}
}

// Centroid is one relay slot of a clustering run. After every iteration its
// coordinates equal those of the city named by Name.
type Centroid struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Name      string  `json:"name"`
}

// Coord returns the centroid's position.
func (c Centroid) Coord() Coord {
	return Coord{Latitude: c.Latitude, Longitude: c.Longitude}
}

// CentroidFromCity builds a centroid sitting on the given city.
func CentroidFromCity(c CityCandidate) Centroid {
	return Centroid{Latitude: c.Latitude, Longitude: c.Longitude, Name: c.Name}
}

// RelayPoint is the record handed to the persistence layer.
type RelayPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Name      string  `json:"name"`
}

// RelayPointFromCentroid converts a final centroid into a relay record.
func RelayPointFromCentroid(c Centroid) RelayPoint {
	return RelayPoint{Latitude: c.Latitude, Longitude: c.Longitude, Name: c.Name}
}

// Coords extracts the positions of a centroid set, preserving order.
func Coords(cs []Centroid) []Coord {
	out := make([]Coord, len(cs))
	for i, c := range cs {
		out[i] = c.Coord()
	}
	return out
}

// IsFinite reports whether both coordinates are real numbers.
func (c Coord) IsFinite() bool {
	return !math.IsNaN(c.Latitude) && !math.IsNaN(c.Longitude) &&
		!math.IsInf(c.Latitude, 0) && !math.IsInf(c.Longitude, 0)
}
