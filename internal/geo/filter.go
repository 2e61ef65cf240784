package geo

import "github.com/sells-group/relay-cli/internal/model"

// Filter keeps the demand points inside b, preserving their order.
func Filter(points []model.DemandPoint, b *Boundary) []model.DemandPoint {
	inside, _ := Partition(points, b)
	return inside
}

// Partition is Filter that also reports how many points were dropped.
func Partition(points []model.DemandPoint, b *Boundary) (inside []model.DemandPoint, outside int) {
	inside = make([]model.DemandPoint, 0, len(points))
	for _, p := range points {
		if b.Contains(p.Latitude, p.Longitude) {
			inside = append(inside, p)
		} else {
			outside++
		}
	}
	return inside, outside
}
