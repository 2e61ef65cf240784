package refdata

import (
	"math"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/relay-cli/internal/model"
)

// normalizeCities trims and NFC-normalizes names, drops entries without a
// name or with non-finite coordinates, and keeps the first of any exact
// coordinate duplicates.
func normalizeCities(in []model.CityCandidate) []model.CityCandidate {
	seen := make(map[[2]float64]bool, len(in))
	out := make([]model.CityCandidate, 0, len(in))
	for _, c := range in {
		c.Name = norm.NFC.String(strings.TrimSpace(c.Name))
		if c.Name == "" || !c.Coord().IsFinite() || math.Abs(c.Latitude) > 90 || math.Abs(c.Longitude) > 180 {
			continue
		}
		key := [2]float64{c.Latitude, c.Longitude}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	return out
}
