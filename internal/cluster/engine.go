package cluster

import (
	"context"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/relay-cli/internal/distance"
	"github.com/sells-group/relay-cli/internal/model"
)

// DefaultMaxIterations bounds a run when Config.MaxIterations is unset.
const DefaultMaxIterations = 100

// Config holds the per-run parameters.
type Config struct {
	K             int   `json:"k"`
	Seed          int64 `json:"seed"`
	MaxIterations int   `json:"max_iterations"`
}

// Result is the terminal snapshot of a run.
type Result struct {
	// Centroids has exactly K entries, each sitting on a candidate city.
	Centroids []model.Centroid `json:"centroids"`
	// Assignment maps demand index to its nearest final centroid.
	Assignment []int `json:"assignment"`
	Iterations int   `json:"iterations"`
	State      State `json:"state"`
	// Costs[n] is the total weighted distance of iteration n's assignment,
	// measured against the centroids that iteration started from.
	Costs []float64 `json:"costs"`
	// FinalCost is the total weighted distance to the returned centroids.
	FinalCost float64 `json:"final_cost"`
}

// Engine runs the clustering loop. It is safe to reuse across runs; each run
// owns its own state.
type Engine struct {
	distances distance.Engine
	cfg       Config
}

// New creates an Engine.
func New(distances distance.Engine, cfg Config) *Engine {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultMaxIterations
	}
	return &Engine{distances: distances, cfg: cfg}
}

// run is the mutable state of one clustering run.
type run struct {
	state      State
	centroids  []model.Centroid
	assignment []int
}

// Run clusters demand onto cities. demand must already be filtered to the
// region of interest.
func (e *Engine) Run(ctx context.Context, demand []model.DemandPoint, cities []model.CityCandidate) (*Result, error) {
	if err := Validate(e.cfg.K, demand, cities); err != nil {
		return nil, err
	}
	cities = distinctCities(cities)

	log := zap.L().With(
		zap.String("component", "cluster"),
		zap.Int("k", e.cfg.K),
		zap.Int64("seed", e.cfg.Seed),
		zap.Int("demand", len(demand)),
		zap.Int("cities", len(cities)),
	)

	r := &run{state: StateInitializing}
	r.centroids = initialCentroids(cities, e.cfg.K, e.cfg.Seed)
	r.state = StateIterating

	var costs []float64
	iterations := 0
	for iter := 1; iter <= e.cfg.MaxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		m, err := e.distances.WeightedDistances(ctx, demand, model.Coords(r.centroids))
		if err != nil {
			return nil, eris.Wrapf(err, "cluster: iteration %d distances", iter)
		}

		assignment := Assign(m)
		cost := TotalCost(m, assignment)
		costs = append(costs, cost)
		changed := r.assignment == nil || !slices.Equal(r.assignment, assignment)

		recenter(r.centroids, demand, assignment, cities)
		r.assignment = assignment
		iterations = iter

		log.Debug("cluster iteration",
			zap.Int("iteration", iter),
			zap.Float64("cost", cost),
			zap.Bool("changed", changed),
		)

		if !changed {
			r.state = StateConverged
			break
		}
	}
	if r.state != StateConverged {
		r.state = StateExhausted
	}

	// Score the centroids being returned. After an exhausted run they differ
	// from the ones the last iteration assigned against.
	m, err := e.distances.WeightedDistances(ctx, demand, model.Coords(r.centroids))
	if err != nil {
		return nil, eris.Wrap(err, "cluster: final distances")
	}
	r.assignment = Assign(m)
	finalCost := TotalCost(m, r.assignment)

	log.Info("clustering finished",
		zap.String("state", r.state.String()),
		zap.Int("iterations", iterations),
		zap.Float64("cost", finalCost),
	)

	return &Result{
		Centroids:  slices.Clone(r.centroids),
		Assignment: r.assignment,
		Iterations: iterations,
		State:      r.state,
		Costs:      costs,
		FinalCost:  finalCost,
	}, nil
}

// Validate checks the run inputs before initialization.
func Validate(k int, demand []model.DemandPoint, cities []model.CityCandidate) error {
	if k < 1 {
		return eris.Wrapf(ErrInvalidConfiguration, "k must be at least 1, got %d", k)
	}
	if n := len(distinctCities(cities)); k > n {
		return eris.Wrapf(ErrInvalidConfiguration, "k=%d exceeds %d distinct city candidates", k, n)
	}
	for i, d := range demand {
		if d.Weight < 0 || math.IsNaN(d.Weight) || math.IsInf(d.Weight, 0) {
			return eris.Wrapf(ErrInvalidConfiguration, "demand point %d has invalid weight %v", i, d.Weight)
		}
		if !d.Coord().IsFinite() {
			return eris.Wrapf(ErrInvalidConfiguration, "demand point %d has non-finite coordinates", i)
		}
	}
	if len(demand) == 0 {
		return ErrNoDemandInRegion
	}
	return nil
}

// distinctCities drops candidates whose (lat, lon) repeats an earlier one.
func distinctCities(cities []model.CityCandidate) []model.CityCandidate {
	seen := make(map[model.Coord]bool, len(cities))
	out := make([]model.CityCandidate, 0, len(cities))
	for _, c := range cities {
		if seen[c.Coord()] {
			continue
		}
		seen[c.Coord()] = true
		out = append(out, c)
	}
	return out
}

// initialCentroids picks k distinct cities uniformly at random. Demand weight
// is deliberately ignored here.
func initialCentroids(cities []model.CityCandidate, k int, seed int64) []model.Centroid {
	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed)))
	picks := rng.Perm(len(cities))[:k]
	out := make([]model.Centroid, k)
	for j, idx := range picks {
		out[j] = model.CentroidFromCity(cities[idx])
	}
	return out
}

// Assign returns the per-row argmin of m. Ties go to the lowest centroid index.
func Assign(m *distance.Matrix) []int {
	out := make([]int, m.Rows())
	for i := range out {
		out[i] = m.ArgMin(i)
	}
	return out
}

// TotalCost sums each row's entry at its assigned column.
func TotalCost(m *distance.Matrix, assignment []int) float64 {
	var total float64
	for i, j := range assignment {
		if j >= 0 {
			total += m.At(i, j)
		}
	}
	return total
}

// recenter moves every centroid with positive assigned weight to the
// weighted mean of its points, then snaps it to the nearest city. Centroids
// without weight keep their position.
func recenter(centroids []model.Centroid, demand []model.DemandPoint, assignment []int, cities []model.CityCandidate) {
	k := len(centroids)
	sumLat := make([]float64, k)
	sumLon := make([]float64, k)
	sumW := make([]float64, k)
	for i, j := range assignment {
		if j < 0 {
			continue
		}
		w := demand[i].Weight
		sumLat[j] += demand[i].Latitude * w
		sumLon[j] += demand[i].Longitude * w
		sumW[j] += w
	}

	for j := range centroids {
		if sumW[j] <= 0 {
			continue
		}
		mean := model.Coord{Latitude: sumLat[j] / sumW[j], Longitude: sumLon[j] / sumW[j]}
		centroids[j] = model.CentroidFromCity(cities[NearestCity(mean, cities)])
	}
}

// NearestCity returns the index of the city closest to c by squared
// Euclidean distance in degree space. Ties go to the lowest index.
func NearestCity(c model.Coord, cities []model.CityCandidate) int {
	best := -1
	bestD := math.Inf(1)
	for i, city := range cities {
		dLat := city.Latitude - c.Latitude
		dLon := city.Longitude - c.Longitude
		d := dLat*dLat + dLon*dLon
		if d < bestD {
			best, bestD = i, d
		}
	}
	return best
}
