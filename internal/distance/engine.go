package distance

import (
	"context"
	"runtime"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/relay-cli/internal/metrics"
	"github.com/sells-group/relay-cli/internal/model"
)

// Backend names accepted by New.
const (
	BackendReference = "reference"
	BackendParallel  = "parallel"
)

// ErrDistanceBackendFailure is returned when the selected backend and the
// reference fallback both fail.
var ErrDistanceBackendFailure = eris.New("distance backend failure")

// Engine computes the N×K weighted distance matrix where entry (i, j) is
// demand[i].Weight × Haversine(demand[i], centroids[j]).
type Engine interface {
	WeightedDistances(ctx context.Context, demand []model.DemandPoint, centroids []model.Coord) (*Matrix, error)
	Name() string
}

// Options configures New.
type Options struct {
	Backend string
	// Workers bounds the goroutines of the parallel backend.
	// Zero means runtime.GOMAXPROCS(0).
	Workers int
}

// New builds the engine selected by opts.Backend. Any backend other than the
// reference one is wrapped so a failure falls back to the reference backend.
func New(opts Options) (Engine, error) {
	switch opts.Backend {
	case "", BackendParallel:
		workers := opts.Workers
		if workers <= 0 {
			workers = runtime.GOMAXPROCS(0)
		}
		return NewFallback(NewParallel(workers), NewReference()), nil
	case BackendReference:
		return NewReference(), nil
	default:
		return nil, eris.Errorf("distance: unknown backend %q", opts.Backend)
	}
}

// Reference is the sequential, portable implementation of Engine.
type Reference struct{}

// NewReference creates the sequential engine.
func NewReference() *Reference { return &Reference{} }

// Name implements Engine.
func (r *Reference) Name() string { return BackendReference }

// WeightedDistances implements Engine.
func (r *Reference) WeightedDistances(ctx context.Context, demand []model.DemandPoint, centroids []model.Coord) (*Matrix, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	m := NewMatrix(len(demand), len(centroids))
	fillRows(m, demand, centroids, 0, len(demand))
	metrics.ObserveDistance(r.Name(), time.Since(start))
	return m, nil
}

// fillRows computes rows [from, to) of m. Each row depends only on its own
// demand point, so disjoint ranges may be filled concurrently.
func fillRows(m *Matrix, demand []model.DemandPoint, centroids []model.Coord, from, to int) {
	for i := from; i < to; i++ {
		d := demand[i]
		row := m.Row(i)
		for j, c := range centroids {
			row[j] = d.Weight * haversineKM(d.Latitude, d.Longitude, c.Latitude, c.Longitude)
		}
	}
}
