package distance

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/relay-cli/internal/metrics"
	"github.com/sells-group/relay-cli/internal/model"
)

// minRowsPerChunk keeps tiny inputs from being split into more goroutines
// than rows worth computing.
const minRowsPerChunk = 64

// Parallel fans the matrix rows out over a bounded pool of goroutines.
type Parallel struct {
	workers int
}

// NewParallel creates a parallel engine using at most workers goroutines.
func NewParallel(workers int) *Parallel {
	if workers < 1 {
		workers = 1
	}
	return &Parallel{workers: workers}
}

// Name implements Engine.
func (p *Parallel) Name() string { return BackendParallel }

// WeightedDistances implements Engine.
func (p *Parallel) WeightedDistances(ctx context.Context, demand []model.DemandPoint, centroids []model.Coord) (*Matrix, error) {
	start := time.Now()
	n := len(demand)
	m := NewMatrix(n, len(centroids))
	if n == 0 || len(centroids) == 0 {
		return m, ctx.Err()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for _, r := range chunks(n, p.workers) {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fillRows(m, demand, centroids, r.from, r.to)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, eris.Wrap(err, "distance: parallel matrix")
	}
	metrics.ObserveDistance(p.Name(), time.Since(start))
	return m, nil
}

type rowRange struct{ from, to int }

// chunks splits [0, n) into at most workers contiguous ranges of at least
// minRowsPerChunk rows (the last range may be shorter).
func chunks(n, workers int) []rowRange {
	size := (n + workers - 1) / workers
	if size < minRowsPerChunk {
		size = minRowsPerChunk
	}
	var out []rowRange
	for from := 0; from < n; from += size {
		to := from + size
		if to > n {
			to = n
		}
		out = append(out, rowRange{from: from, to: to})
	}
	return out
}
