// Package placement wires reference data, the demand filter, clustering,
// and publishing into one explicit run.
package placement

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/relay-cli/internal/cluster"
	"github.com/sells-group/relay-cli/internal/distance"
	"github.com/sells-group/relay-cli/internal/geo"
	"github.com/sells-group/relay-cli/internal/metrics"
	"github.com/sells-group/relay-cli/internal/model"
	"github.com/sells-group/relay-cli/internal/refdata"
	"github.com/sells-group/relay-cli/internal/relay"
)

// Options are the per-run parameters. The value is copied on entry.
type Options struct {
	K             int
	Seed          int64
	MaxIterations int
	// Publish writes the final relays through Deps.Publisher.
	Publish bool
	// ModelName, when set, saves the relays under that name.
	ModelName string
}

// Deps are the collaborators of a run.
type Deps struct {
	RefData   *refdata.Store
	Engine    distance.Engine
	Publisher *relay.Publisher
	Models    *ModelStore
}

// Report summarizes a finished run.
type Report struct {
	RunID          string           `json:"run_id"`
	Centroids      []model.Centroid `json:"centroids"`
	Assignment     []int            `json:"assignment"`
	State          string           `json:"state"`
	Iterations     int              `json:"iterations"`
	TotalCost      float64          `json:"total_cost"`
	DemandTotal    int              `json:"demand_total"`
	DemandInRegion int              `json:"demand_in_region"`
	Cities         int              `json:"cities"`
	Backend        string           `json:"backend"`
	Published      int              `json:"published"`
	ModelName      string           `json:"model_name,omitempty"`
	Elapsed        time.Duration    `json:"elapsed"`
}

// Run loads reference data, keeps the demand inside the region, clusters it
// onto cities, and optionally publishes and saves the result.
func Run(ctx context.Context, deps Deps, opts Options, demand []model.DemandPoint) (*Report, error) {
	start := time.Now()
	runID := uuid.New().String()
	log := zap.L().With(
		zap.String("component", "placement"),
		zap.String("run_id", runID),
	)

	report, err := run(ctx, deps, opts, demand, runID, log)
	if err != nil {
		metrics.RecordRun(metrics.OutcomeFailed, 0)
		log.Error("placement failed", zap.Error(err))
		return nil, err
	}

	report.Elapsed = time.Since(start)
	log.Info("placement finished",
		zap.String("state", report.State),
		zap.Int("iterations", report.Iterations),
		zap.Float64("total_cost", report.TotalCost),
		zap.Int("published", report.Published),
		zap.Duration("elapsed", report.Elapsed),
	)
	return report, nil
}

func run(ctx context.Context, deps Deps, opts Options, demand []model.DemandPoint, runID string, log *zap.Logger) (*Report, error) {
	if deps.RefData == nil || deps.Engine == nil {
		return nil, eris.New("placement: reference store and distance engine are required")
	}
	if opts.Publish && deps.Publisher == nil {
		return nil, eris.Wrap(cluster.ErrInvalidConfiguration, "publish requested without a publisher")
	}
	if opts.ModelName != "" && deps.Models == nil {
		return nil, eris.Wrap(cluster.ErrInvalidConfiguration, "model name given without a model store")
	}

	cities, err := deps.RefData.Cities(ctx)
	if err != nil {
		return nil, err
	}
	boundary, err := deps.RefData.Boundary(ctx)
	if err != nil {
		return nil, err
	}

	inside, outside := geo.Partition(demand, boundary)
	log.Info("demand filtered",
		zap.Int("total", len(demand)),
		zap.Int("inside", len(inside)),
		zap.Int("outside", outside),
		zap.Int("cities", len(cities)),
	)

	res, err := cluster.New(deps.Engine, cluster.Config{
		K:             opts.K,
		Seed:          opts.Seed,
		MaxIterations: opts.MaxIterations,
	}).Run(ctx, inside, cities)
	if err != nil {
		return nil, err
	}

	outcome := metrics.OutcomeConverged
	if res.State == cluster.StateExhausted {
		outcome = metrics.OutcomeExhausted
		log.Warn("clustering hit the iteration limit before converging",
			zap.Int("max_iterations", res.Iterations),
		)
	}
	metrics.RecordRun(outcome, res.Iterations)

	report := &Report{
		RunID:          runID,
		Centroids:      res.Centroids,
		Assignment:     res.Assignment,
		State:          res.State.String(),
		Iterations:     res.Iterations,
		DemandTotal:    len(demand),
		DemandInRegion: len(inside),
		Cities:         len(cities),
		TotalCost:      res.FinalCost,
		Backend:        deps.Engine.Name(),
	}

	if opts.Publish {
		report.Published, err = deps.Publisher.Publish(ctx, res.Centroids)
		if err != nil {
			return nil, eris.Wrap(err, "placement: publish")
		}
	}

	if opts.ModelName != "" {
		err := deps.Models.Save(ctx, SavedModel{
			Name:      opts.ModelName,
			RunID:     runID,
			K:         opts.K,
			Seed:      opts.Seed,
			Relays:    res.Centroids,
			TotalCost: report.TotalCost,
			CreatedAt: time.Now().UTC(),
		})
		if err != nil {
			return nil, err
		}
		report.ModelName = opts.ModelName
	}

	return report, nil
}
