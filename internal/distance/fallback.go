package distance

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/relay-cli/internal/metrics"
	"github.com/sells-group/relay-cli/internal/model"
)

// Fallback runs the primary engine and, if it fails, recomputes the matrix
// with the reference engine.
type Fallback struct {
	primary   Engine
	reference Engine
}

// NewFallback wraps primary with a reference fallback.
func NewFallback(primary, reference Engine) *Fallback {
	return &Fallback{primary: primary, reference: reference}
}

// Name implements Engine.
func (f *Fallback) Name() string { return f.primary.Name() }

// WeightedDistances implements Engine. Context cancellation is returned as-is
// and never triggers the fallback.
func (f *Fallback) WeightedDistances(ctx context.Context, demand []model.DemandPoint, centroids []model.Coord) (*Matrix, error) {
	m, err := f.primary.WeightedDistances(ctx, demand, centroids)
	if err == nil {
		return m, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil, err
	}

	zap.L().Warn("distance: backend failed, falling back to reference",
		zap.String("backend", f.primary.Name()),
		zap.Error(err),
	)
	metrics.RecordFallback(f.primary.Name())

	m, refErr := f.reference.WeightedDistances(ctx, demand, centroids)
	if refErr != nil {
		return nil, eris.Wrapf(ErrDistanceBackendFailure, "%s: %v; %s: %v",
			f.primary.Name(), err, f.reference.Name(), refErr)
	}
	return m, nil
}
