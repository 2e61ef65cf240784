package cluster

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/relay-cli/internal/distance"
	"github.com/sells-group/relay-cli/internal/model"
)

// Prediction scores demand against a fixed relay set.
type Prediction struct {
	// Assignment[i] is the index of the relay serving demand point i.
	Assignment []int `json:"assignment"`
	// Distances[i] is the weighted distance from point i to that relay.
	Distances []float64 `json:"distances"`
	TotalCost float64   `json:"total_cost"`
}

// Predict assigns demand to the nearest of the given relays without moving
// them. The per-point minimum is reduced from the full weighted matrix.
func Predict(ctx context.Context, engine distance.Engine, demand []model.DemandPoint, relays []model.Centroid) (*Prediction, error) {
	if len(relays) == 0 {
		return nil, eris.Wrap(ErrInvalidConfiguration, "no relay points to predict against")
	}
	if len(demand) == 0 {
		return nil, ErrNoDemandInRegion
	}

	m, err := engine.WeightedDistances(ctx, demand, model.Coords(relays))
	if err != nil {
		return nil, eris.Wrap(err, "cluster: predict distances")
	}

	p := &Prediction{
		Assignment: Assign(m),
		Distances:  make([]float64, m.Rows()),
	}
	for i, j := range p.Assignment {
		p.Distances[i] = m.At(i, j)
		p.TotalCost += p.Distances[i]
	}
	return p, nil
}
