package placement

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/relay-cli/internal/cache"
	"github.com/sells-group/relay-cli/internal/cluster"
	"github.com/sells-group/relay-cli/internal/model"
)

// ErrModelNotFound is returned when no model is saved under a name.
var ErrModelNotFound = eris.New("placement: model not found")

// SavedModel is a trained relay set kept for later prediction.
type SavedModel struct {
	Name      string           `json:"name"`
	RunID     string           `json:"run_id"`
	K         int              `json:"k"`
	Seed      int64            `json:"seed"`
	Relays    []model.Centroid `json:"relays"`
	TotalCost float64          `json:"total_cost"`
	CreatedAt time.Time        `json:"created_at"`
}

// ModelStore keeps saved models in the durable cache under model:<name>.
type ModelStore struct {
	cache cache.Cache
	codec cache.JSONCodec[SavedModel]
}

// NewModelStore creates a ModelStore over c.
func NewModelStore(c cache.Cache) *ModelStore {
	return &ModelStore{cache: c}
}

func modelKey(name string) string { return "model:" + name }

// Save stores m, replacing any model with the same name.
func (s *ModelStore) Save(ctx context.Context, m SavedModel) error {
	if m.Name == "" {
		return eris.New("placement: model name is empty")
	}
	data, err := s.codec.Encode(m)
	if err != nil {
		return err
	}
	return eris.Wrapf(s.cache.Put(ctx, modelKey(m.Name), data), "placement: save model %s", m.Name)
}

// Load returns the model saved under name.
func (s *ModelStore) Load(ctx context.Context, name string) (*SavedModel, error) {
	data, err := s.cache.Get(ctx, modelKey(name))
	if eris.Is(err, cache.ErrMiss) {
		return nil, eris.Wrapf(ErrModelNotFound, "model %q", name)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "placement: load model %s", name)
	}
	m, err := s.codec.Decode(data)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Delete removes a saved model.
func (s *ModelStore) Delete(ctx context.Context, name string) error {
	return eris.Wrapf(s.cache.Delete(ctx, modelKey(name)), "placement: delete model %s", name)
}

// Predict scores demand against the relays of a saved model. Demand is not
// filtered by the region boundary.
func Predict(ctx context.Context, deps Deps, name string, demand []model.DemandPoint) (*cluster.Prediction, error) {
	if deps.Models == nil || deps.Engine == nil {
		return nil, eris.New("placement: model store and distance engine are required")
	}
	m, err := deps.Models.Load(ctx, name)
	if err != nil {
		return nil, err
	}
	return cluster.Predict(ctx, deps.Engine, demand, m.Relays)
}
