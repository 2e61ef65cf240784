package relay

import (
	"context"
	"slices"
	"sync"

	"github.com/sells-group/relay-cli/internal/model"
)

// MemoryRepository keeps relays in process, for dry runs and tests.
type MemoryRepository struct {
	mu      sync.Mutex
	records []model.RelayPoint
	seen    map[model.Coord]bool
}

// NewMemoryRepository creates an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{seen: make(map[model.Coord]bool)}
}

func (m *MemoryRepository) Create(_ context.Context, rp model.RelayPoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := model.Coord{Latitude: rp.Latitude, Longitude: rp.Longitude}
	if m.seen[key] {
		return ErrDuplicate
	}
	m.seen[key] = true
	m.records = append(m.records, rp)
	return nil
}

func (m *MemoryRepository) List(_ context.Context) ([]model.RelayPoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.records), nil
}
