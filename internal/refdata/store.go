// Package refdata serves the region boundary and the candidate-city
// gazetteer. Both are read through the durable cache and memoized for the
// life of the process.
package refdata

import (
	"context"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/sells-group/relay-cli/internal/cache"
	"github.com/sells-group/relay-cli/internal/geo"
	"github.com/sells-group/relay-cli/internal/metrics"
	"github.com/sells-group/relay-cli/internal/model"
)

// ErrReferenceDataUnavailable is returned when neither the cache nor the
// authoritative source can produce a dataset.
var ErrReferenceDataUnavailable = eris.New("reference data unavailable")

// BoundarySource loads the region boundary from its authoritative origin.
type BoundarySource interface {
	Boundary(ctx context.Context) (*geo.Boundary, error)
}

// CitySource loads candidate cities from their authoritative origin.
type CitySource interface {
	Cities(ctx context.Context) ([]model.CityCandidate, error)
}

// Store is the read-through reference data store.
type Store struct {
	cache      cache.Cache
	dataset    string
	boundaries BoundarySource
	gazetteer  CitySource

	sf       singleflight.Group
	boundary atomic.Pointer[geo.Boundary]
	cities   atomic.Pointer[[]model.CityCandidate]
}

// NewStore creates a Store. dataset names the cache keys, so two stores
// with different sources must use different datasets.
func NewStore(c cache.Cache, dataset string, boundaries BoundarySource, gazetteer CitySource) *Store {
	return &Store{cache: c, dataset: dataset, boundaries: boundaries, gazetteer: gazetteer}
}

// BoundaryKey is the cache key of the boundary.
func (s *Store) BoundaryKey() string { return "boundary:" + s.dataset }

// CitiesKey is the cache key of the gazetteer.
func (s *Store) CitiesKey() string { return "cities:" + s.dataset }

// Boundary returns the region boundary.
func (s *Store) Boundary(ctx context.Context) (*geo.Boundary, error) {
	if b := s.boundary.Load(); b != nil {
		return b, nil
	}
	v, err, _ := s.sf.Do("boundary", func() (any, error) {
		if b := s.boundary.Load(); b != nil {
			return b, nil
		}
		b, hit, err := cache.Load[*geo.Boundary](ctx, s.cache, s.BoundaryKey(), boundaryCodec{}, s.boundaries.Boundary)
		if err != nil {
			return nil, eris.Wrapf(ErrReferenceDataUnavailable, "boundary %s: %v", s.dataset, err)
		}
		metrics.RecordCacheLookup("boundary", hit)
		s.boundary.Store(b)
		zap.L().Info("boundary loaded",
			zap.String("component", "refdata"),
			zap.String("dataset", s.dataset),
			zap.Bool("cache_hit", hit),
			zap.Int("polygons", b.NumPolygons()),
		)
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*geo.Boundary), nil
}

// Cities returns the candidate cities. An empty gazetteer is not an error.
func (s *Store) Cities(ctx context.Context) ([]model.CityCandidate, error) {
	if c := s.cities.Load(); c != nil {
		return *c, nil
	}
	v, err, _ := s.sf.Do("cities", func() (any, error) {
		if c := s.cities.Load(); c != nil {
			return *c, nil
		}
		cities, hit, err := cache.Load[[]model.CityCandidate](ctx, s.cache, s.CitiesKey(), cache.JSONCodec[[]model.CityCandidate]{}, s.gazetteer.Cities)
		if err != nil {
			return nil, eris.Wrapf(ErrReferenceDataUnavailable, "cities %s: %v", s.dataset, err)
		}
		metrics.RecordCacheLookup("cities", hit)
		s.cities.Store(&cities)
		zap.L().Info("cities loaded",
			zap.String("component", "refdata"),
			zap.String("dataset", s.dataset),
			zap.Bool("cache_hit", hit),
			zap.Int("cities", len(cities)),
		)
		return cities, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]model.CityCandidate), nil
}

// Warm loads both datasets.
func (s *Store) Warm(ctx context.Context) error {
	if _, err := s.Boundary(ctx); err != nil {
		return err
	}
	_, err := s.Cities(ctx)
	return err
}

// Invalidate drops both cache entries and the in-process copies. The next
// read goes back to the sources.
func (s *Store) Invalidate(ctx context.Context) error {
	s.boundary.Store(nil)
	s.cities.Store(nil)
	if err := s.cache.Delete(ctx, s.BoundaryKey()); err != nil {
		return eris.Wrap(err, "refdata: invalidate boundary")
	}
	if err := s.cache.Delete(ctx, s.CitiesKey()); err != nil {
		return eris.Wrap(err, "refdata: invalidate cities")
	}
	zap.L().Info("reference data invalidated",
		zap.String("component", "refdata"),
		zap.String("dataset", s.dataset),
	)
	return nil
}

// boundaryCodec caches boundaries as WKB.
type boundaryCodec struct{}

func (boundaryCodec) Encode(b *geo.Boundary) ([]byte, error) { return geo.EncodeWKB(b) }

func (boundaryCodec) Decode(data []byte) (*geo.Boundary, error) { return geo.DecodeWKB(data) }
