// Package relay persists the final relay points.
package relay

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/relay-cli/internal/metrics"
	"github.com/sells-group/relay-cli/internal/model"
)

// ErrDuplicate is returned by Create when a relay already exists at the
// same coordinates.
var ErrDuplicate = eris.New("relay: duplicate relay point")

// Repository stores relay records.
type Repository interface {
	Create(ctx context.Context, rp model.RelayPoint) error
	List(ctx context.Context) ([]model.RelayPoint, error)
}

// Publisher writes centroids to a Repository.
type Publisher struct {
	repo Repository
}

// NewPublisher creates a Publisher.
func NewPublisher(repo Repository) *Publisher {
	return &Publisher{repo: repo}
}

// Publish stores one record per centroid and returns how many were written.
// Duplicates are skipped; any other error stops publishing and is returned
// with the count so far.
func (p *Publisher) Publish(ctx context.Context, centroids []model.Centroid) (int, error) {
	log := zap.L().With(zap.String("component", "relay.publisher"))

	written, duplicates := 0, 0
	defer func() { metrics.RecordPublish(written, duplicates) }()

	for _, c := range centroids {
		rp := model.RelayPointFromCentroid(c)
		err := p.repo.Create(ctx, rp)
		switch {
		case err == nil:
			written++
		case eris.Is(err, ErrDuplicate):
			duplicates++
			log.Warn("relay point already exists, skipping",
				zap.String("name", rp.Name),
				zap.Float64("latitude", rp.Latitude),
				zap.Float64("longitude", rp.Longitude),
			)
		default:
			return written, eris.Wrapf(err, "relay: publish %s", rp.Name)
		}
	}

	log.Info("relay points published",
		zap.Int("written", written),
		zap.Int("duplicates", duplicates),
	)
	return written, nil
}
