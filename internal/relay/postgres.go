package relay

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/relay-cli/internal/db"
	"github.com/sells-group/relay-cli/internal/model"
)

// PostgresRepository stores relay points in PostgreSQL.
type PostgresRepository struct {
	pool db.Pool
}

// NewPostgresRepository creates a repository over pool.
func NewPostgresRepository(pool db.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS relay_points (
	id         BIGSERIAL PRIMARY KEY,
	name       TEXT NOT NULL,
	latitude   DOUBLE PRECISION NOT NULL,
	longitude  DOUBLE PRECISION NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (latitude, longitude)
);
`

// Migrate creates the relay_points table.
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate relay_points")
}

// Create inserts rp, returning ErrDuplicate when its coordinates are taken.
func (r *PostgresRepository) Create(ctx context.Context, rp model.RelayPoint) error {
	tag, err := r.pool.Exec(ctx,
		`INSERT INTO relay_points (name, latitude, longitude) VALUES ($1, $2, $3)
		ON CONFLICT (latitude, longitude) DO NOTHING`,
		rp.Name, rp.Latitude, rp.Longitude,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: insert relay %s", rp.Name)
	}
	if tag.RowsAffected() == 0 {
		return ErrDuplicate
	}
	return nil
}

// List returns every stored relay in insertion order.
func (r *PostgresRepository) List(ctx context.Context) ([]model.RelayPoint, error) {
	rows, err := r.pool.Query(ctx, `SELECT name, latitude, longitude FROM relay_points ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list relays")
	}
	defer rows.Close()

	var out []model.RelayPoint
	for rows.Next() {
		var rp model.RelayPoint
		if err := rows.Scan(&rp.Name, &rp.Latitude, &rp.Longitude); err != nil {
			return nil, eris.Wrap(err, "postgres: scan relay")
		}
		out = append(out, rp)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list relays iterate")
}
