package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/relay-cli/internal/cache"
	"github.com/sells-group/relay-cli/internal/config"
	"github.com/sells-group/relay-cli/internal/db"
	"github.com/sells-group/relay-cli/internal/distance"
	"github.com/sells-group/relay-cli/internal/placement"
	"github.com/sells-group/relay-cli/internal/refdata"
	"github.com/sells-group/relay-cli/internal/relay"
	"github.com/sells-group/relay-cli/internal/resilience"
)

// app bundles the collaborators built from config for one command.
type app struct {
	cache   cache.Cache
	refData *refdata.Store
	engine  distance.Engine
	repo    relay.Repository
	pool    *pgxpool.Pool
	models  *placement.ModelStore
}

// openApp wires the configured backends. withRepo opens the relay
// repository too, which connects to Postgres when store.database_url is set.
func openApp(ctx context.Context, c *config.Config, withRepo bool) (*app, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	store, err := openCache(ctx, c.Cache)
	if err != nil {
		return nil, err
	}
	a := &app{cache: store, models: placement.NewModelStore(store)}

	a.refData, err = newRefDataStore(store, c.RefData)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.engine, err = distance.New(distance.Options{Backend: c.Distance.Backend, Workers: c.Distance.Workers})
	if err != nil {
		a.Close()
		return nil, err
	}

	if withRepo {
		if err := a.openRepo(ctx, c.Store); err != nil {
			a.Close()
			return nil, err
		}
	}
	return a, nil
}

func (a *app) openRepo(ctx context.Context, sc config.StoreConfig) error {
	if sc.DatabaseURL == "" {
		zap.L().Warn("store.database_url not set, relay points are kept in memory for this run only")
		a.repo = relay.NewMemoryRepository()
		return nil
	}
	pool, err := db.Connect(ctx, sc.DatabaseURL, db.PoolConfig{MaxConns: sc.MaxConns})
	if err != nil {
		return eris.Wrap(err, "connect relay store")
	}
	a.pool = pool
	a.repo = relay.NewPostgresRepository(pool)
	return nil
}

func (a *app) deps() placement.Deps {
	d := placement.Deps{
		RefData: a.refData,
		Engine:  a.engine,
		Models:  a.models,
	}
	if a.repo != nil {
		d.Publisher = relay.NewPublisher(a.repo)
	}
	return d
}

// Close releases the cache and the database pool.
func (a *app) Close() {
	if a.pool != nil {
		a.pool.Close()
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			zap.L().Warn("close cache", zap.Error(err))
		}
	}
}

func openCache(ctx context.Context, cc config.CacheConfig) (cache.Cache, error) {
	return cache.Open(ctx, cache.Options{
		Driver:        cc.Driver,
		Path:          cc.Path,
		RedisAddr:     cc.RedisAddr,
		RedisPassword: cc.RedisPassword,
		RedisDB:       cc.RedisDB,
		RedisPrefix:   cc.RedisPrefix,
	})
}

// newRefDataStore picks the boundary and gazetteer sources from config.
func newRefDataStore(c cache.Cache, rc config.RefDataConfig) (*refdata.Store, error) {
	if rc.TempDir != "" {
		if err := os.MkdirAll(rc.TempDir, 0o755); err != nil {
			return nil, eris.Wrap(err, "create temp dir")
		}
	}

	var boundaries refdata.BoundarySource
	if rc.BoundaryURL != "" {
		boundaries = refdata.DownloadBoundary{
			URL:     rc.BoundaryURL,
			TempDir: rc.TempDir,
			Client:  &http.Client{Timeout: 5 * time.Minute},
		}
	} else {
		boundaries = refdata.FileBoundary(rc.BoundaryPath, rc.TempDir)
	}

	var gazetteer refdata.CitySource
	switch rc.CitiesSource {
	case config.CitiesCSV:
		gazetteer = refdata.CSVCities{Path: rc.CitiesCSV, Charset: rc.CitiesCharset}
	case config.CitiesOverpass, "":
		o := refdata.NewOverpassCities(rc.OverpassURL, rc.Country, rc.OverpassRPS)
		o.Retry = resilience.FromConfig(rc.RetryAttempts, rc.RetryBackoffMs)
		gazetteer = o
	default:
		return nil, eris.Errorf("unknown cities source %q", rc.CitiesSource)
	}

	return refdata.NewStore(c, rc.Dataset, boundaries, gazetteer), nil
}
