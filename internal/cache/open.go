package cache

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Backend names accepted by Open.
const (
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
	DriverFile   = "file"
	DriverMemory = "memory"
)

// Options selects and configures a backend.
type Options struct {
	Driver        string
	Path          string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

// Open returns the configured backend, ready for use.
func Open(ctx context.Context, opts Options) (Cache, error) {
	log := zap.L().With(zap.String("component", "cache"), zap.String("driver", opts.Driver))

	switch opts.Driver {
	case DriverSQLite, "":
		s, err := NewSQLite(opts.Path)
		if err != nil {
			return nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			_ = s.Close()
			return nil, err
		}
		log.Debug("cache opened", zap.String("path", opts.Path))
		return s, nil
	case DriverRedis:
		r := NewRedis(opts.RedisAddr, opts.RedisPassword, opts.RedisDB, opts.RedisPrefix)
		if err := r.Ping(ctx); err != nil {
			_ = r.Close()
			return nil, err
		}
		log.Debug("cache opened", zap.String("addr", opts.RedisAddr))
		return r, nil
	case DriverFile:
		return NewFile(opts.Path)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, eris.Errorf("cache: unknown driver %q", opts.Driver)
	}
}
