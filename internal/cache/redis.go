package cache

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
)

// Redis is a Cache shared across hosts through a Redis server.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis connects to addr. Keys are stored under prefix.
func NewRedis(addr, password string, db int, prefix string) *Redis {
	return &Redis{
		client: redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db}),
		prefix: prefix,
	}
}

// Ping checks the connection.
func (r *Redis) Ping(ctx context.Context) error {
	return eris.Wrap(r.client.Ping(ctx).Err(), "redis: ping")
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, eris.Wrapf(err, "redis: get %s", key)
	}
	return v, nil
}

func (r *Redis) Put(ctx context.Context, key string, value []byte) error {
	return eris.Wrapf(r.client.Set(ctx, r.prefix+key, value, 0).Err(), "redis: put %s", key)
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	return eris.Wrapf(r.client.Del(ctx, r.prefix+key).Err(), "redis: delete %s", key)
}

func (r *Redis) Close() error {
	return r.client.Close()
}
