// Package cache is the durable key/value layer behind reference data and
// saved models. Backends store opaque bytes; Load layers typed get-or-compute
// on top.
package cache

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrMiss is returned by Get when the key is absent.
var ErrMiss = eris.New("cache: miss")

// Cache is a byte-oriented key/value store.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Codec converts values to and from their cached form.
type Codec[T any] interface {
	Encode(v T) ([]byte, error)
	Decode(data []byte) (T, error)
}

// JSONCodec stores values as JSON.
type JSONCodec[T any] struct{}

// Encode implements Codec.
func (JSONCodec[T]) Encode(v T) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, eris.Wrap(err, "cache: encode json")
	}
	return data, nil
}

// Decode implements Codec.
func (JSONCodec[T]) Decode(data []byte) (T, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return v, eris.Wrap(err, "cache: decode json")
	}
	return v, nil
}

// Load returns the cached value for key, or computes, stores, and returns
// it. hit reports whether the value came from the cache. Unreadable entries
// are treated as misses; a failed store is logged and does not fail the load.
// When both the read and compute fail, the error carries both causes.
func Load[T any](ctx context.Context, c Cache, key string, codec Codec[T], compute func(ctx context.Context) (T, error)) (v T, hit bool, err error) {
	log := zap.L().With(zap.String("component", "cache"), zap.String("key", key))

	var readErr error
	data, err := c.Get(ctx, key)
	switch {
	case err == nil:
		v, err = codec.Decode(data)
		if err == nil {
			return v, true, nil
		}
		log.Warn("discarding unreadable cache entry", zap.Error(err))
	case eris.Is(err, ErrMiss):
	default:
		readErr = err
		log.Warn("cache read failed, recomputing", zap.Error(err))
	}

	v, err = compute(ctx)
	if err != nil {
		var zero T
		if readErr != nil {
			err = eris.Wrapf(err, "cache read also failed: %v", readErr)
		}
		return zero, false, err
	}

	encoded, err := codec.Encode(v)
	if err != nil {
		log.Warn("cache encode failed", zap.Error(err))
		return v, false, nil
	}
	if err := c.Put(ctx, key, encoded); err != nil {
		log.Warn("cache write failed", zap.Error(err))
	}
	return v, false, nil
}
