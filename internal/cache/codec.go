package cache

import (
	"context"
	"errors"

	"github.com/vmihailenco/msgpack/v5"
)

// Lookup decodes the fresh value stored under key.
// A payload that fails to decode counts as a miss.
func Lookup[T any](ctx context.Context, c *Cache, key string) (T, bool) {
	var value T

	data, ok := c.Get(ctx, key)
	if !ok {
		return value, false
	}
	if err := msgpack.Unmarshal(data, &value); err != nil {
		c.logger.WithError(errors.Join(ErrDecodeFailed, err)).WithField("key", key).Warn("discarding cached value")
		var zero T
		return zero, false
	}
	return value, true
}

// Put encodes value and stores it under key.
func Put[T any](ctx context.Context, c *Cache, key string, value T) {
	data, err := msgpack.Marshal(value)
	if err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("cache encode failed")
		return
	}
	c.Set(ctx, key, data)
}
