package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

// DefaultRetentionFactor bounds how long Redis keeps an entry, as a multiple of the TTL.
const DefaultRetentionFactor = 5

// RedisStore is a Store shared between processes.
//
// The server-side expiry only bounds memory. Freshness is still decided
// by Cache against StoredAtMs.
type RedisStore struct {
	client    *redis.Client
	prefix    string
	retention time.Duration
}

// NewRedisStore creates a Redis-backed store. retention <= 0 disables server-side expiry.
func NewRedisStore(client *redis.Client, prefix string, retention time.Duration) *RedisStore {
	if retention < 0 {
		retention = 0
	}
	return &RedisStore{
		client:    client,
		prefix:    prefix,
		retention: retention,
	}
}

// key returns the full Redis key with prefix applied.
func (s *RedisStore) key(k string) string {
	if s.prefix == "" {
		return k
	}
	return s.prefix + ":" + k
}

// Load returns the entry for key.
func (s *RedisStore) Load(ctx context.Context, key string) (Entry, bool, error) {
	data, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Entry{}, false, nil
		}
		return Entry{}, false, fmt.Errorf("redis get: %w", err)
	}

	var e Entry
	if err := msgpack.Unmarshal(data, &e); err != nil {
		return Entry{}, false, errors.Join(ErrDecodeFailed, err)
	}
	return e, true, nil
}

// Save writes the entry, replacing any previous value.
func (s *RedisStore) Save(ctx context.Context, e Entry) error {
	data, err := msgpack.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode entry: %w", err)
	}
	if err := s.client.Set(ctx, s.key(e.Key), data, s.retention).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

var _ Store = (*RedisStore)(nil)
