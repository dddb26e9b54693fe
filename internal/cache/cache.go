// Package cache provides a TTL cache for provider results.
//
// Entries are checked lazily: an entry older than the TTL is treated as
// absent on read and is never actively evicted. The next successful fetch
// overwrites it. Backend failures degrade to a miss so a broken cache
// never fails a fetch.
package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"pulse-token-board/internal/logging"
	"pulse-token-board/internal/observability"
)

// DefaultTTL is the freshness window for cached provider results.
const DefaultTTL = 60 * time.Second

// ErrDecodeFailed is returned when a cached payload cannot be decoded.
var ErrDecodeFailed = errors.New("failed to decode cached value")

// Entry is one stored value with the time it was written.
type Entry struct {
	Key        string `msgpack:"k"`
	Value      []byte `msgpack:"v"`
	StoredAtMs int64  `msgpack:"t"`
}

// Store is a cache backend. Load reports ok=false for absent keys.
type Store interface {
	Load(ctx context.Context, key string) (Entry, bool, error)
	Save(ctx context.Context, e Entry) error
}

// Clock returns the current time.
type Clock func() time.Time

// Cache checks entry freshness against a fixed TTL.
type Cache struct {
	store  Store
	ttl    time.Duration
	now    Clock
	logger logrus.FieldLogger
}

// Option configures Cache.
type Option func(*Cache)

// WithTTL sets the freshness window.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		c.ttl = ttl
	}
}

// WithClock sets the time source.
func WithClock(now Clock) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// WithStore sets the backend.
func WithStore(s Store) Option {
	return func(c *Cache) {
		c.store = s
	}
}

// WithLogger sets the logger for backend errors.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Cache) {
		c.logger = l
	}
}

// New creates a cache. Defaults: in-memory store, 60s TTL, wall clock.
func New(opts ...Option) *Cache {
	c := &Cache{
		ttl: DefaultTTL,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.store == nil {
		c.store = NewMemoryStore()
	}
	c.logger = logging.OrDiscard(c.logger)
	return c
}

// TTL returns the freshness window.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Fresh reports whether e is still within the TTL.
func (c *Cache) Fresh(e Entry) bool {
	return c.now().UnixMilli()-e.StoredAtMs < c.ttl.Milliseconds()
}

// Get returns the value for key if present and fresh.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	provider := providerOf(key)

	e, ok, err := c.store.Load(ctx, key)
	if err != nil {
		observability.RecordCacheError("load")
		c.logger.WithError(err).WithField("key", key).Warn("cache load failed")
		observability.RecordCacheLookup(provider, "miss")
		return nil, false
	}
	if !ok {
		observability.RecordCacheLookup(provider, "miss")
		return nil, false
	}
	if !c.Fresh(e) {
		observability.RecordCacheLookup(provider, "stale")
		return nil, false
	}

	observability.RecordCacheLookup(provider, "hit")
	return e.Value, true
}

// Set stores value under key, stamped with the current time.
// Concurrent writes to the same key are last-write-wins.
func (c *Cache) Set(ctx context.Context, key string, value []byte) {
	e := Entry{Key: key, Value: value, StoredAtMs: c.now().UnixMilli()}
	if err := c.store.Save(ctx, e); err != nil {
		observability.RecordCacheError("save")
		c.logger.WithError(err).WithField("key", key).Warn("cache save failed")
	}
}

// providerOf extracts the provider label from a key built by Key.
func providerOf(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return "unknown"
}
