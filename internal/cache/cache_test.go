package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.UnixMilli(1_700_000_000_000)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestCache_LazyExpiry(t *testing.T) {
	clock := newFakeClock()
	store := NewMemoryStore()
	c := New(WithStore(store), WithClock(clock.Now))
	ctx := context.Background()

	c.Set(ctx, "dexscreener:tokens:1", []byte("v1"))

	clock.Advance(59 * time.Second)
	got, ok := c.Get(ctx, "dexscreener:tokens:1")
	require.True(t, ok, "entry should be fresh before TTL")
	assert.Equal(t, []byte("v1"), got)

	clock.Advance(time.Second)
	_, ok = c.Get(ctx, "dexscreener:tokens:1")
	assert.False(t, ok, "entry at exactly TTL is expired")

	// Expired entries are not evicted.
	assert.Equal(t, 1, store.Len())

	c.Set(ctx, "dexscreener:tokens:1", []byte("v2"))
	got, ok = c.Get(ctx, "dexscreener:tokens:1")
	require.True(t, ok)
	assert.Equal(t, []byte("v2"), got)
}

func TestCache_CustomTTL(t *testing.T) {
	clock := newFakeClock()
	c := New(WithTTL(5*time.Second), WithClock(clock.Now))
	ctx := context.Background()

	assert.Equal(t, 5*time.Second, c.TTL())

	c.Set(ctx, "k", []byte("v"))
	clock.Advance(4 * time.Second)
	_, ok := c.Get(ctx, "k")
	assert.True(t, ok)

	clock.Advance(time.Second)
	_, ok = c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestCache_LastWriteWins(t *testing.T) {
	c := New()
	ctx := context.Background()

	c.Set(ctx, "k", []byte("first"))
	c.Set(ctx, "k", []byte("second"))

	got, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, []byte("second"), got)
}

func TestCache_ConcurrentAccess(t *testing.T) {
	c := New()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			c.Set(ctx, "shared", []byte("x"))
		}()
		go func() {
			defer wg.Done()
			c.Get(ctx, "shared")
		}()
	}
	wg.Wait()

	got, ok := c.Get(ctx, "shared")
	require.True(t, ok)
	assert.Equal(t, []byte("x"), got)
}

// failingStore errors on every call.
type failingStore struct{}

func (failingStore) Load(context.Context, string) (Entry, bool, error) {
	return Entry{}, false, errors.New("backend down")
}

func (failingStore) Save(context.Context, Entry) error {
	return errors.New("backend down")
}

func TestCache_BackendErrorIsMiss(t *testing.T) {
	c := New(WithStore(failingStore{}))
	ctx := context.Background()

	c.Set(ctx, "k", []byte("v"))
	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
}

type pairSnapshot struct {
	Pair      string
	Liquidity *float64
}

func TestLookupPut_RoundTrip(t *testing.T) {
	c := New()
	ctx := context.Background()
	liq := 1500.0

	Put(ctx, c, "dexscreener:best_pair:abc", pairSnapshot{Pair: "0xpair", Liquidity: &liq})

	got, ok := Lookup[pairSnapshot](ctx, c, "dexscreener:best_pair:abc")
	require.True(t, ok)
	assert.Equal(t, "0xpair", got.Pair)
	require.NotNil(t, got.Liquidity)
	assert.Equal(t, 1500.0, *got.Liquidity)

	_, ok = Lookup[pairSnapshot](ctx, c, "dexscreener:best_pair:missing")
	assert.False(t, ok)
}

func TestLookup_UndecodableIsMiss(t *testing.T) {
	c := New()
	ctx := context.Background()

	c.Set(ctx, "rpc:call:x", []byte{0xc1}) // reserved msgpack code

	_, ok := Lookup[pairSnapshot](ctx, c, "rpc:call:x")
	assert.False(t, ok)
}

func TestProviderOf(t *testing.T) {
	assert.Equal(t, "rpc", providerOf("rpc:batch:00ff"))
	assert.Equal(t, "unknown", providerOf("nokey"))
}
