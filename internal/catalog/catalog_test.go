package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pulse-token-board/internal/domain"
	"pulse-token-board/internal/fetch"
	"pulse-token-board/internal/storage/memory"
)

const sampleJSON = `[
  {"address": "0xABC", "name": "Foo", "symbol": "FOO", "image_cid": "bafyfoo", "createdAt": "1700000000"},
  {"address": "0xdef", "name": "", "symbol": "BAR"},
  {"address": "", "name": "Nameless", "symbol": "NIL"},
  {"address": "0xabc", "name": "Dup", "symbol": "DUP"},
  {"address": "0x123", "name": "Baz", "symbol": "BAZ", "pair_address": "0xpair", "createdAt": 1710000000}
]`

type countingSource struct {
	calls atomic.Int32
	err   error
}

func (s *countingSource) Name() string { return "counting" }

func (s *countingSource) Load(ctx context.Context) ([]domain.CatalogEntry, error) {
	s.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.err != nil {
		return nil, s.err
	}
	return []domain.CatalogEntry{{Address: "0x1", Name: "One", Symbol: "ONE"}}, nil
}

func writeCatalog(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tokens.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestCatalog_FileSource(t *testing.T) {
	c := New(FileSource{Path: writeCatalog(t, sampleJSON)}, nil)
	ctx := context.Background()

	all := c.All(ctx)
	require.Len(t, all, 3, "empty address and duplicate are dropped")
	assert.Equal(t, []string{"0xabc", "0xdef", "0x123"}, []string{all[0].Address, all[1].Address, all[2].Address})
	assert.Equal(t, domain.UnixSeconds(1700000000), all[0].CreatedAt)
	assert.Equal(t, "Foo", all[0].Name, "first occurrence wins")

	e, ok := c.ByAddress(ctx, "0XaBc")
	require.True(t, ok)
	assert.Equal(t, "FOO", e.Symbol)
	assert.Equal(t, domain.IPFSGateway+"bafyfoo", e.LogoURL())

	_, ok = c.ByAddress(ctx, "0xnope")
	assert.False(t, ok)
}

func TestCatalog_Graduated(t *testing.T) {
	c := New(FileSource{Path: writeCatalog(t, sampleJSON)}, nil)

	grad := c.Graduated(context.Background())
	require.Len(t, grad, 2)
	assert.Equal(t, "0xabc", grad[0].Address)
	assert.Equal(t, "0x123", grad[1].Address)
}

func TestCatalog_Filter(t *testing.T) {
	c := New(FileSource{Path: writeCatalog(t, sampleJSON)}, nil)

	got := c.Filter(context.Background(), []string{"0x123", "0XABC", "0xmissing", ""})
	require.Len(t, got, 2)
	// Catalog order, not request order.
	assert.Equal(t, "0xabc", got[0].Address)
	assert.Equal(t, "0x123", got[1].Address)
}

func TestCatalog_MissingFileIsEmpty(t *testing.T) {
	c := New(FileSource{Path: filepath.Join(t.TempDir(), "absent.json")}, nil)

	assert.Empty(t, c.All(context.Background()))
	assert.Equal(t, 0, c.Len(context.Background()))
}

func TestCatalog_MalformedFileIsEmpty(t *testing.T) {
	c := New(FileSource{Path: writeCatalog(t, `{"not": "an array"}`)}, nil)

	assert.Empty(t, c.All(context.Background()))
}

func TestCatalog_LoadsOnce(t *testing.T) {
	src := &countingSource{}
	c := New(src, nil)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_ = c.All(ctx)
		_, _ = c.ByAddress(ctx, "0x1")
	}
	assert.Equal(t, int32(1), src.calls.Load())
}

func TestCatalog_FailureNotRetried(t *testing.T) {
	src := &countingSource{err: errors.New("boom")}
	c := New(src, nil)
	ctx := context.Background()

	assert.Empty(t, c.All(ctx))
	assert.Empty(t, c.All(ctx))
	assert.Equal(t, int32(1), src.calls.Load())
}

func TestCatalog_CancelledFirstCallerStillLoads(t *testing.T) {
	src := &countingSource{}
	c := New(src, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.Len(t, c.All(ctx), 1)
	entry, ok := c.ByAddress(context.Background(), "0x1")
	require.True(t, ok)
	assert.Equal(t, "One", entry.Name)
	assert.Equal(t, int32(1), src.calls.Load())
}

func TestCatalog_AllReturnsCopy(t *testing.T) {
	c := New(StaticSource{{Address: "0x1", Name: "One", Symbol: "ONE"}}, nil)
	ctx := context.Background()

	all := c.All(ctx)
	all[0].Name = "mutated"

	e, _ := c.ByAddress(ctx, "0x1")
	assert.Equal(t, "One", e.Name)
}

func TestHTTPSource_VersionParam(t *testing.T) {
	var gotVersion string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotVersion = r.URL.Query().Get("v")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleJSON))
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL+"/pump_tokens.json", fetch.New(fetch.WithSleep(func(context.Context, time.Duration) error { return nil })))
	src.Version = "42"

	entries, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, entries, 5)
	assert.Equal(t, "42", gotVersion)
}

func TestHTTPSource_StatusIsEmptyCatalog(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(NewHTTPSource(srv.URL, fetch.New()), nil)
	assert.Empty(t, c.All(context.Background()))
}

func TestStoreSource(t *testing.T) {
	store := memory.NewCatalogStore()
	require.NoError(t, store.Upsert(context.Background(), []domain.CatalogEntry{
		{Address: "0xB", Name: "B", Symbol: "B"},
		{Address: "0xA", Name: "A", Symbol: "A"},
	}))

	c := New(StoreSource{Store: store}, nil)
	all := c.All(context.Background())
	require.Len(t, all, 2)
	assert.Equal(t, "0xb", all[0].Address)
	assert.Equal(t, "0xa", all[1].Address)
}
