package token

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pulse-token-board/internal/cache"
	"pulse-token-board/internal/catalog"
	"pulse-token-board/internal/domain"
	"pulse-token-board/internal/fetch"
	"pulse-token-board/internal/provider/dexscreener"
)

// newDexServer serves one pulsechain pair for 0xabc and counts requests.
func newDexServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != "/tokens/0xabc" {
			_, _ = w.Write([]byte(`{"pairs":[]}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"pairs": []map[string]any{{
				"chainId":     "pulsechain",
				"pairAddress": "0xpair",
				"baseToken":   map[string]any{"address": "0xabc", "name": "Other", "symbol": "OTH"},
				"quoteToken":  map[string]any{"address": "0xwpls", "symbol": "WPLS"},
				"priceUsd":    "0.05",
				"liquidity":   map[string]any{"usd": 20000},
				"volume":      map[string]any{"h24": 1200},
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newDexService(t *testing.T, baseURL string) *Service {
	t.Helper()
	noSleep := func(context.Context, time.Duration) error { return nil }
	client := dexscreener.New(fetch.New(fetch.WithSleep(noSleep)), cache.New(), dexscreener.WithBaseURL(baseURL))

	cat := catalog.New(catalog.StaticSource{{Address: "0xabc", Name: "Foo", Symbol: "FOO"}}, nil)
	svc, err := NewService(cat, client)
	require.NoError(t, err)
	return svc
}

func TestGetCombinedTokenData_EndToEnd(t *testing.T) {
	var hits atomic.Int32
	svc := newDexService(t, newDexServer(t, &hits).URL)

	rec := svc.GetCombinedTokenData(context.Background(), Address("0xabc"))

	assert.Equal(t, "0xabc", rec.Address)
	assert.Equal(t, "Foo", rec.Name)
	assert.Equal(t, "FOO", rec.Symbol)
	require.NotNil(t, rec.Price)
	assert.Equal(t, "0.05", rec.Price.String())
	assert.Equal(t, 20000.0, rec.Liquidity)
	assert.Equal(t, 1200.0, rec.Volume24h)

	b, err := json.Marshal(rec)
	require.NoError(t, err)
	var wire map[string]any
	require.NoError(t, json.Unmarshal(b, &wire))
	assert.Equal(t, "0.05", wire["price"])
	assert.Nil(t, wire["priceChange24h"])
}

func TestGetCombinedTokenData_CachedWithinTTL(t *testing.T) {
	var hits atomic.Int32
	svc := newDexService(t, newDexServer(t, &hits).URL)
	ctx := context.Background()

	first := svc.GetCombinedTokenData(ctx, Address("0xabc"))
	second := svc.GetCombinedTokenData(ctx, Address("0xABC"))

	assert.Equal(t, int32(1), hits.Load(), "second call must be served from cache")

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.JSONEq(t, string(a), string(b))
}

func TestGetCombinedTokenData_ProviderDownIsCatalogOnly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)
	svc := newDexService(t, srv.URL)

	rec := svc.GetCombinedTokenData(context.Background(), Address("0xabc"))
	assert.Equal(t, "Foo", rec.Name)
	assert.Nil(t, rec.Price)
	assert.Equal(t, domain.LiveSourceNone, rec.LiveSource)
}
