// Package dexscreener resolves live pair metrics from the DEX aggregator API.
package dexscreener

import (
	"context"
	"fmt"
	"net/url"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"pulse-token-board/internal/cache"
	"pulse-token-board/internal/domain"
	"pulse-token-board/internal/fetch"
	"pulse-token-board/internal/logging"
	"pulse-token-board/internal/observability"
)

// ProviderName labels cache keys, metrics and logs.
const ProviderName = "dexscreener"

// DefaultBaseURL is the public API root.
const DefaultBaseURL = "https://api.dexscreener.com/latest/dex"

// Client queries the aggregator through the shared fetcher and cache.
// Provider failures are logged and reported as "no data", never returned.
type Client struct {
	baseURL string
	chain   domain.ChainInfo
	fetcher *fetch.Fetcher
	cache   *cache.Cache
	group   singleflight.Group
	logger  logrus.FieldLogger
}

// Option configures Client.
type Option func(*Client)

// WithBaseURL overrides the API root.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithChain sets the chain pairs are filtered to.
func WithChain(chain domain.ChainInfo) Option {
	return func(c *Client) {
		c.chain = chain
	}
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// New creates a client. A nil fetcher or cache gets a default instance.
func New(f *fetch.Fetcher, ch *cache.Cache, opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		chain:   domain.PulseChain,
		fetcher: f,
		cache:   ch,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.fetcher == nil {
		c.fetcher = fetch.New()
	}
	if c.cache == nil {
		c.cache = cache.New()
	}
	c.logger = logging.OrDiscard(c.logger).WithField("provider", ProviderName)
	return c
}

// Chain returns the chain the client filters to.
func (c *Client) Chain() domain.ChainInfo {
	return c.chain
}

// BestPair resolves the single best pair for token.
//
// A known pair address is tried first and wins when it returns data.
// Otherwise the token's pairs on the configured chain are ranked by USD
// liquidity. No candidates yields empty metrics, not an error.
func (c *Client) BestPair(ctx context.Context, token, pairHint string) domain.LivePairMetrics {
	token = domain.NormalizeAddress(token)
	if token == "" {
		return domain.LivePairMetrics{}
	}

	if hint := domain.NormalizeAddress(pairHint); hint != "" {
		if m, ok := c.Pair(ctx, hint); ok {
			if m.BaseToken.Address == "" || domain.SameAddress(m.BaseToken.Address, token) {
				return m
			}
			c.logger.WithFields(logrus.Fields{
				"address": token,
				"pair":    hint,
				"base":    m.BaseToken.Address,
			}).Warn("pair hint trades a different token, ignoring")
		}
	}

	pairs, ok := c.TokenPairs(ctx, token)
	if !ok {
		return domain.LivePairMetrics{}
	}

	best, found := SelectBest(Candidates(pairs, c.chain, token))
	if !found {
		observability.RecordProviderCall(ProviderName, "best_pair", "empty")
		return domain.LivePairMetrics{}
	}
	return best
}

// Pair fetches one pair by address on the configured chain.
func (c *Client) Pair(ctx context.Context, pairAddress string) (domain.LivePairMetrics, bool) {
	pairAddress = domain.NormalizeAddress(pairAddress)
	u := fmt.Sprintf("%s/pairs/%s/%s", c.baseURL, url.PathEscape(c.chain.ID), url.PathEscape(pairAddress))

	pairs, ok := c.cached(ctx, "pairs", []string{c.chain.ID, pairAddress}, u)
	if !ok {
		return domain.LivePairMetrics{}, false
	}
	for _, p := range pairs {
		if p.PairAddress == "" || p.PairAddress == pairAddress {
			return p, true
		}
	}
	return domain.LivePairMetrics{}, false
}

// TokenPairs returns every pair the aggregator lists for token, across chains.
// ok is false when the provider failed.
func (c *Client) TokenPairs(ctx context.Context, token string) ([]domain.LivePairMetrics, bool) {
	token = domain.NormalizeAddress(token)
	u := fmt.Sprintf("%s/tokens/%s", c.baseURL, url.PathEscape(token))
	return c.cached(ctx, "tokens", []string{token}, u)
}

// Search returns pairs matching query on the configured chain, one per base token.
func (c *Client) Search(ctx context.Context, query string) []domain.LivePairMetrics {
	if query == "" {
		return nil
	}
	q := url.Values{}
	q.Set("q", query)
	q.Set("chainId", c.chain.ID)
	u := c.baseURL + "/search?" + q.Encode()

	pairs, ok := c.cached(ctx, "search", []string{c.chain.ID, query}, u)
	if !ok {
		return nil
	}
	return DedupeByBase(pairs, c.chain)
}

// cached serves a normalized pair list from the cache or fetches and stores it.
// Identical concurrent requests share one round trip. Failures are not cached.
func (c *Client) cached(ctx context.Context, method string, params any, u string) ([]domain.LivePairMetrics, bool) {
	key := cache.Key(ProviderName, method, params)
	if pairs, ok := cache.Lookup[[]domain.LivePairMetrics](ctx, c.cache, key); ok {
		observability.RecordProviderCall(ProviderName, method, "cached")
		return pairs, true
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		var resp pairsResponse
		req := fetch.Request{Name: ProviderName + "." + method, URL: u}
		if err := c.fetcher.JSON(ctx, req, &resp); err != nil {
			return nil, err
		}

		wire := resp.all()
		pairs := make([]domain.LivePairMetrics, 0, len(wire))
		for _, p := range wire {
			pairs = append(pairs, p.normalize())
		}
		cache.Put(ctx, c.cache, key, pairs)
		return pairs, nil
	})
	if err != nil {
		kind := fetch.Kind(err)
		observability.RecordProviderCall(ProviderName, method, "error")
		observability.RecordProviderError(ProviderName, kind)
		c.logger.WithFields(logrus.Fields{
			"method": method,
			"url":    u,
			"kind":   kind,
		}).WithError(err).Warn("dexscreener request failed")
		return nil, false
	}

	pairs := v.([]domain.LivePairMetrics)
	outcome := "ok"
	if len(pairs) == 0 {
		outcome = "empty"
	}
	observability.RecordProviderCall(ProviderName, method, outcome)
	return pairs, true
}
