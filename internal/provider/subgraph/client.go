// Package subgraph reads token statistics from the DEX subgraph over GraphQL.
package subgraph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"pulse-token-board/internal/cache"
	"pulse-token-board/internal/domain"
	"pulse-token-board/internal/fetch"
	"pulse-token-board/internal/logging"
	"pulse-token-board/internal/observability"
)

// ProviderName labels cache keys, metrics and logs.
const ProviderName = "subgraph"

// DefaultURL is the PulseX subgraph endpoint.
const DefaultURL = "https://graph.pulsechain.com/subgraphs/name/pulsechain/pulsex"

// tokenStatsQuery fetches lifetime aggregates plus the latest daily snapshot.
const tokenStatsQuery = `query TokenStats($id: ID!) {
  token(id: $id) {
    id
    symbol
    name
    derivedUSD
    totalLiquidity
    tradeVolumeUSD
    dayData: tokenDayData(first: 1, orderBy: date, orderDirection: desc) {
      priceUSD
      dailyVolumeUSD
      totalLiquidity
    }
  }
}`

// GraphQLError is one entry of a GraphQL "errors" array.
type GraphQLError struct {
	Message string `json:"message"`
}

// QueryError wraps the errors a GraphQL response reported.
type QueryError struct {
	Errors []GraphQLError
}

func (e *QueryError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, ge := range e.Errors {
		msgs[i] = ge.Message
	}
	return "graphql: " + strings.Join(msgs, "; ")
}

type gqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type gqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []GraphQLError  `json:"errors"`
}

type tokenStatsData struct {
	Token *struct {
		ID             string    `json:"id"`
		Symbol         string    `json:"symbol"`
		Name           string    `json:"name"`
		DerivedUSD     bigString `json:"derivedUSD"`
		TotalLiquidity bigString `json:"totalLiquidity"`
		TradeVolumeUSD bigString `json:"tradeVolumeUSD"`
		DayData        []struct {
			PriceUSD       bigString `json:"priceUSD"`
			DailyVolumeUSD bigString `json:"dailyVolumeUSD"`
			TotalLiquidity bigString `json:"totalLiquidity"`
		} `json:"dayData"`
	} `json:"token"`
}

// bigString is a BigDecimal scalar, served as a JSON string.
type bigString string

func (b bigString) decimal() *decimal.Decimal {
	if b == "" {
		return nil
	}
	d, err := decimal.NewFromString(string(b))
	if err != nil {
		return nil
	}
	return &d
}

func (b bigString) float() *float64 {
	if b == "" {
		return nil
	}
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return nil
	}
	return &f
}

// Client queries the subgraph through the shared fetcher and cache.
type Client struct {
	endpoint string
	fetcher  *fetch.Fetcher
	cache    *cache.Cache
	group    singleflight.Group
	logger   logrus.FieldLogger
}

// Option configures Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// New creates a subgraph client.
func New(endpoint string, f *fetch.Fetcher, ch *cache.Cache, opts ...Option) *Client {
	c := &Client{
		endpoint: endpoint,
		fetcher:  f,
		cache:    ch,
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

// Query runs a GraphQL query and decodes its data into out.
// A non-empty errors array is returned as *QueryError.
func (c *Client) Query(ctx context.Context, name, query string, vars map[string]any, out any) error {
	body, err := json.Marshal(gqlRequest{Query: query, Variables: vars})
	if err != nil {
		return fmt.Errorf("marshal query: %w", err)
	}

	var resp gqlResponse
	req := fetch.Request{
		Name:   ProviderName + "." + name,
		Method: http.MethodPost,
		URL:    c.endpoint,
		Body:   body,
	}
	if err := c.fetcher.JSON(ctx, req, &resp); err != nil {
		return err
	}
	if len(resp.Errors) > 0 {
		return &QueryError{Errors: resp.Errors}
	}
	if len(resp.Data) == 0 {
		return fmt.Errorf("%w: no data", fetch.ErrMalformed)
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("%w: %w", fetch.ErrMalformed, err)
	}
	return nil
}

// TokenStats returns the token's latest price, volume and liquidity.
//
// The most recent daily snapshot wins; each missing field falls back to the
// token's lifetime aggregate. Any provider error yields empty stats.
func (c *Client) TokenStats(ctx context.Context, address string) domain.SubgraphStats {
	id := domain.NormalizeAddress(address)
	if id == "" {
		return domain.SubgraphStats{}
	}

	key := cache.Key(ProviderName, "token_stats", id)
	if stats, ok := cache.Lookup[domain.SubgraphStats](ctx, c.cache, key); ok {
		observability.RecordProviderCall(ProviderName, "token_stats", "cached")
		return stats
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		var data tokenStatsData
		if err := c.Query(ctx, "token_stats", tokenStatsQuery, map[string]any{"id": id}, &data); err != nil {
			return nil, err
		}
		stats := toStats(data)
		cache.Put(ctx, c.cache, key, stats)
		return stats, nil
	})
	if err != nil {
		kind := fetch.Kind(err)
		var qErr *QueryError
		if errors.As(err, &qErr) {
			kind = "graphql"
		}
		observability.RecordProviderCall(ProviderName, "token_stats", "error")
		observability.RecordProviderError(ProviderName, kind)
		c.logger.WithFields(logrus.Fields{
			"address": id,
			"kind":    kind,
		}).WithError(err).Warn("subgraph query failed")
		return domain.SubgraphStats{}
	}

	stats := v.(domain.SubgraphStats)
	outcome := "ok"
	if !stats.Found() {
		outcome = "empty"
	}
	observability.RecordProviderCall(ProviderName, "token_stats", outcome)
	return stats
}

func toStats(data tokenStatsData) domain.SubgraphStats {
	t := data.Token
	if t == nil {
		return domain.SubgraphStats{}
	}

	stats := domain.SubgraphStats{
		Address:      domain.NormalizeAddress(t.ID),
		Name:         t.Name,
		Symbol:       t.Symbol,
		PriceUSD:     t.DerivedUSD.decimal(),
		Volume24hUSD: t.TradeVolumeUSD.float(),
		LiquidityUSD: t.TotalLiquidity.float(),
	}

	if len(t.DayData) > 0 {
		day := t.DayData[0]
		if p := day.PriceUSD.decimal(); p != nil {
			stats.PriceUSD = p
		}
		if v := day.DailyVolumeUSD.float(); v != nil {
			stats.Volume24hUSD = v
		}
		if l := day.TotalLiquidity.float(); l != nil {
			stats.LiquidityUSD = l
		}
	}

	return stats
}

// ToMetrics converts subgraph stats into live metrics attributed to the subgraph.
func ToMetrics(s domain.SubgraphStats) domain.LivePairMetrics {
	if !s.Found() {
		return domain.LivePairMetrics{}
	}
	return domain.LivePairMetrics{
		BaseToken:    domain.TokenRef{Address: s.Address, Name: s.Name, Symbol: s.Symbol},
		PriceUSD:     s.PriceUSD,
		LiquidityUSD: s.LiquidityUSD,
		Volume24hUSD: s.Volume24hUSD,
		Source:       domain.LiveSourceSubgraph,
	}
}
