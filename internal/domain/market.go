package domain

import "github.com/shopspring/decimal"

// LiveSource identifies the provider that produced live metrics.
type LiveSource string

const (
	LiveSourceNone        LiveSource = ""
	LiveSourceDexScreener LiveSource = "dexscreener"
	LiveSourceSubgraph    LiveSource = "subgraph"
)

// String returns the string representation of LiveSource.
func (s LiveSource) String() string {
	return string(s)
}

// TokenRef identifies one side of a trading pair.
type TokenRef struct {
	Address string `json:"address"`
	Symbol  string `json:"symbol,omitempty"`
	Name    string `json:"name,omitempty"`
}

// TxnCounts holds buy and sell transaction counts.
type TxnCounts struct {
	Buys  int64 `json:"buys"`
	Sells int64 `json:"sells"`
}

// LivePairMetrics is a normalized snapshot of one trading pair.
// Produced fresh per call, never kept beyond the cache TTL.
// Nil pointer fields mean the provider did not report the value.
type LivePairMetrics struct {
	PairAddress       string           `msgpack:"pair" json:"pairAddress,omitempty"`
	BaseToken         TokenRef         `msgpack:"base" json:"baseToken"`
	QuoteToken        TokenRef         `msgpack:"quote" json:"quoteToken"`
	PriceUSD          *decimal.Decimal `msgpack:"price_usd" json:"priceUsd"`
	PriceNative       *decimal.Decimal `msgpack:"price_native" json:"priceNative"`
	LiquidityUSD      *float64         `msgpack:"liquidity" json:"liquidityUsd"`
	Volume24hUSD      *float64         `msgpack:"volume_24h" json:"volume24h"`
	FDV               *float64         `msgpack:"fdv" json:"fdv"`
	MarketCapUSD      *float64         `msgpack:"market_cap" json:"marketCap"`
	PriceChange1hPct  *float64         `msgpack:"pc_1h" json:"priceChange1h"`
	PriceChange24hPct *float64         `msgpack:"pc_24h" json:"priceChange24h"`
	PriceChange7dPct  *float64         `msgpack:"pc_7d" json:"priceChange7d"`
	Txns24h           *TxnCounts       `msgpack:"txns_24h" json:"txns24h"`
	DexID             string           `msgpack:"dex" json:"dexId,omitempty"`
	ChainID           string           `msgpack:"chain" json:"chainId,omitempty"`
	URL               string           `msgpack:"url" json:"url,omitempty"`
	Source            LiveSource       `msgpack:"source" json:"source,omitempty"`
}

// Found reports whether a pair was resolved.
func (m LivePairMetrics) Found() bool {
	return m.PairAddress != "" || m.Source != LiveSourceNone
}

// SubgraphStats is the subset of token statistics the subgraph exposes.
type SubgraphStats struct {
	Address      string           `msgpack:"address"`
	Name         string           `msgpack:"name"`
	Symbol       string           `msgpack:"symbol"`
	PriceUSD     *decimal.Decimal `msgpack:"price_usd"`
	Volume24hUSD *float64         `msgpack:"volume_24h"`
	LiquidityUSD *float64         `msgpack:"liquidity"`
}

// Found reports whether the token entity existed in the subgraph.
func (s SubgraphStats) Found() bool {
	return s.Address != ""
}
