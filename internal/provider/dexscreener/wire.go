package dexscreener

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"pulse-token-board/internal/domain"
)

// pairsResponse is the envelope of /tokens, /pairs and /search.
// Older /pairs responses carry a single "pair" object.
type pairsResponse struct {
	SchemaVersion string     `json:"schemaVersion"`
	Pairs         []wirePair `json:"pairs"`
	Pair          *wirePair  `json:"pair"`
}

func (r pairsResponse) all() []wirePair {
	if len(r.Pairs) == 0 && r.Pair != nil {
		return []wirePair{*r.Pair}
	}
	return r.Pairs
}

type wireToken struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
}

type wireTxns struct {
	Buys  flexFloat `json:"buys"`
	Sells flexFloat `json:"sells"`
}

type wireLiquidity struct {
	USD   flexFloat `json:"usd"`
	Base  flexFloat `json:"base"`
	Quote flexFloat `json:"quote"`
}

// wirePair tolerates the shapes the aggregator has served over time:
// nested objects keyed by timeframe, flat scalar fields, and numbers sent as strings.
type wirePair struct {
	ChainID      string              `json:"chainId"`
	DexID        string              `json:"dexId"`
	URL          string              `json:"url"`
	PairAddress  string              `json:"pairAddress"`
	BaseToken    wireToken           `json:"baseToken"`
	QuoteToken   wireToken           `json:"quoteToken"`
	PriceNative  flexString          `json:"priceNative"`
	PriceUSD     flexString          `json:"priceUsd"`
	Txns         map[string]wireTxns `json:"txns"`
	Txns24h      *wireTxns           `json:"txns24h"`
	Volume       flexTimeframes      `json:"volume"`
	Volume24h    flexFloat           `json:"volume24h"`
	Liquidity    *wireLiquidity      `json:"liquidity"`
	LiquidityUSD flexFloat           `json:"liquidityUsd"`
	FDV          flexFloat           `json:"fdv"`
	MarketCap    flexFloat           `json:"marketCap"`

	PriceChange    flexTimeframes `json:"priceChange"`
	PriceChange1h  flexTimeframes `json:"priceChange1h"`
	PriceChange24h flexTimeframes `json:"priceChange24h"`
	PriceChange7d  flexTimeframes `json:"priceChange7d"`
}

// normalize converts a wire pair into canonical metrics, one scalar per timeframe.
func (p wirePair) normalize() domain.LivePairMetrics {
	m := domain.LivePairMetrics{
		PairAddress: domain.NormalizeAddress(p.PairAddress),
		BaseToken: domain.TokenRef{
			Address: domain.NormalizeAddress(p.BaseToken.Address),
			Name:    p.BaseToken.Name,
			Symbol:  p.BaseToken.Symbol,
		},
		QuoteToken: domain.TokenRef{
			Address: domain.NormalizeAddress(p.QuoteToken.Address),
			Name:    p.QuoteToken.Name,
			Symbol:  p.QuoteToken.Symbol,
		},
		PriceUSD:    p.PriceUSD.decimal(),
		PriceNative: p.PriceNative.decimal(),
		FDV:         p.FDV.v,
		DexID:       p.DexID,
		ChainID:     p.ChainID,
		URL:         p.URL,
		Source:      domain.LiveSourceDexScreener,
	}

	if p.Liquidity != nil && p.Liquidity.USD.v != nil {
		m.LiquidityUSD = p.Liquidity.USD.v
	} else {
		m.LiquidityUSD = p.LiquidityUSD.v
	}

	m.Volume24hUSD = firstFloat(p.Volume.get("h24"), p.Volume24h.v)

	// Market cap is not reported for every pair; fully diluted value stands in.
	m.MarketCapUSD = firstFloat(p.MarketCap.v, p.FDV.v)

	m.PriceChange1hPct = firstFloat(p.PriceChange.get("h1"), p.PriceChange1h.get("h1"), p.PriceChange1h.scalar)
	m.PriceChange24hPct = firstFloat(p.PriceChange.get("h24"), p.PriceChange.scalar,
		p.PriceChange24h.get("h24"), p.PriceChange24h.scalar)
	m.PriceChange7dPct = firstFloat(p.PriceChange.get("h7"), p.PriceChange.get("d7"),
		p.PriceChange7d.get("h7"), p.PriceChange7d.scalar)

	if t, ok := p.Txns["h24"]; ok {
		m.Txns24h = t.counts()
	} else if p.Txns24h != nil {
		m.Txns24h = p.Txns24h.counts()
	}

	return m
}

func (t wireTxns) counts() *domain.TxnCounts {
	c := &domain.TxnCounts{}
	if t.Buys.v != nil {
		c.Buys = int64(*t.Buys.v)
	}
	if t.Sells.v != nil {
		c.Sells = int64(*t.Sells.v)
	}
	return c
}

func firstFloat(vals ...*float64) *float64 {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}

// flexFloat decodes a JSON number, a numeric string, or null.
type flexFloat struct {
	v *float64
}

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	f.v = parseNumber(data)
	return nil
}

// flexString decodes a JSON string or number as its text.
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = flexString(strings.TrimSpace(str))
		return nil
	}
	*s = flexString(data)
	return nil
}

func (s flexString) decimal() *decimal.Decimal {
	if s == "" {
		return nil
	}
	d, err := decimal.NewFromString(string(s))
	if err != nil {
		return nil
	}
	return &d
}

// flexTimeframes decodes either an object keyed by timeframe ({"h1":..,"h24":..})
// or a bare scalar.
type flexTimeframes struct {
	frames map[string]float64
	scalar *float64
}

func (t *flexTimeframes) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var raw map[string]json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil
		}
		t.frames = make(map[string]float64, len(raw))
		for k, v := range raw {
			if n := parseNumber(v); n != nil {
				t.frames[k] = *n
			}
		}
		return nil
	}
	t.scalar = parseNumber(data)
	return nil
}

func (t flexTimeframes) get(frame string) *float64 {
	if v, ok := t.frames[frame]; ok {
		return &v
	}
	return nil
}

func parseNumber(data []byte) *float64 {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	s := string(data)
	if data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}
