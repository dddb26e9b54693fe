package domain

import "github.com/shopspring/decimal"

// TokenRecord is the reconciled view of a token: catalog identity plus live market data.
// Prices and percentages are null when unknown. Amounts and counts default to zero.
type TokenRecord struct {
	Address         string `json:"address"`
	Name            string `json:"name"`
	Symbol          string `json:"symbol"`
	ImageRef        string `json:"imageRef,omitempty"`
	LogoURL         string `json:"logoUrl,omitempty"`
	Description     string `json:"description,omitempty"`
	Web             string `json:"web,omitempty"`
	Telegram        string `json:"telegram,omitempty"`
	Twitter         string `json:"twitter,omitempty"`
	CreatorAddress  string `json:"creatorAddress,omitempty"`
	PairAddressHint string `json:"pairAddressHint,omitempty"`
	CreatedAt       int64  `json:"createdAt,omitempty"` // unix seconds

	Price          *decimal.Decimal `json:"price"`
	PriceNative    *decimal.Decimal `json:"priceNative"`
	Liquidity      float64          `json:"liquidity"`
	Volume24h      float64          `json:"volume24h"`
	MarketCap      float64          `json:"marketCap"`
	FDV            float64          `json:"fdv"`
	PriceChange1h  *float64         `json:"priceChange1h"`
	PriceChange24h *float64         `json:"priceChange24h"`
	PriceChange7d  *float64         `json:"priceChange7d"`
	Txns24h        TxnCounts        `json:"txns24h"`

	PairAddress string     `json:"pairAddress,omitempty"`
	DexID       string     `json:"dexId,omitempty"`
	ChainID     string     `json:"chainId,omitempty"`
	URL         string     `json:"url,omitempty"`
	QuoteToken  *TokenRef  `json:"quoteToken,omitempty"`
	LiveSource  LiveSource `json:"liveSource,omitempty"`
}

// HasLiveData reports whether any live provider contributed to the record.
func (r TokenRecord) HasLiveData() bool {
	return r.LiveSource != LiveSourceNone
}

// PriceFloat returns the price as float64, or 0 when unknown.
func (r TokenRecord) PriceFloat() float64 {
	if r.Price == nil {
		return 0
	}
	f, _ := r.Price.Float64()
	return f
}
