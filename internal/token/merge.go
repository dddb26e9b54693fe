package token

import (
	"errors"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	"pulse-token-board/internal/domain"
)

// Origin names where a partial record came from.
type Origin string

const (
	OriginCatalog  Origin = "catalog"
	OriginDex      Origin = "dex"
	OriginSubgraph Origin = "subgraph"
)

// ErrInvalidPrecedence is returned by Precedence.Validate.
var ErrInvalidPrecedence = errors.New("invalid precedence")

// Precedence lists, per field group, the origins consulted in order.
// The first origin with a present value wins.
type Precedence struct {
	Identity []Origin // name, symbol, image, socials
	Market   []Origin // prices, amounts, pair fields
}

// DefaultPrecedence is the canonical merge order.
var DefaultPrecedence = Precedence{
	Identity: []Origin{OriginCatalog, OriginDex, OriginSubgraph},
	Market:   []Origin{OriginDex, OriginSubgraph},
}

// Validate rejects empty groups, duplicates and a catalog origin for market fields.
func (p Precedence) Validate() error {
	if len(p.Identity) == 0 || len(p.Market) == 0 {
		return fmt.Errorf("%w: empty field group", ErrInvalidPrecedence)
	}
	if slices.Contains(p.Market, OriginCatalog) {
		return fmt.Errorf("%w: catalog cannot supply market fields", ErrInvalidPrecedence)
	}
	for _, group := range [][]Origin{p.Identity, p.Market} {
		seen := make(map[Origin]bool, len(group))
		for _, o := range group {
			if seen[o] {
				return fmt.Errorf("%w: duplicate origin %q", ErrInvalidPrecedence, o)
			}
			seen[o] = true
		}
	}
	return nil
}

// Partial is one origin's contribution to a TokenRecord. Nil fields are absent.
type Partial struct {
	Origin Origin
	Source domain.LiveSource

	Address         *string
	Name            *string
	Symbol          *string
	ImageRef        *string
	LogoURL         *string
	Description     *string
	Web             *string
	Telegram        *string
	Twitter         *string
	CreatorAddress  *string
	PairAddressHint *string
	CreatedAt       *int64

	Price          *decimal.Decimal
	PriceNative    *decimal.Decimal
	Liquidity      *float64
	Volume24h      *float64
	MarketCap      *float64
	FDV            *float64
	PriceChange1h  *float64
	PriceChange24h *float64
	PriceChange7d  *float64
	Txns24h        *domain.TxnCounts
	PairAddress    *string
	DexID          *string
	ChainID        *string
	URL            *string
	QuoteToken     *domain.TokenRef
}

// FromEntry builds the catalog partial. It never carries market fields.
func FromEntry(e domain.CatalogEntry) Partial {
	p := Partial{
		Origin:          OriginCatalog,
		Address:         str(domain.NormalizeAddress(e.Address)),
		Name:            str(e.Name),
		Symbol:          str(e.Symbol),
		ImageRef:        str(e.ImageRef()),
		LogoURL:         str(e.LogoURL()),
		Description:     str(e.Description),
		Web:             str(e.Web),
		Telegram:        str(e.Telegram),
		Twitter:         str(e.Twitter),
		CreatorAddress:  str(e.CreatorAddress),
		PairAddressHint: str(e.PairAddressHint),
	}
	if e.CreatedAt > 0 {
		created := int64(e.CreatedAt)
		p.CreatedAt = &created
	}
	return p
}

// FromMetrics builds a live partial attributed to the metrics' source.
func FromMetrics(m domain.LivePairMetrics) Partial {
	origin := OriginDex
	if m.Source == domain.LiveSourceSubgraph {
		origin = OriginSubgraph
	}

	p := Partial{
		Origin:         origin,
		Source:         m.Source,
		Address:        str(domain.NormalizeAddress(m.BaseToken.Address)),
		Name:           str(m.BaseToken.Name),
		Symbol:         str(m.BaseToken.Symbol),
		Price:          m.PriceUSD,
		PriceNative:    m.PriceNative,
		Liquidity:      m.LiquidityUSD,
		Volume24h:      m.Volume24hUSD,
		MarketCap:      m.MarketCapUSD,
		FDV:            m.FDV,
		PriceChange1h:  m.PriceChange1hPct,
		PriceChange24h: m.PriceChange24hPct,
		PriceChange7d:  m.PriceChange7dPct,
		Txns24h:        m.Txns24h,
		PairAddress:    str(m.PairAddress),
		DexID:          str(m.DexID),
		ChainID:        str(m.ChainID),
		URL:            str(m.URL),
	}
	if m.QuoteToken.Address != "" {
		quote := m.QuoteToken
		p.QuoteToken = &quote
	}
	return p
}

// Merge combines the static partial with live partials under p.
// Missing prices and percentages stay nil; missing amounts and counts are zero.
func Merge(static Partial, live []Partial, p Precedence) domain.TokenRecord {
	parts := make(map[Origin]*Partial, len(live)+1)
	static.Origin = OriginCatalog
	parts[OriginCatalog] = &static
	for i := range live {
		if live[i].Origin == OriginCatalog {
			continue
		}
		if _, dup := parts[live[i].Origin]; !dup {
			parts[live[i].Origin] = &live[i]
		}
	}

	id := func(get func(*Partial) *string) string {
		return deref(pick(parts, p.Identity, get))
	}
	mkt := func(get func(*Partial) *float64) float64 {
		return deref(pick(parts, p.Market, get))
	}
	pct := func(get func(*Partial) *float64) *float64 {
		return clone(pick(parts, p.Market, get))
	}

	rec := domain.TokenRecord{
		Address:         id(func(x *Partial) *string { return x.Address }),
		Name:            id(func(x *Partial) *string { return x.Name }),
		Symbol:          id(func(x *Partial) *string { return x.Symbol }),
		ImageRef:        id(func(x *Partial) *string { return x.ImageRef }),
		LogoURL:         id(func(x *Partial) *string { return x.LogoURL }),
		Description:     id(func(x *Partial) *string { return x.Description }),
		Web:             id(func(x *Partial) *string { return x.Web }),
		Telegram:        id(func(x *Partial) *string { return x.Telegram }),
		Twitter:         id(func(x *Partial) *string { return x.Twitter }),
		CreatorAddress:  id(func(x *Partial) *string { return x.CreatorAddress }),
		PairAddressHint: id(func(x *Partial) *string { return x.PairAddressHint }),
		CreatedAt:       deref(pick(parts, p.Identity, func(x *Partial) *int64 { return x.CreatedAt })),

		Price:          clone(pick(parts, p.Market, func(x *Partial) *decimal.Decimal { return x.Price })),
		PriceNative:    clone(pick(parts, p.Market, func(x *Partial) *decimal.Decimal { return x.PriceNative })),
		Liquidity:      mkt(func(x *Partial) *float64 { return x.Liquidity }),
		Volume24h:      mkt(func(x *Partial) *float64 { return x.Volume24h }),
		MarketCap:      mkt(func(x *Partial) *float64 { return x.MarketCap }),
		FDV:            mkt(func(x *Partial) *float64 { return x.FDV }),
		PriceChange1h:  pct(func(x *Partial) *float64 { return x.PriceChange1h }),
		PriceChange24h: pct(func(x *Partial) *float64 { return x.PriceChange24h }),
		PriceChange7d:  pct(func(x *Partial) *float64 { return x.PriceChange7d }),
		Txns24h:        deref(pick(parts, p.Market, func(x *Partial) *domain.TxnCounts { return x.Txns24h })),

		PairAddress: deref(pick(parts, p.Market, func(x *Partial) *string { return x.PairAddress })),
		DexID:       deref(pick(parts, p.Market, func(x *Partial) *string { return x.DexID })),
		ChainID:     deref(pick(parts, p.Market, func(x *Partial) *string { return x.ChainID })),
		URL:         deref(pick(parts, p.Market, func(x *Partial) *string { return x.URL })),
		QuoteToken:  clone(pick(parts, p.Market, func(x *Partial) *domain.TokenRef { return x.QuoteToken })),
	}

	for _, o := range p.Market {
		if part, ok := parts[o]; ok && part.Source != domain.LiveSourceNone {
			rec.LiveSource = part.Source
			break
		}
	}
	return rec
}

func pick[T any](parts map[Origin]*Partial, order []Origin, get func(*Partial) *T) *T {
	for _, o := range order {
		part, ok := parts[o]
		if !ok {
			continue
		}
		if v := get(part); v != nil {
			return v
		}
	}
	return nil
}

func str(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref[T any](v *T) T {
	var zero T
	if v == nil {
		return zero
	}
	return *v
}

func clone[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
