package token

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pulse-token-board/internal/domain"
)

func f64(v float64) *float64 { return &v }

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestPrecedence_Validate(t *testing.T) {
	require.NoError(t, DefaultPrecedence.Validate())

	tests := []struct {
		name string
		p    Precedence
	}{
		{"catalog in market", Precedence{Identity: []Origin{OriginCatalog}, Market: []Origin{OriginCatalog, OriginDex}}},
		{"empty market", Precedence{Identity: []Origin{OriginCatalog}}},
		{"empty identity", Precedence{Market: []Origin{OriginDex}}},
		{"duplicate", Precedence{Identity: []Origin{OriginCatalog, OriginCatalog}, Market: []Origin{OriginDex}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.p.Validate(), ErrInvalidPrecedence)
		})
	}
}

func TestMerge_CatalogIdentityWins(t *testing.T) {
	static := FromEntry(domain.CatalogEntry{Address: "0xAbC", Name: "Foo", Symbol: "FOO"})
	live := FromMetrics(domain.LivePairMetrics{
		PairAddress: "0xpair",
		BaseToken:   domain.TokenRef{Address: "0xabc", Name: "Bar", Symbol: "BAR"},
		PriceUSD:    dec("0.05"),
		Source:      domain.LiveSourceDexScreener,
	})

	rec := Merge(static, []Partial{live}, DefaultPrecedence)

	assert.Equal(t, "0xabc", rec.Address)
	assert.Equal(t, "Foo", rec.Name)
	assert.Equal(t, "FOO", rec.Symbol)
	require.NotNil(t, rec.Price)
	assert.Equal(t, "0.05", rec.Price.String())
	assert.Equal(t, domain.LiveSourceDexScreener, rec.LiveSource)
}

func TestMerge_LiveIdentityFillsGaps(t *testing.T) {
	static := FromEntry(domain.CatalogEntry{Address: "0xabc"})
	live := FromMetrics(domain.LivePairMetrics{
		BaseToken: domain.TokenRef{Address: "0xabc", Name: "Bar", Symbol: "BAR"},
		Source:    domain.LiveSourceDexScreener,
	})

	rec := Merge(static, []Partial{live}, DefaultPrecedence)
	assert.Equal(t, "Bar", rec.Name)
	assert.Equal(t, "BAR", rec.Symbol)
}

func TestMerge_Defaults(t *testing.T) {
	rec := Merge(FromEntry(domain.CatalogEntry{Address: "0xabc", Name: "Foo"}), nil, DefaultPrecedence)

	assert.Nil(t, rec.Price)
	assert.Nil(t, rec.PriceNative)
	assert.Nil(t, rec.PriceChange1h)
	assert.Nil(t, rec.PriceChange24h)
	assert.Nil(t, rec.PriceChange7d)
	assert.Zero(t, rec.Liquidity)
	assert.Zero(t, rec.Volume24h)
	assert.Zero(t, rec.MarketCap)
	assert.Zero(t, rec.FDV)
	assert.Equal(t, domain.TxnCounts{}, rec.Txns24h)
	assert.False(t, rec.HasLiveData())
}

func TestMerge_CatalogNeverSuppliesMarket(t *testing.T) {
	// A hand-built catalog partial with market data must be ignored.
	static := FromEntry(domain.CatalogEntry{Address: "0xabc"})
	static.Liquidity = f64(999)
	static.Price = dec("1")

	rec := Merge(static, nil, DefaultPrecedence)
	assert.Zero(t, rec.Liquidity)
	assert.Nil(t, rec.Price)
}

func TestMerge_MarketOrderPerField(t *testing.T) {
	dex := FromMetrics(domain.LivePairMetrics{
		PairAddress:  "0xpair",
		LiquidityUSD: f64(100),
		Source:       domain.LiveSourceDexScreener,
	})
	sub := FromMetrics(domain.LivePairMetrics{
		LiquidityUSD: f64(50),
		Volume24hUSD: f64(7),
		Source:       domain.LiveSourceSubgraph,
	})

	rec := Merge(FromEntry(domain.CatalogEntry{Address: "0xabc"}), []Partial{sub, dex}, DefaultPrecedence)
	assert.Equal(t, 100.0, rec.Liquidity, "dex wins for present fields")
	assert.Equal(t, 7.0, rec.Volume24h, "subgraph fills absent fields")
	assert.Equal(t, domain.LiveSourceDexScreener, rec.LiveSource)

	reversed := Precedence{Identity: DefaultPrecedence.Identity, Market: []Origin{OriginSubgraph, OriginDex}}
	rec = Merge(FromEntry(domain.CatalogEntry{Address: "0xabc"}), []Partial{sub, dex}, reversed)
	assert.Equal(t, 50.0, rec.Liquidity)
	assert.Equal(t, domain.LiveSourceSubgraph, rec.LiveSource)
}

func TestMerge_DoesNotAliasInputs(t *testing.T) {
	live := FromMetrics(domain.LivePairMetrics{
		PriceUSD:          dec("2"),
		PriceChange24hPct: f64(3),
		Source:            domain.LiveSourceDexScreener,
	})

	rec := Merge(FromEntry(domain.CatalogEntry{Address: "0xabc"}), []Partial{live}, DefaultPrecedence)
	*rec.PriceChange24h = 99

	assert.Equal(t, 3.0, *live.PriceChange24h)
}

func TestFromEntry_CatalogFields(t *testing.T) {
	p := FromEntry(domain.CatalogEntry{
		Address:   "0xABC",
		ImageCID:  "bafy",
		CreatedAt: 1700000000,
		Telegram:  "t.me/foo",
	})

	rec := Merge(p, nil, DefaultPrecedence)
	assert.Equal(t, "bafy", rec.ImageRef)
	assert.Equal(t, domain.IPFSGateway+"bafy", rec.LogoURL)
	assert.Equal(t, int64(1700000000), rec.CreatedAt)
	assert.Equal(t, "t.me/foo", rec.Telegram)
	assert.Empty(t, rec.Web)
}
