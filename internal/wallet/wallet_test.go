package wallet

import (
	"context"
	"fmt"
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pulse-token-board/internal/catalog"
	"pulse-token-board/internal/domain"
	"pulse-token-board/internal/provider/rpc"
	"pulse-token-board/internal/provider/stub"
	"pulse-token-board/internal/token"
)

const (
	owner  = "0x00000000000000000000000000000000000000aa"
	tokenA = "0x1111111111111111111111111111111111111111"
	tokenB = "0x2222222222222222222222222222222222222222"
	tokenC = "0x3333333333333333333333333333333333333333"
	wpls   = "0xa1077a294dde1b09bb078844df40758a5d0f9a27"
)

func word(v int64, exp int) string {
	n := new(big.Int).Mul(big.NewInt(v), new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(exp)), nil))
	return fmt.Sprintf("0x%064x", n)
}

func priced(addr, price string) domain.LivePairMetrics {
	d := decimal.RequireFromString(price)
	return domain.LivePairMetrics{
		PairAddress: "0xpair" + addr[2:8],
		BaseToken:   domain.TokenRef{Address: addr},
		PriceUSD:    &d,
	}
}

func setup(t *testing.T, reader *stub.ChainReader, opts ...Option) *Service {
	t.Helper()
	entries := catalog.StaticSource{
		{Address: tokenA, Name: "Alpha", Symbol: "A"},
		{Address: tokenB, Name: "Beta", Symbol: "B"},
		{Address: tokenC, Name: "Gamma", Symbol: "C"},
	}
	pairs := stub.NewPairSource()
	pairs.AddPair(tokenA, priced(tokenA, "2"))
	pairs.AddPair(tokenB, priced(tokenB, "10"))
	pairs.AddPair(wpls, priced(wpls, "0.0001"))

	tokens, err := token.NewService(catalog.New(entries, nil), pairs)
	require.NoError(t, err)
	return NewService(reader, tokens, append([]Option{WithNativePriceToken(wpls)}, opts...)...)
}

func TestNetWorth_Valuation(t *testing.T) {
	reader := stub.NewChainReader()
	reader.SetBalance(owner, "0x29a2241af62c0000") // 3 PLS
	reader.SetCall(rpc.BalanceOfCall(tokenA, owner), word(5, 18))
	reader.SetCall(rpc.BalanceOfCall(tokenB, owner), word(25, 5)) // 2.5 at 6 decimals
	reader.SetCall(rpc.BalanceOfCall(tokenC, owner), word(0, 0))
	reader.SetCall(rpc.DecimalsCall(tokenA), word(18, 0))
	reader.SetCall(rpc.DecimalsCall(tokenB), word(6, 0))

	svc := setup(t, reader)
	nw, err := svc.NetWorth(context.Background(), "0x00000000000000000000000000000000000000AA")
	require.NoError(t, err)

	assert.Equal(t, owner, nw.Wallet)
	assert.Equal(t, "PLS", nw.Native.Symbol)
	assert.Equal(t, "3", nw.Native.Balance.String())
	assert.Equal(t, "0.0003", nw.Native.ValueUSD.String())

	require.Len(t, nw.Tokens, 2, "zero balances are skipped")
	assert.Equal(t, "B", nw.Tokens[0].Token.Symbol, "sorted by value")
	assert.Equal(t, "2.5", nw.Tokens[0].Balance.String())
	assert.Equal(t, 6, nw.Tokens[0].Decimals)
	assert.Equal(t, "25", nw.Tokens[0].ValueUSD.String())
	assert.Equal(t, "10", nw.Tokens[1].ValueUSD.String())

	assert.Equal(t, "35.0003", nw.TotalValueUSD.String())
}

func TestNetWorth_BatchesInChunks(t *testing.T) {
	reader := stub.NewChainReader()
	reader.SetCall(rpc.BalanceOfCall(tokenA, owner), word(1, 18))

	svc := setup(t, reader, WithBatchSize(2))
	_, err := svc.NetWorth(context.Background(), owner)
	require.NoError(t, err)

	// Two balanceOf batches for three tokens, one decimals batch.
	assert.Equal(t, 3, reader.Batches())
}

func TestNetWorth_MissingDecimalsDefaults(t *testing.T) {
	reader := stub.NewChainReader()
	reader.SetCall(rpc.BalanceOfCall(tokenA, owner), word(7, 18))

	nw, err := setup(t, reader).NetWorth(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, nw.Tokens, 1)
	assert.Equal(t, 18, nw.Tokens[0].Decimals)
	assert.Equal(t, "7", nw.Tokens[0].Balance.String())
}

func TestNetWorth_ProviderDownIsZero(t *testing.T) {
	reader := stub.NewChainReader()
	reader.Down = true

	nw, err := setup(t, reader).NetWorth(context.Background(), owner)
	require.NoError(t, err)
	assert.True(t, nw.TotalValueUSD.IsZero())
	assert.True(t, nw.Native.Balance.IsZero())
	assert.Empty(t, nw.Tokens)
}

func TestNetWorth_MisalignedBatchIgnored(t *testing.T) {
	reader := stub.NewChainReader()
	reader.SetCall(rpc.BalanceOfCall(tokenA, owner), word(5, 18))
	reader.Extra = 1

	nw, err := setup(t, reader).NetWorth(context.Background(), owner)
	require.NoError(t, err)
	assert.Empty(t, nw.Tokens, "results that cannot be matched to calls are dropped")
	assert.True(t, nw.TotalValueUSD.IsZero())
}

func TestNetWorth_InvalidAddress(t *testing.T) {
	svc := setup(t, stub.NewChainReader())

	for _, addr := range []string{"", "0x123", "not-an-address", "0xzz00000000000000000000000000000000000000"} {
		_, err := svc.NetWorth(context.Background(), addr)
		assert.ErrorIs(t, err, ErrInvalidAddress, addr)
	}
}
