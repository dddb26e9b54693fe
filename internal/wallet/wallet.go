// Package wallet values a wallet's native and catalog token balances.
//
// Provider failures degrade to zero balances. The only error is an
// invalid wallet address.
package wallet

import (
	"context"
	"errors"
	"math/big"
	"slices"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"pulse-token-board/internal/domain"
	"pulse-token-board/internal/logging"
	"pulse-token-board/internal/provider"
	"pulse-token-board/internal/provider/rpc"
	"pulse-token-board/internal/token"
)

// DefaultBatchSize is the number of eth_calls sent per batch.
const DefaultBatchSize = 100

// defaultDecimals applies when a token's decimals() call fails.
const defaultDecimals = 18

// maxDecimals bounds decoded decimals() values.
const maxDecimals = 77

// ErrInvalidAddress is returned for a malformed wallet address.
var ErrInvalidAddress = errors.New("invalid wallet address")

// Service computes net worth.
type Service struct {
	reader      provider.ChainReader
	tokens      *token.Service
	chain       domain.ChainInfo
	nativeToken string
	batchSize   int
	logger      logrus.FieldLogger
}

// Option configures Service.
type Option func(*Service)

// WithChain sets the chain whose native coin is valued.
func WithChain(chain domain.ChainInfo) Option {
	return func(s *Service) {
		s.chain = chain
	}
}

// WithNativePriceToken sets the wrapped native token used to price the native balance.
func WithNativePriceToken(addr string) Option {
	return func(s *Service) {
		s.nativeToken = domain.NormalizeAddress(addr)
	}
}

// WithBatchSize sets the eth_call batch size.
func WithBatchSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// NewService creates a wallet service.
func NewService(reader provider.ChainReader, tokens *token.Service, opts ...Option) *Service {
	s := &Service{
		reader:    reader,
		tokens:    tokens,
		chain:     domain.PulseChain,
		batchSize: DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.OrDiscard(s.logger)
	return s
}

// NetWorth values the native balance and every nonzero catalog token balance.
func (s *Service) NetWorth(ctx context.Context, wallet string) (domain.NetWorth, error) {
	if !common.IsHexAddress(wallet) {
		return domain.NetWorth{}, ErrInvalidAddress
	}
	wallet = domain.NormalizeAddress(wallet)
	log := s.logger.WithField("wallet", wallet)

	native := s.native(ctx, wallet)
	holdings := s.holdings(ctx, wallet)

	total := native.ValueUSD
	for _, h := range holdings {
		total = total.Add(h.ValueUSD)
	}

	log.WithFields(logrus.Fields{
		"tokens": len(holdings),
		"total":  total.StringFixed(2),
	}).Debug("net worth computed")

	return domain.NetWorth{
		Wallet:        wallet,
		TotalValueUSD: total,
		Native:        native,
		Tokens:        holdings,
	}, nil
}

func (s *Service) native(ctx context.Context, wallet string) domain.NativeHolding {
	h := domain.NativeHolding{Symbol: s.chain.NativeSymbol}

	raw, ok := s.reader.Balance(ctx, wallet)
	if !ok {
		return h
	}
	wei, err := rpc.DecodeQuantity(raw)
	if err != nil {
		s.logger.WithError(err).WithField("wallet", wallet).Warn("undecodable native balance")
		return h
	}
	h.Balance = scale(wei, s.chain.NativeDecimals)

	if s.nativeToken != "" && h.Balance.IsPositive() {
		rec := s.tokens.GetCombinedTokenData(ctx, token.Address(s.nativeToken))
		if rec.Price != nil {
			h.PriceUSD = *rec.Price
		}
	}
	h.ValueUSD = h.Balance.Mul(h.PriceUSD)
	return h
}

type held struct {
	entry domain.CatalogEntry
	raw   *big.Int
}

func (s *Service) holdings(ctx context.Context, wallet string) []domain.WalletHolding {
	entries := s.tokens.Catalog().All(ctx)

	var nonzero []held
	for chunk := range slices.Chunk(entries, s.batchSize) {
		msgs := make([]rpc.CallMsg, len(chunk))
		for i, e := range chunk {
			msgs[i] = rpc.BalanceOfCall(e.Address, wallet)
		}
		results, ok := s.reader.BatchCall(ctx, msgs)
		if !ok || !s.aligned("balanceOf", len(msgs), len(results)) {
			continue
		}
		for i, r := range results {
			if r == "" {
				continue
			}
			bal, err := rpc.DecodeWord(r)
			if err != nil || bal.Sign() <= 0 {
				continue
			}
			nonzero = append(nonzero, held{entry: chunk[i], raw: bal})
		}
	}
	if len(nonzero) == 0 {
		return []domain.WalletHolding{}
	}

	decimals := s.decimals(ctx, nonzero)

	found := make([]domain.CatalogEntry, len(nonzero))
	for i, h := range nonzero {
		found[i] = h.entry
	}
	records := s.tokens.Enrich(ctx, found)

	out := make([]domain.WalletHolding, len(nonzero))
	for i, h := range nonzero {
		balance := scale(h.raw, decimals[i])
		value := decimal.Zero
		if records[i].Price != nil {
			value = balance.Mul(*records[i].Price)
		}
		out[i] = domain.WalletHolding{
			Token:    records[i],
			Balance:  balance,
			Decimals: decimals[i],
			ValueUSD: value,
		}
	}

	slices.SortStableFunc(out, func(a, b domain.WalletHolding) int {
		return b.ValueUSD.Cmp(a.ValueUSD)
	})
	return out
}

// decimals reads decimals() for each holding, defaulting to 18.
func (s *Service) decimals(ctx context.Context, hs []held) []int {
	out := make([]int, len(hs))
	for i := range out {
		out[i] = defaultDecimals
	}

	for start := 0; start < len(hs); start += s.batchSize {
		end := min(start+s.batchSize, len(hs))
		msgs := make([]rpc.CallMsg, 0, end-start)
		for _, h := range hs[start:end] {
			msgs = append(msgs, rpc.DecimalsCall(h.entry.Address))
		}

		results, ok := s.reader.BatchCall(ctx, msgs)
		if !ok || !s.aligned("decimals", len(msgs), len(results)) {
			continue
		}
		for i, r := range results {
			if r == "" {
				continue
			}
			d, err := rpc.DecodeWord(r)
			if err != nil || !d.IsInt64() || d.Int64() > maxDecimals {
				continue
			}
			out[start+i] = int(d.Int64())
		}
	}
	return out
}

// aligned reports whether a batch returned one result per call.
// A misaligned batch is dropped whole since results cannot be matched to calls.
func (s *Service) aligned(method string, want, got int) bool {
	if want == got {
		return true
	}
	s.logger.WithFields(logrus.Fields{
		"method": method,
		"calls":  want,
		"result": got,
	}).Warn("batch result count mismatch, ignoring batch")
	return false
}

// scale converts a raw integer amount into units with the given decimals.
func scale(raw *big.Int, decimals int) decimal.Decimal {
	return decimal.NewFromBigInt(raw, int32(-decimals))
}
