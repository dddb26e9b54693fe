// Package provider defines the live data sources the reconciliation layer reads.
//
// Implementations absorb their own failures: a provider that cannot answer
// returns empty results rather than an error.
package provider

import (
	"context"

	"pulse-token-board/internal/domain"
	"pulse-token-board/internal/provider/dexscreener"
	"pulse-token-board/internal/provider/rpc"
	"pulse-token-board/internal/provider/subgraph"
)

// PairSource resolves trading pairs for tokens.
type PairSource interface {
	// BestPair returns the best pair for token, or empty metrics.
	BestPair(ctx context.Context, token, pairHint string) domain.LivePairMetrics

	// Search returns pairs matching a free-text query, one per base token.
	Search(ctx context.Context, query string) []domain.LivePairMetrics
}

// StatsSource returns indexed token statistics.
type StatsSource interface {
	TokenStats(ctx context.Context, address string) domain.SubgraphStats
}

// ChainReader reads balances and contract state.
type ChainReader interface {
	// Balance returns the native balance as a hex quantity.
	Balance(ctx context.Context, address string) (string, bool)

	// BatchCall runs eth_call for each message; failed entries are empty.
	BatchCall(ctx context.Context, msgs []rpc.CallMsg) ([]string, bool)
}

// Compile-time interface checks.
var (
	_ PairSource  = (*dexscreener.Client)(nil)
	_ StatsSource = (*subgraph.Client)(nil)
	_ ChainReader = (*rpc.Client)(nil)
)
