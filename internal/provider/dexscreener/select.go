package dexscreener

import (
	mapset "github.com/deckarep/golang-set/v2"

	"pulse-token-board/internal/domain"
)

// Candidates returns the pairs on chain that trade token as their base, in input order.
// Pairs whose base token is not reported are kept.
func Candidates(pairs []domain.LivePairMetrics, chain domain.ChainInfo, token string) []domain.LivePairMetrics {
	var out []domain.LivePairMetrics
	for _, p := range pairs {
		if !chain.Matches(p.ChainID) {
			continue
		}
		if p.BaseToken.Address != "" && !domain.SameAddress(p.BaseToken.Address, token) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// SelectBest returns the candidate with the highest USD liquidity.
// Missing liquidity counts as zero; ties keep the earliest candidate.
func SelectBest(candidates []domain.LivePairMetrics) (domain.LivePairMetrics, bool) {
	if len(candidates) == 0 {
		return domain.LivePairMetrics{}, false
	}

	best := 0
	for i := 1; i < len(candidates); i++ {
		if liquidity(candidates[i]) > liquidity(candidates[best]) {
			best = i
		}
	}
	return candidates[best], true
}

func liquidity(p domain.LivePairMetrics) float64 {
	if p.LiquidityUSD == nil {
		return 0
	}
	return *p.LiquidityUSD
}

// DedupeByBase keeps the first pair seen for each base token, restricted to chain.
func DedupeByBase(pairs []domain.LivePairMetrics, chain domain.ChainInfo) []domain.LivePairMetrics {
	seen := mapset.NewThreadUnsafeSet[string]()
	var out []domain.LivePairMetrics
	for _, p := range pairs {
		if !chain.Matches(p.ChainID) || p.BaseToken.Address == "" {
			continue
		}
		if !seen.Add(p.BaseToken.Address) {
			continue
		}
		out = append(out, p)
	}
	return out
}
