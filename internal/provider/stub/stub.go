// Package stub provides in-memory provider implementations for tests.
package stub

import (
	"context"
	"strings"
	"sync"

	"pulse-token-board/internal/domain"
	"pulse-token-board/internal/provider/rpc"
)

// PairSource implements provider.PairSource from fixed data.
type PairSource struct {
	mu       sync.Mutex
	pairs    map[string]domain.LivePairMetrics // by token address
	byHint   map[string]domain.LivePairMetrics // by pair address
	search   map[string][]domain.LivePairMetrics
	calls    map[string]int
	PanicOn  string // token address that panics when resolved
	Observer func(token string)
}

// NewPairSource creates an empty stub.
func NewPairSource() *PairSource {
	return &PairSource{
		pairs:  make(map[string]domain.LivePairMetrics),
		byHint: make(map[string]domain.LivePairMetrics),
		search: make(map[string][]domain.LivePairMetrics),
		calls:  make(map[string]int),
	}
}

// AddPair registers the best pair for token.
func (s *PairSource) AddPair(token string, m domain.LivePairMetrics) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.Source == domain.LiveSourceNone {
		m.Source = domain.LiveSourceDexScreener
	}
	s.pairs[domain.NormalizeAddress(token)] = m
	if m.PairAddress != "" {
		s.byHint[domain.NormalizeAddress(m.PairAddress)] = m
	}
}

// AddSearch registers search results for query.
func (s *PairSource) AddSearch(query string, results ...domain.LivePairMetrics) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.search[strings.ToLower(query)] = results
}

// BestPair returns the hinted pair, else the registered pair for token.
func (s *PairSource) BestPair(_ context.Context, token, pairHint string) domain.LivePairMetrics {
	token = domain.NormalizeAddress(token)

	s.mu.Lock()
	s.calls[token]++
	observer := s.Observer
	m, ok := s.byHint[domain.NormalizeAddress(pairHint)]
	if !ok {
		m = s.pairs[token]
	}
	panicOn := s.PanicOn
	s.mu.Unlock()

	if observer != nil {
		observer(token)
	}
	if panicOn != "" && domain.SameAddress(panicOn, token) {
		panic("stub: forced panic for " + token)
	}
	return m
}

// Search returns registered results for query.
func (s *PairSource) Search(_ context.Context, query string) []domain.LivePairMetrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.search[strings.ToLower(query)]
}

// Calls returns how often BestPair was called for token.
func (s *PairSource) Calls(token string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[domain.NormalizeAddress(token)]
}

// StatsSource implements provider.StatsSource from fixed data.
type StatsSource struct {
	mu    sync.Mutex
	stats map[string]domain.SubgraphStats
	calls int
}

// NewStatsSource creates an empty stub.
func NewStatsSource() *StatsSource {
	return &StatsSource{stats: make(map[string]domain.SubgraphStats)}
}

// Add registers stats for a token.
func (s *StatsSource) Add(stats domain.SubgraphStats) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats.Address = domain.NormalizeAddress(stats.Address)
	s.stats[stats.Address] = stats
}

// TokenStats returns registered stats, or empty stats.
func (s *StatsSource) TokenStats(_ context.Context, address string) domain.SubgraphStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.stats[domain.NormalizeAddress(address)]
}

// Calls returns the number of TokenStats calls.
func (s *StatsSource) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// ChainReader implements provider.ChainReader from fixed data.
type ChainReader struct {
	mu       sync.Mutex
	balances map[string]string
	calls    map[string]string // keyed by to+data
	Down     bool              // every call fails
	Extra    int               // surplus empty results appended to each batch
	batches  int
}

// NewChainReader creates an empty stub.
func NewChainReader() *ChainReader {
	return &ChainReader{
		balances: make(map[string]string),
		calls:    make(map[string]string),
	}
}

// SetBalance registers a native balance as a hex quantity.
func (c *ChainReader) SetBalance(address, hexQty string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.balances[domain.NormalizeAddress(address)] = hexQty
}

// SetCall registers the hex result of an eth_call.
func (c *ChainReader) SetCall(msg rpc.CallMsg, result string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls[domain.NormalizeAddress(msg.To)+msg.Data] = result
}

// Balance returns the registered balance, or "0x0".
func (c *ChainReader) Balance(_ context.Context, address string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Down {
		return "", false
	}
	if b, ok := c.balances[domain.NormalizeAddress(address)]; ok {
		return b, true
	}
	return "0x0", true
}

// BatchCall returns registered results; unknown calls are empty.
func (c *ChainReader) BatchCall(_ context.Context, msgs []rpc.CallMsg) ([]string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.batches++
	if c.Down {
		return nil, false
	}
	out := make([]string, len(msgs), len(msgs)+c.Extra)
	for i, m := range msgs {
		out[i] = c.calls[domain.NormalizeAddress(m.To)+m.Data]
	}
	for range c.Extra {
		out = append(out, "")
	}
	return out, true
}

// Batches returns the number of BatchCall invocations.
func (c *ChainReader) Batches() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.batches
}
