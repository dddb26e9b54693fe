// Package token reconciles catalog entries with live market data.
//
// Nothing escapes the reconciliation boundary: provider failures and
// recovered panics degrade to a catalog-only record. The one surfaced error
// is ErrNotFound from Lookup.
package token

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"pulse-token-board/internal/catalog"
	"pulse-token-board/internal/domain"
	"pulse-token-board/internal/logging"
	"pulse-token-board/internal/observability"
	"pulse-token-board/internal/provider"
	"pulse-token-board/internal/provider/subgraph"
)

// DefaultConcurrency bounds concurrent reconciliations.
const DefaultConcurrency = 8

// ErrNotFound is returned by Lookup when neither the catalog nor any provider knows the token.
var ErrNotFound = errors.New("token not found")

// Ref identifies the token to reconcile: an address or a catalog entry.
type Ref struct {
	address string
	entry   *domain.CatalogEntry
}

// Address refers to a token by address. The catalog is consulted.
func Address(addr string) Ref {
	return Ref{address: addr}
}

// Entry refers to a token by an already resolved catalog entry.
func Entry(e domain.CatalogEntry) Ref {
	return Ref{entry: &e}
}

// Service produces TokenRecords.
type Service struct {
	catalog     *catalog.Catalog
	pairs       provider.PairSource
	stats       provider.StatsSource // nil disables the subgraph fallback
	precedence  Precedence
	concurrency int
	logger      logrus.FieldLogger
}

// Option configures a Service.
type Option func(*Service)

// WithSubgraphFallback consults stats when the DEX finds no pair.
func WithSubgraphFallback(stats provider.StatsSource) Option {
	return func(s *Service) {
		s.stats = stats
	}
}

// WithPrecedence overrides the merge precedence.
func WithPrecedence(p Precedence) Option {
	return func(s *Service) {
		s.precedence = p
	}
}

// WithConcurrency sets the reconciliation fan-out limit.
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// NewService creates a Service. It fails only on an invalid precedence.
func NewService(cat *catalog.Catalog, pairs provider.PairSource, opts ...Option) (*Service, error) {
	s := &Service{
		catalog:     cat,
		pairs:       pairs,
		precedence:  DefaultPrecedence,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.OrDiscard(s.logger)

	if err := s.precedence.Validate(); err != nil {
		return nil, fmt.Errorf("token service: %w", err)
	}
	return s, nil
}

// Catalog returns the underlying catalog.
func (s *Service) Catalog() *catalog.Catalog {
	return s.catalog
}

// GetCombinedTokenData reconciles one token. It never fails.
func (s *Service) GetCombinedTokenData(ctx context.Context, ref Ref) domain.TokenRecord {
	entry, _ := s.resolve(ctx, ref)
	return s.reconcile(ctx, entry)
}

// Lookup reconciles one token and reports ErrNotFound when the catalog
// has no entry and no provider found a pair.
func (s *Service) Lookup(ctx context.Context, address string) (domain.TokenRecord, error) {
	if domain.NormalizeAddress(address) == "" {
		return domain.TokenRecord{}, ErrNotFound
	}

	entry, inCatalog := s.resolve(ctx, Address(address))
	rec := s.reconcile(ctx, entry)
	if !inCatalog && !rec.HasLiveData() {
		return domain.TokenRecord{}, ErrNotFound
	}
	return rec, nil
}

// GetAllTokensWithLiveData reconciles the whole catalog in catalog order.
func (s *Service) GetAllTokensWithLiveData(ctx context.Context) []domain.TokenRecord {
	return s.Enrich(ctx, s.catalog.All(ctx))
}

// GetTokensData reconciles the catalog entries whose address is in addresses, in catalog order.
func (s *Service) GetTokensData(ctx context.Context, addresses []string) []domain.TokenRecord {
	return s.Enrich(ctx, s.catalog.Filter(ctx, addresses))
}

// Enrich reconciles entries concurrently. Output order equals input order.
func (s *Service) Enrich(ctx context.Context, entries []domain.CatalogEntry) []domain.TokenRecord {
	out := make([]domain.TokenRecord, len(entries))
	if len(entries) == 0 {
		return out
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, e := range entries {
		g.Go(func() error {
			out[i] = s.GetCombinedTokenData(gctx, Entry(e))
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// Search returns DEX search results on the target chain, with catalog
// identity applied when the base token is a catalog entry.
func (s *Service) Search(ctx context.Context, query string) []domain.TokenRecord {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	results := s.pairs.Search(ctx, query)
	out := make([]domain.TokenRecord, 0, len(results))
	for _, m := range results {
		base := domain.NormalizeAddress(m.BaseToken.Address)
		if base == "" {
			continue
		}
		entry, ok := s.catalog.ByAddress(ctx, base)
		if !ok {
			entry = domain.CatalogEntry{Address: base}
		}
		out = append(out, Merge(FromEntry(entry), []Partial{FromMetrics(m)}, s.precedence))
	}
	return out
}

func (s *Service) resolve(ctx context.Context, ref Ref) (domain.CatalogEntry, bool) {
	if ref.entry != nil {
		e := *ref.entry
		e.Address = domain.NormalizeAddress(e.Address)
		return e, true
	}

	addr := domain.NormalizeAddress(ref.address)
	if e, ok := s.catalog.ByAddress(ctx, addr); ok {
		return e, true
	}
	return domain.CatalogEntry{Address: addr}, false
}

func (s *Service) reconcile(ctx context.Context, entry domain.CatalogEntry) (rec domain.TokenRecord) {
	start := time.Now()
	static := FromEntry(entry)
	fallback := Merge(static, nil, s.precedence)
	outcome := "catalog_only"

	defer func() {
		if r := recover(); r != nil {
			observability.RecordReconcilePanic()
			s.logger.WithFields(logrus.Fields{
				"address": entry.Address,
				"panic":   r,
			}).Error("reconciliation panicked, returning catalog data")
			rec = fallback
			outcome = "fallback"
		}
		observability.RecordReconciliation(outcome, time.Since(start).Seconds())
	}()

	if entry.Address == "" {
		return fallback
	}

	live := s.live(ctx, entry)
	if !live.Found() {
		return fallback
	}
	if !tradesToken(live, entry.Address) {
		s.logger.WithFields(logrus.Fields{
			"address": entry.Address,
			"pair":    live.PairAddress,
			"base":    live.BaseToken.Address,
			"quote":   live.QuoteToken.Address,
		}).Warn("live pair trades a different token, discarding")
		outcome = "fallback"
		return fallback
	}

	outcome = "live"
	return Merge(static, []Partial{FromMetrics(live)}, s.precedence)
}

// live returns the DEX best pair, or subgraph metrics when the DEX found nothing.
func (s *Service) live(ctx context.Context, entry domain.CatalogEntry) domain.LivePairMetrics {
	m := s.pairs.BestPair(ctx, entry.Address, entry.PairAddressHint)
	if m.Found() || s.stats == nil {
		return m
	}
	return subgraph.ToMetrics(s.stats.TokenStats(ctx, entry.Address))
}

// tradesToken reports whether the pair prices address as its base token.
// Quote-side pairs carry the base token's price and are rejected.
// A pair with no base identity cannot be checked and is accepted.
func tradesToken(m domain.LivePairMetrics, address string) bool {
	if m.BaseToken.Address == "" {
		return true
	}
	return domain.SameAddress(m.BaseToken.Address, address)
}
