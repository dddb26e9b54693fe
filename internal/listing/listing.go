// Package listing assembles ranked, sorted pages of reconciled tokens.
package listing

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"pulse-token-board/internal/domain"
	"pulse-token-board/internal/logging"
	"pulse-token-board/internal/query"
	"pulse-token-board/internal/token"
)

// Defaults for page requests and buckets.
const (
	DefaultPageSize = 12
	BucketSize      = 10

	graduatedLiquidity = 10000
	graduatedVolume    = 5000
)

// Scope selects whether sorting applies to one page or the whole listing.
type Scope string

const (
	// ScopePage slices the catalog first and sorts only the page's records.
	ScopePage Scope = "page"
	// ScopeAll reconciles every listable token, sorts globally, then slices.
	ScopeAll Scope = "all"
)

// ParseScope maps anything other than "all" to ScopePage.
func ParseScope(s string) Scope {
	if Scope(s) == ScopeAll {
		return ScopeAll
	}
	return ScopePage
}

// PageRequest describes one listing page.
type PageRequest struct {
	Page      int
	PageSize  int
	SortKey   string
	Direction query.Direction
	Scope     Scope
}

func (r PageRequest) normalized() PageRequest {
	if r.Page < 1 {
		r.Page = 1
	}
	if r.PageSize < 1 {
		r.PageSize = DefaultPageSize
	}
	if r.Direction != query.Asc {
		r.Direction = query.Desc
	}
	if r.Scope != ScopeAll {
		r.Scope = ScopePage
	}
	return r
}

// RankedRecord is one listing row.
type RankedRecord struct {
	Rank   int                `json:"rank"`
	Record domain.TokenRecord `json:"token"`
}

// Page is one assembled listing page.
type Page struct {
	Items      []RankedRecord  `json:"items"`
	Page       int             `json:"page"`
	PageSize   int             `json:"pageSize"`
	TotalCount int             `json:"totalCount"`
	TotalPages int             `json:"totalPages"`
	SortKey    string          `json:"sort,omitempty"`
	Direction  query.Direction `json:"dir"`
	Scope      Scope           `json:"scope"`
}

// Buckets are the home page groups.
type Buckets struct {
	New       []domain.TokenRecord `json:"new"`
	Bonding   []domain.TokenRecord `json:"bonding"`
	Graduated []domain.TokenRecord `json:"graduated"`
}

// Service builds listing pages over the token service.
type Service struct {
	tokens *token.Service
	logger logrus.FieldLogger
}

// NewService creates a listing service. A nil logger discards output.
func NewService(tokens *token.Service, logger logrus.FieldLogger) *Service {
	return &Service{
		tokens: tokens,
		logger: logging.OrDiscard(logger),
	}
}

// Page assembles the requested page of listable catalog tokens.
func (s *Service) Page(ctx context.Context, req PageRequest) Page {
	req = req.normalized()
	start := time.Now()

	entries := s.tokens.Catalog().Graduated(ctx)
	total := len(entries)

	var records []domain.TokenRecord
	switch req.Scope {
	case ScopeAll:
		all := query.SortTokens(s.tokens.Enrich(ctx, entries), req.SortKey, req.Direction)
		records = query.Paginate(all, req.Page, req.PageSize)
	default:
		slice := query.Paginate(entries, req.Page, req.PageSize)
		records = query.SortTokens(s.tokens.Enrich(ctx, slice), req.SortKey, req.Direction)
	}

	items := make([]RankedRecord, len(records))
	for i, rec := range records {
		items[i] = RankedRecord{
			Rank:   query.Rank(total, req.Page, req.PageSize, i),
			Record: rec,
		}
	}

	s.logger.WithFields(logrus.Fields{
		"page":     req.Page,
		"size":     req.PageSize,
		"sort":     req.SortKey,
		"scope":    req.Scope,
		"items":    len(items),
		"total":    total,
		"duration": time.Since(start),
	}).Debug("listing page assembled")

	return Page{
		Items:      items,
		Page:       req.Page,
		PageSize:   req.PageSize,
		TotalCount: total,
		TotalPages: query.TotalPages(total, req.PageSize),
		SortKey:    req.SortKey,
		Direction:  req.Direction,
		Scope:      req.Scope,
	}
}

// Buckets groups every reconciled catalog token for the home page.
func (s *Service) Buckets(ctx context.Context) Buckets {
	all := s.tokens.GetAllTokensWithLiveData(ctx)

	byCreated := slices.Clone(all)
	slices.SortStableFunc(byCreated, func(a, b domain.TokenRecord) int {
		return compareDesc(float64(a.CreatedAt), float64(b.CreatedAt))
	})

	byCap := slices.Clone(all)
	slices.SortStableFunc(byCap, func(a, b domain.TokenRecord) int {
		return compareDesc(a.MarketCap, b.MarketCap)
	})

	var graduated []domain.TokenRecord
	for _, r := range all {
		if r.Liquidity > graduatedLiquidity || r.Volume24h > graduatedVolume {
			graduated = append(graduated, r)
		}
	}

	return Buckets{
		New:       head(byCreated, BucketSize),
		Bonding:   head(byCap, BucketSize),
		Graduated: head(graduated, BucketSize),
	}
}

func compareDesc(a, b float64) int {
	switch {
	case a > b:
		return -1
	case a < b:
		return 1
	default:
		return 0
	}
}

func head(recs []domain.TokenRecord, n int) []domain.TokenRecord {
	if len(recs) > n {
		recs = recs[:n]
	}
	if recs == nil {
		return []domain.TokenRecord{}
	}
	return recs
}

// View is navigable page state for interactive consumers. A navigation
// that finishes after a newer one started is discarded.
type View struct {
	svc   *Service
	guard query.Guard

	mu      sync.RWMutex
	current Page
	req     PageRequest
}

// NewView creates a view over svc.
func NewView(svc *Service) *View {
	return &View{svc: svc, req: PageRequest{}.normalized()}
}

// Navigate fetches req and applies it if no newer navigation began meanwhile.
func (v *View) Navigate(ctx context.Context, req PageRequest) (Page, bool) {
	ticket := v.guard.Begin()
	page := v.svc.Page(ctx, req)

	v.mu.Lock()
	defer v.mu.Unlock()
	if !ticket.Current() {
		v.svc.logger.WithField("page", page.Page).Debug("dropping stale listing page")
		return page, false
	}
	v.current = page
	v.req = req.normalized()
	return page, true
}

// Current returns the last applied page.
func (v *View) Current() Page {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.current
}

// Request returns the request behind the last applied page.
func (v *View) Request() PageRequest {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.req
}
