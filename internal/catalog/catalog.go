// Package catalog serves the static token list keyed by address.
//
// The list is loaded once per process. A source that is unreachable or
// malformed yields an empty catalog and a warning, never an error.
package catalog

import (
	"context"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/sirupsen/logrus"

	"pulse-token-board/internal/domain"
	"pulse-token-board/internal/logging"
	"pulse-token-board/internal/observability"
)

// Catalog is a read-only, lazily loaded view over a Source.
type Catalog struct {
	src Source
	log logrus.FieldLogger

	once    sync.Once
	entries []domain.CatalogEntry
	index   map[string]int
}

// New creates a Catalog over src. A nil logger discards output.
func New(src Source, log logrus.FieldLogger) *Catalog {
	return &Catalog{
		src: src,
		log: logging.OrDiscard(log),
	}
}

// load runs once per Catalog. The first caller's cancellation is detached so
// an aborted request cannot leave the catalog empty for the process lifetime.
func (c *Catalog) load(ctx context.Context) {
	c.once.Do(func() {
		raw, err := c.src.Load(context.WithoutCancel(ctx))
		if err != nil {
			c.log.WithError(err).WithField("source", c.src.Name()).Warn("catalog unavailable, serving empty list")
			observability.RecordCatalogLoadFailure(c.src.Name())
			raw = nil
		}

		c.entries = make([]domain.CatalogEntry, 0, len(raw))
		c.index = make(map[string]int, len(raw))
		dropped := 0
		for _, e := range raw {
			e.Address = domain.NormalizeAddress(e.Address)
			if e.Address == "" {
				dropped++
				continue
			}
			if _, dup := c.index[e.Address]; dup {
				dropped++
				continue
			}
			c.index[e.Address] = len(c.entries)
			c.entries = append(c.entries, e)
		}

		observability.UpdateCatalogSize(len(c.entries))
		c.log.WithFields(logrus.Fields{
			"source":  c.src.Name(),
			"entries": len(c.entries),
			"dropped": dropped,
		}).Info("catalog loaded")
	})
}

// All returns every entry in source order.
func (c *Catalog) All(ctx context.Context) []domain.CatalogEntry {
	c.load(ctx)
	return append([]domain.CatalogEntry(nil), c.entries...)
}

// ByAddress finds an entry by case-insensitive address.
func (c *Catalog) ByAddress(ctx context.Context, address string) (domain.CatalogEntry, bool) {
	c.load(ctx)
	i, ok := c.index[domain.NormalizeAddress(address)]
	if !ok {
		return domain.CatalogEntry{}, false
	}
	return c.entries[i], true
}

// Graduated returns entries that carry address, symbol and name.
func (c *Catalog) Graduated(ctx context.Context) []domain.CatalogEntry {
	c.load(ctx)
	var out []domain.CatalogEntry
	for _, e := range c.entries {
		if e.IsListable() {
			out = append(out, e)
		}
	}
	return out
}

// Filter returns the entries whose address is in addresses, in catalog order.
func (c *Catalog) Filter(ctx context.Context, addresses []string) []domain.CatalogEntry {
	c.load(ctx)
	want := mapset.NewThreadUnsafeSet[string]()
	for _, a := range addresses {
		if a = domain.NormalizeAddress(a); a != "" {
			want.Add(a)
		}
	}

	var out []domain.CatalogEntry
	for _, e := range c.entries {
		if want.Contains(e.Address) {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of loaded entries.
func (c *Catalog) Len(ctx context.Context) int {
	c.load(ctx)
	return len(c.entries)
}
