package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"pulse-token-board/internal/domain"
	"pulse-token-board/internal/fetch"
	"pulse-token-board/internal/storage"
)

// Source produces the raw catalog. Catalog absorbs its errors.
type Source interface {
	Name() string
	Load(ctx context.Context) ([]domain.CatalogEntry, error)
}

// FileSource reads a local JSON array of entries.
type FileSource struct {
	Path string
}

// Name implements Source.
func (s FileSource) Name() string { return "file" }

// Load implements Source.
func (s FileSource) Load(_ context.Context) ([]domain.CatalogEntry, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	return decode(data)
}

// HTTPSource fetches the catalog JSON through the resilient fetcher.
type HTTPSource struct {
	URL     string
	Version string // cache-busting v= parameter, defaults to process start in ms
	Fetcher *fetch.Fetcher
}

var processStart = time.Now()

// NewHTTPSource creates an HTTPSource versioned by process start time.
func NewHTTPSource(rawURL string, f *fetch.Fetcher) *HTTPSource {
	return &HTTPSource{
		URL:     rawURL,
		Version: strconv.FormatInt(processStart.UnixMilli(), 10),
		Fetcher: f,
	}
}

// Name implements Source.
func (s *HTTPSource) Name() string { return "http" }

// Load implements Source.
func (s *HTTPSource) Load(ctx context.Context) ([]domain.CatalogEntry, error) {
	u, err := url.Parse(s.URL)
	if err != nil {
		return nil, fmt.Errorf("parse catalog url: %w", err)
	}
	if s.Version != "" {
		q := u.Query()
		q.Set("v", s.Version)
		u.RawQuery = q.Encode()
	}

	var raw json.RawMessage
	if err := s.Fetcher.JSON(ctx, fetch.Request{Name: "catalog.http", URL: u.String()}, &raw); err != nil {
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}
	return decode(raw)
}

// StoreSource lists the catalog from a storage.CatalogStore.
type StoreSource struct {
	Store storage.CatalogStore
}

// Name implements Source.
func (s StoreSource) Name() string { return "postgres" }

// Load implements Source.
func (s StoreSource) Load(ctx context.Context) ([]domain.CatalogEntry, error) {
	entries, err := s.Store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list catalog store: %w", err)
	}
	return entries, nil
}

// StaticSource serves a fixed slice. Used by tests and the sync tool.
type StaticSource []domain.CatalogEntry

// Name implements Source.
func (s StaticSource) Name() string { return "static" }

// Load implements Source.
func (s StaticSource) Load(_ context.Context) ([]domain.CatalogEntry, error) {
	return append([]domain.CatalogEntry(nil), s...), nil
}

func decode(data []byte) ([]domain.CatalogEntry, error) {
	var entries []domain.CatalogEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return entries, nil
}
