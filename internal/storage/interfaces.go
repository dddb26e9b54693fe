package storage

import (
	"context"

	"pulse-token-board/internal/domain"
)

// CatalogStore provides access to the catalog_tokens table.
type CatalogStore interface {
	// Upsert writes entries in one transaction. Entries are stored in slice
	// order; an existing address is overwritten and keeps its new position.
	Upsert(ctx context.Context, entries []domain.CatalogEntry) error

	// List returns all entries ordered by position ASC.
	List(ctx context.Context) ([]domain.CatalogEntry, error)

	// GetByAddress retrieves an entry by address (case-insensitive). Returns ErrNotFound if not exists.
	GetByAddress(ctx context.Context, address string) (*domain.CatalogEntry, error)

	// Count returns the number of stored entries.
	Count(ctx context.Context) (int, error)
}
