package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"pulse-token-board/internal/domain"
	"pulse-token-board/internal/storage"
)

// CatalogStore implements storage.CatalogStore using PostgreSQL.
type CatalogStore struct {
	pool *Pool
}

// NewCatalogStore creates a new CatalogStore.
func NewCatalogStore(pool *Pool) *CatalogStore {
	return &CatalogStore{pool: pool}
}

// Compile-time interface check.
var _ storage.CatalogStore = (*CatalogStore)(nil)

const catalogColumns = `address, name, symbol, image_url, image_cid, description,
	web, telegram, twitter, creator_address, pair_address, launched_at`

// Upsert writes entries in one transaction. Positions continue after the current maximum.
func (s *CatalogStore) Upsert(ctx context.Context, entries []domain.CatalogEntry) (err error) {
	start := time.Now()
	defer func() { observe("catalog_upsert", start, err) }()

	for _, e := range entries {
		if domain.NormalizeAddress(e.Address) == "" {
			return storage.ErrInvalidInput
		}
	}
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin catalog upsert: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var next int64
	if err = tx.QueryRow(ctx, `SELECT COALESCE(MAX(position), -1) + 1 FROM catalog_tokens`).Scan(&next); err != nil {
		return fmt.Errorf("read catalog position: %w", err)
	}

	query := `
		INSERT INTO catalog_tokens (` + catalogColumns + `, position, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW())
		ON CONFLICT (address) DO UPDATE SET
			name = EXCLUDED.name,
			symbol = EXCLUDED.symbol,
			image_url = EXCLUDED.image_url,
			image_cid = EXCLUDED.image_cid,
			description = EXCLUDED.description,
			web = EXCLUDED.web,
			telegram = EXCLUDED.telegram,
			twitter = EXCLUDED.twitter,
			creator_address = EXCLUDED.creator_address,
			pair_address = EXCLUDED.pair_address,
			launched_at = EXCLUDED.launched_at,
			position = EXCLUDED.position,
			updated_at = NOW()
	`

	batch := &pgx.Batch{}
	for i, e := range entries {
		batch.Queue(query,
			domain.NormalizeAddress(e.Address),
			e.Name,
			e.Symbol,
			e.ImageURL,
			e.ImageCID,
			e.Description,
			e.Web,
			e.Telegram,
			e.Twitter,
			e.CreatorAddress,
			e.PairAddressHint,
			int64(e.CreatedAt),
			next+int64(i),
		)
	}

	if err = tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("upsert catalog tokens: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit catalog upsert: %w", err)
	}
	return nil
}

// List returns all entries ordered by position ASC.
func (s *CatalogStore) List(ctx context.Context) (result []domain.CatalogEntry, err error) {
	start := time.Now()
	defer func() { observe("catalog_list", start, err) }()

	query := `SELECT ` + catalogColumns + ` FROM catalog_tokens ORDER BY position ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list catalog tokens: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		e, scanErr := scanCatalogEntry(rows)
		if scanErr != nil {
			err = fmt.Errorf("scan catalog token: %w", scanErr)
			return nil, err
		}
		result = append(result, *e)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate catalog tokens: %w", err)
	}
	return result, nil
}

// GetByAddress retrieves an entry by address. Returns ErrNotFound if not exists.
func (s *CatalogStore) GetByAddress(ctx context.Context, address string) (e *domain.CatalogEntry, err error) {
	start := time.Now()
	defer func() { observe("catalog_get", start, err) }()

	query := `SELECT ` + catalogColumns + ` FROM catalog_tokens WHERE address = $1`

	e, err = scanCatalogEntry(s.pool.QueryRow(ctx, query, domain.NormalizeAddress(address)))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get catalog token: %w", err)
	}
	return e, nil
}

// Count returns the number of stored entries.
func (s *CatalogStore) Count(ctx context.Context) (n int, err error) {
	start := time.Now()
	defer func() { observe("catalog_count", start, err) }()

	if err = s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM catalog_tokens`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count catalog tokens: %w", err)
	}
	return n, nil
}

// scanCatalogEntry scans a single row into CatalogEntry.
func scanCatalogEntry(row pgx.Row) (*domain.CatalogEntry, error) {
	var (
		e          domain.CatalogEntry
		launchedAt int64
	)

	err := row.Scan(
		&e.Address,
		&e.Name,
		&e.Symbol,
		&e.ImageURL,
		&e.ImageCID,
		&e.Description,
		&e.Web,
		&e.Telegram,
		&e.Twitter,
		&e.CreatorAddress,
		&e.PairAddressHint,
		&launchedAt,
	)
	if err != nil {
		return nil, err
	}

	e.CreatedAt = domain.UnixSeconds(launchedAt)
	return &e, nil
}
