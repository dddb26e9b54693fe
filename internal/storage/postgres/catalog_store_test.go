package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pulse-token-board/internal/domain"
	"pulse-token-board/internal/storage"
	"pulse-token-board/internal/storage/migrations"
)

func TestCatalogStore_UpsertAndList(t *testing.T) {
	pool := setupTestDB(t)

	store := NewCatalogStore(pool)
	ctx := context.Background()

	entries := []domain.CatalogEntry{
		{Address: "0xBBB", Name: "Beta", Symbol: "BETA", ImageCID: "bafy1", CreatedAt: 1700000000},
		{Address: "0xaaa", Name: "Alpha", Symbol: "ALPHA", PairAddressHint: "0xpair"},
	}
	require.NoError(t, store.Upsert(ctx, entries))

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)

	// Insertion order is preserved, addresses are lowercased.
	assert.Equal(t, "0xbbb", list[0].Address)
	assert.Equal(t, "0xaaa", list[1].Address)
	assert.Equal(t, domain.UnixSeconds(1700000000), list[0].CreatedAt)
	assert.Equal(t, "bafy1", list[0].ImageCID)
	assert.Equal(t, "0xpair", list[1].PairAddressHint)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestCatalogStore_UpsertOverwrites(t *testing.T) {
	pool := setupTestDB(t)

	store := NewCatalogStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, []domain.CatalogEntry{
		{Address: "0x1", Name: "One", Symbol: "ONE"},
		{Address: "0x2", Name: "Two", Symbol: "TWO"},
	}))
	require.NoError(t, store.Upsert(ctx, []domain.CatalogEntry{
		{Address: "0x1", Name: "One v2", Symbol: "ONE"},
	}))

	got, err := store.GetByAddress(ctx, "0X1")
	require.NoError(t, err)
	assert.Equal(t, "One v2", got.Name)

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "0x2", list[0].Address)
	assert.Equal(t, "0x1", list[1].Address)
}

func TestCatalogStore_GetByAddress_NotFound(t *testing.T) {
	pool := setupTestDB(t)

	store := NewCatalogStore(pool)

	_, err := store.GetByAddress(context.Background(), "0xmissing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCatalogStore_InvalidInput(t *testing.T) {
	pool := setupTestDB(t)

	store := NewCatalogStore(pool)

	err := store.Upsert(context.Background(), []domain.CatalogEntry{{Address: ""}})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}

func TestMigrations_Idempotent(t *testing.T) {
	pool := setupTestDB(t)

	n, err := migrations.RunPostgresMigrations(context.Background(), pool)
	require.NoError(t, err)
	assert.Equal(t, 0, n, "already applied migrations must not run again")
}
