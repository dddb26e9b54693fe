// Package app assembles the token layer from a Config.
package app

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"pulse-token-board/internal/cache"
	"pulse-token-board/internal/catalog"
	"pulse-token-board/internal/config"
	"pulse-token-board/internal/domain"
	"pulse-token-board/internal/fetch"
	"pulse-token-board/internal/listing"
	"pulse-token-board/internal/provider/dexscreener"
	"pulse-token-board/internal/provider/rpc"
	"pulse-token-board/internal/provider/subgraph"
	"pulse-token-board/internal/storage/migrations"
	pgstore "pulse-token-board/internal/storage/postgres"
	"pulse-token-board/internal/token"
	"pulse-token-board/internal/wallet"
)

// redisPrefix namespaces cache keys in a shared Redis.
const redisPrefix = "ptb"

// App holds the wired services.
type App struct {
	Chain   domain.ChainInfo
	Tokens  *token.Service
	Listing *listing.Service
	Wallets *wallet.Service
}

// Build wires providers, the catalog and the services. The returned cleanup
// releases database and Redis connections.
func Build(ctx context.Context, cfg *config.Config, logger logrus.FieldLogger) (*App, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	store, closeStore, err := createCacheStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	closers = append(closers, closeStore)

	ch := cache.New(
		cache.WithStore(store),
		cache.WithTTL(cfg.CacheTTL),
		cache.WithLogger(logger.WithField("component", "cache")),
	)

	f := fetch.New(
		fetch.WithTimeout(cfg.HTTPTimeout),
		fetch.WithMaxAttempts(cfg.MaxAttempts),
		fetch.WithBaseDelay(cfg.BaseDelay),
		fetch.WithLogger(logger.WithField("component", "fetch")),
	)

	chain := cfg.Chain()

	dex := dexscreener.New(f, ch,
		dexscreener.WithBaseURL(cfg.DexBaseURL),
		dexscreener.WithChain(chain),
		dexscreener.WithLogger(logger),
	)
	reader := rpc.New(chain.RPC, f, ch, rpc.WithLogger(logger))

	src, closeSrc, err := createCatalogSource(ctx, cfg, f)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	closers = append(closers, closeSrc)

	cat := catalog.New(src, logger.WithField("component", "catalog"))

	opts := []token.Option{
		token.WithConcurrency(cfg.MaxConcurrency),
		token.WithLogger(logger.WithField("component", "token")),
	}
	if cfg.SubgraphFallback {
		stats := subgraph.New(cfg.SubgraphURL, f, ch, subgraph.WithLogger(logger))
		opts = append(opts, token.WithSubgraphFallback(stats))
	}

	tokens, err := token.NewService(cat, dex, opts...)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("create token service: %w", err)
	}

	wallets := wallet.NewService(reader, tokens,
		wallet.WithChain(chain),
		wallet.WithNativePriceToken(cfg.NativePriceToken),
		wallet.WithLogger(logger.WithField("component", "wallet")),
	)

	return &App{
		Chain:   chain,
		Tokens:  tokens,
		Listing: listing.NewService(tokens, logger.WithField("component", "listing")),
		Wallets: wallets,
	}, cleanup, nil
}

// createCacheStore picks Redis when configured, then a bounded LRU, then an unbounded map.
func createCacheStore(ctx context.Context, cfg *config.Config) (cache.Store, func(), error) {
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("parse redis url: %w", err)
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("ping redis: %w", err)
		}
		retention := cfg.CacheTTL * cache.DefaultRetentionFactor
		return cache.NewRedisStore(client, redisPrefix, retention), func() { client.Close() }, nil
	}

	if cfg.CacheCapacity > 0 {
		store, err := cache.NewLRUStore(cfg.CacheCapacity)
		if err != nil {
			return nil, nil, fmt.Errorf("create lru store: %w", err)
		}
		return store, func() {}, nil
	}

	return cache.NewMemoryStore(), func() {}, nil
}

func createCatalogSource(ctx context.Context, cfg *config.Config, f *fetch.Fetcher) (catalog.Source, func(), error) {
	switch cfg.CatalogKind() {
	case "postgres":
		pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		if _, err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("run postgres migrations: %w", err)
		}
		return catalog.StoreSource{Store: pgstore.NewCatalogStore(pool)}, pool.Close, nil
	case "http":
		return catalog.NewHTTPSource(cfg.CatalogURL, f), func() {}, nil
	default:
		return catalog.FileSource{Path: cfg.CatalogPath}, func() {}, nil
	}
}
