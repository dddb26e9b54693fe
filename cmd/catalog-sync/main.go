package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"

	"pulse-token-board/internal/config"
	"pulse-token-board/internal/domain"
	"pulse-token-board/internal/fetch"
	"pulse-token-board/internal/logging"
	"pulse-token-board/internal/storage/migrations"
	pgstore "pulse-token-board/internal/storage/postgres"
)

func main() {
	// Load .env file if exists
	config.LoadEnvFile(".env")

	apiURL := flag.String("api-url", DefaultLaunchpadURL, "Launchpad token API")
	output := flag.String("output", os.Getenv("CATALOG_PATH"), "Catalog JSON output file (empty to skip)")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL DSN to upsert the catalog into (optional)")
	delay := flag.Duration("delay", 250*time.Millisecond, "Delay between pages")
	attempts := flag.Int("max-attempts", 3, "Request attempts per page")
	logLevel := flag.String("log-level", "info", "Log level")
	flag.Parse()

	logger := logging.New(*logLevel, "text")
	logger.SetOutput(os.Stderr)

	if *output == "" && *postgresDSN == "" {
		*output = config.DefaultCatalogPath
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("scraping launchpad"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSpinnerType(14),
	)

	scraper := &Scraper{
		BaseURL: *apiURL,
		Fetcher: fetch.New(fetch.WithMaxAttempts(*attempts), fetch.WithLogger(logger)),
		Delay:   *delay,
		Logger:  logger,
		OnPage: func(_, kept int) {
			_ = bar.Add(kept)
		},
	}

	start := time.Now()
	entries, err := scraper.Scrape(ctx)
	_ = bar.Finish()
	if err != nil {
		logger.WithError(err).WithField("kept", len(entries)).Fatal("Scrape failed")
	}

	logger.WithFields(logrus.Fields{
		"tokens":   len(entries),
		"duration": time.Since(start).Round(time.Millisecond),
	}).Info("Scrape complete")

	if *output != "" {
		if err := writeCatalog(*output, entries); err != nil {
			logger.WithError(err).Fatal("Failed to write catalog file")
		}
		logger.WithField("file", *output).Info("Catalog file written")
	}

	if *postgresDSN != "" {
		if err := upsertCatalog(ctx, *postgresDSN, entries); err != nil {
			logger.WithError(err).Fatal("Failed to upsert catalog")
		}
		logger.Info("Catalog upserted into postgres")
	}
}

func writeCatalog(path string, entries []domain.CatalogEntry) error {
	if entries == nil {
		entries = []domain.CatalogEntry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func upsertCatalog(ctx context.Context, dsn string, entries []domain.CatalogEntry) error {
	pool, err := pgstore.NewPool(ctx, dsn)
	if err != nil {
		return err
	}
	defer pool.Close()

	if _, err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		return err
	}
	return pgstore.NewCatalogStore(pool).Upsert(ctx, entries)
}
