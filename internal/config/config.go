// Package config loads process configuration from flags, environment and an optional .env file.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"pulse-token-board/internal/domain"
)

// Default endpoints.
const (
	DefaultDexBaseURL       = "https://api.dexscreener.com/latest/dex"
	DefaultSubgraphURL      = "https://graph.pulsechain.com/subgraphs/name/pulsechain/pulsex"
	DefaultCatalogPath      = "pump_tokens.json"
	DefaultNativePriceToken = "0xa1077a294dde1b09bb078844df40758a5d0f9a27" // WPLS
)

// Config holds all runtime settings shared by the binaries.
type Config struct {
	ListenAddr string

	ChainID          string
	DexBaseURL       string
	RPCURL           string
	SubgraphURL      string
	SubgraphFallback bool

	CatalogPath string
	CatalogURL  string
	PostgresDSN string

	RedisURL      string
	CacheTTL      time.Duration
	CacheCapacity int

	MaxAttempts    int
	BaseDelay      time.Duration
	HTTPTimeout    time.Duration
	MaxConcurrency int

	NativePriceToken string

	LogLevel  string
	LogFormat string
	Debug     bool

	// Args holds positional arguments left after flag parsing.
	Args []string
}

// Load parses args into a Config. Environment variables (after .env) provide flag defaults.
func Load(name string, args []string) (*Config, error) {
	LoadEnvFile(".env")

	cfg := &Config{}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)

	fs.StringVar(&cfg.ListenAddr, "listen", envString("LISTEN_ADDR", ":8080"), "HTTP listen address")

	fs.StringVar(&cfg.ChainID, "chain", envString("CHAIN_ID", domain.PulseChain.ID), "DEX aggregator chain id")
	fs.StringVar(&cfg.DexBaseURL, "dex-url", envString("DEX_BASE_URL", DefaultDexBaseURL), "DEX aggregator API base URL")
	fs.StringVar(&cfg.RPCURL, "rpc-url", envString("RPC_URL", domain.PulseChain.RPC), "JSON-RPC endpoint")
	fs.StringVar(&cfg.SubgraphURL, "subgraph-url", envString("SUBGRAPH_URL", DefaultSubgraphURL), "Subgraph GraphQL endpoint")
	fs.BoolVar(&cfg.SubgraphFallback, "subgraph-fallback", envBool("SUBGRAPH_FALLBACK", false), "Query the subgraph when the DEX has no pair")

	fs.StringVar(&cfg.CatalogPath, "catalog", envString("CATALOG_PATH", DefaultCatalogPath), "Catalog JSON file")
	fs.StringVar(&cfg.CatalogURL, "catalog-url", envString("CATALOG_URL", ""), "Catalog JSON URL (overrides -catalog)")
	fs.StringVar(&cfg.PostgresDSN, "postgres-dsn", envString("POSTGRES_DSN", ""), "PostgreSQL DSN for the catalog table (overrides -catalog-url)")

	fs.StringVar(&cfg.RedisURL, "redis", envString("REDIS_URL", ""), "Redis URL for the shared cache tier")
	fs.DurationVar(&cfg.CacheTTL, "cache-ttl", envDuration("CACHE_TTL", 60*time.Second), "Cache entry TTL")
	fs.IntVar(&cfg.CacheCapacity, "cache-capacity", envInt("CACHE_CAPACITY", 0), "In-memory cache capacity (0 = unbounded)")

	fs.IntVar(&cfg.MaxAttempts, "max-attempts", envInt("FETCH_MAX_ATTEMPTS", 3), "Outbound request attempts")
	fs.DurationVar(&cfg.BaseDelay, "base-delay", envDuration("FETCH_BASE_DELAY", time.Second), "Backoff base delay")
	fs.DurationVar(&cfg.HTTPTimeout, "http-timeout", envDuration("HTTP_TIMEOUT", 15*time.Second), "Per-request HTTP timeout")
	fs.IntVar(&cfg.MaxConcurrency, "max-concurrency", envInt("MAX_CONCURRENCY", 8), "Concurrent reconciliations")

	fs.StringVar(&cfg.NativePriceToken, "native-price-token", envString("NATIVE_PRICE_TOKEN", DefaultNativePriceToken), "Token whose price values the native coin")

	fs.StringVar(&cfg.LogLevel, "log-level", envString("LOG_LEVEL", "info"), "Log level")
	fs.StringVar(&cfg.LogFormat, "log-format", envString("LOG_FORMAT", "text"), "Log format (text, json)")
	fs.BoolVar(&cfg.Debug, "debug", envBool("DEBUG", false), "Expose pprof handlers")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	cfg.Args = fs.Args()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that would make the layer misbehave.
func (c *Config) Validate() error {
	var errs []error
	if c.CacheTTL <= 0 {
		errs = append(errs, fmt.Errorf("cache-ttl must be positive, got %s", c.CacheTTL))
	}
	if c.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("max-attempts must be >= 1, got %d", c.MaxAttempts))
	}
	if c.BaseDelay < 0 {
		errs = append(errs, fmt.Errorf("base-delay must not be negative, got %s", c.BaseDelay))
	}
	if c.MaxConcurrency < 1 {
		errs = append(errs, fmt.Errorf("max-concurrency must be >= 1, got %d", c.MaxConcurrency))
	}
	if c.CacheCapacity < 0 {
		errs = append(errs, fmt.Errorf("cache-capacity must not be negative, got %d", c.CacheCapacity))
	}
	if c.DexBaseURL == "" {
		errs = append(errs, errors.New("dex-url is required"))
	}
	return errors.Join(errs...)
}

// Chain returns the chain description for the configured chain id and RPC URL.
func (c *Config) Chain() domain.ChainInfo {
	chain := domain.PulseChain
	if c.ChainID != "" && !chain.Matches(c.ChainID) {
		chain = domain.ChainInfo{ID: c.ChainID, Name: c.ChainID, NativeDecimals: 18}
	}
	if c.RPCURL != "" {
		chain.RPC = c.RPCURL
	}
	return chain
}

// CatalogKind reports which catalog source the settings select.
func (c *Config) CatalogKind() string {
	switch {
	case c.PostgresDSN != "":
		return "postgres"
	case c.CatalogURL != "":
		return "http"
	default:
		return "file"
	}
}

// LoadEnvFile loads variables from a dotenv file if it exists.
// Existing environment variables are not overridden.
func LoadEnvFile(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.Trim(strings.TrimSpace(parts[1]), `"'`)

		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return def
}
