package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("test", nil)
	require.NoError(t, err)

	assert.Equal(t, 60*time.Second, cfg.CacheTTL)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, time.Second, cfg.BaseDelay)
	assert.Equal(t, DefaultDexBaseURL, cfg.DexBaseURL)
	assert.Equal(t, "pulsechain", cfg.ChainID)
	assert.False(t, cfg.SubgraphFallback)
	assert.Equal(t, "file", cfg.CatalogKind())
}

func TestLoad_EnvAndFlags(t *testing.T) {
	t.Setenv("CACHE_TTL", "30s")
	t.Setenv("SUBGRAPH_FALLBACK", "true")
	t.Setenv("CATALOG_URL", "https://example.com/pump_tokens.json")

	cfg, err := Load("test", []string{"-max-attempts", "5"})
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
	assert.True(t, cfg.SubgraphFallback)
	assert.Equal(t, 5, cfg.MaxAttempts)
	assert.Equal(t, "http", cfg.CatalogKind())

	cfg.PostgresDSN = "postgres://localhost/db"
	assert.Equal(t, "postgres", cfg.CatalogKind())
}

func TestLoad_Invalid(t *testing.T) {
	_, err := Load("test", []string{"-cache-ttl", "0s"})
	assert.Error(t, err)

	_, err = Load("test", []string{"-max-attempts", "0"})
	assert.Error(t, err)
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "# comment\nBOARD_TEST_A=one\nBOARD_TEST_B=\"two\"\ninvalid line\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("BOARD_TEST_B", "")
	t.Setenv("BOARD_TEST_A", "preset")

	LoadEnvFile(path)

	assert.Equal(t, "preset", os.Getenv("BOARD_TEST_A"))
	assert.Equal(t, "two", os.Getenv("BOARD_TEST_B"))
}

func TestChain(t *testing.T) {
	cfg := &Config{ChainID: "0x171", RPCURL: "http://localhost:8545"}
	chain := cfg.Chain()
	assert.Equal(t, "pulsechain", chain.ID)
	assert.Equal(t, "http://localhost:8545", chain.RPC)
	assert.Equal(t, "PLS", chain.NativeSymbol)

	cfg = &Config{ChainID: "ethereum"}
	assert.Equal(t, "ethereum", cfg.Chain().ID)
}

func TestLoad_PositionalArgs(t *testing.T) {
	cfg, err := Load("test", []string{"-log-level", "debug", "search", "pulse"})
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, []string{"search", "pulse"}, cfg.Args)
}
