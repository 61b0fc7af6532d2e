package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 25, cfg.Analytics.DefaultPageSize)
	assert.Equal(t, 100, cfg.Analytics.MaxPageSize)
	assert.Equal(t, 5, cfg.Analytics.SpreadMinOrders)
	assert.Equal(t, 100, cfg.Analytics.SpreadCandidateCap)
	assert.Equal(t, 3, cfg.Analytics.GrowthMinPriorOrders)
	assert.Equal(t, 10, cfg.Analytics.DeclineMinPriorOrders)
	assert.Equal(t, 6, cfg.Analytics.DefaultLookbackMonths)
	assert.Equal(t, 15, cfg.Analytics.RankedTopN)
	assert.Equal(t, 20, cfg.Analytics.GrowthTopN)
	assert.Equal(t, 500, cfg.Ingest.BatchSize)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  database_url: postgres://localhost/permits
log:
  level: debug
  format: console
server:
  port: 9090
analytics:
  decline_min_prior_orders: 20
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost/permits", cfg.Store.DatabaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 20, cfg.Analytics.DeclineMinPriorOrders)
	// Defaults still apply for unset values
	assert.Equal(t, 25, cfg.Analytics.DefaultPageSize)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("PERMIT_LOG_LEVEL", "warn")
	t.Setenv("PERMIT_STORE_DATABASE_URL", "postgres://env/permits")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "postgres://env/permits", cfg.Store.DatabaseURL)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("PERMIT_SERVER_PORT", "3000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
}

// validDefaults returns a Config with the defaults validation expects.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Server.Port = 8080
	cfg.Server.RateLimitPerSec = 10
	cfg.Analytics.DefaultPageSize = 25
	cfg.Analytics.MaxPageSize = 100
	cfg.Analytics.SpreadCandidateCap = 100
	cfg.Ingest.BatchSize = 500
	return cfg
}

func TestValidateServe_AllPresent(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.DatabaseURL = "postgres://localhost/permits"

	assert.NoError(t, cfg.Validate("serve"))
}

func TestValidateServe_MissingDB(t *testing.T) {
	cfg := validDefaults()

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url is required")
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.DatabaseURL = "postgres://localhost/permits"
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidateImport_RequiresScraperDB(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.DatabaseURL = "postgres://localhost/permits"

	err := cfg.Validate("import")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "ingest.scraper_db is required")

	cfg.Ingest.ScraperDB = "/data/imports.db"
	assert.NoError(t, cfg.Validate("import"))
}

func TestValidatePageSizeBounds(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.DatabaseURL = "postgres://localhost/permits"

	cfg.Analytics.DefaultPageSize = 0
	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "default_page_size")

	cfg.Analytics.DefaultPageSize = 101
	err = cfg.Validate("serve")
	assert.Error(t, err)

	cfg.Analytics.DefaultPageSize = 100
	assert.NoError(t, cfg.Validate("serve"))
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}
