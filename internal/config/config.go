package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Analytics AnalyticsConfig `yaml:"analytics" mapstructure:"analytics"`
	Ingest    IngestConfig    `yaml:"ingest" mapstructure:"ingest"`
	Normalize NormalizeConfig `yaml:"normalize" mapstructure:"normalize"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the Postgres backend.
type StoreConfig struct {
	DatabaseURL string     `yaml:"database_url" mapstructure:"database_url"`
	Pool        PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// ServerConfig configures the dashboard API server.
type ServerConfig struct {
	Port            int      `yaml:"port" mapstructure:"port"`
	RateLimitPerSec float64  `yaml:"rate_limit_per_sec" mapstructure:"rate_limit_per_sec"`
	RateLimitBurst  int      `yaml:"rate_limit_burst" mapstructure:"rate_limit_burst"`
	AllowedOrigins  []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// AnalyticsConfig holds the aggregation policy knobs. The defaults match the
// dashboard's documented behavior; changing them changes what the charts show,
// not whether queries succeed.
type AnalyticsConfig struct {
	DefaultPageSize       int `yaml:"default_page_size" mapstructure:"default_page_size"`
	MaxPageSize           int `yaml:"max_page_size" mapstructure:"max_page_size"`
	SpreadMinOrders       int `yaml:"spread_min_orders" mapstructure:"spread_min_orders"`
	SpreadCandidateCap    int `yaml:"spread_candidate_cap" mapstructure:"spread_candidate_cap"`
	GrowthMinPriorOrders  int `yaml:"growth_min_prior_orders" mapstructure:"growth_min_prior_orders"`
	DeclineMinPriorOrders int `yaml:"decline_min_prior_orders" mapstructure:"decline_min_prior_orders"`
	DefaultLookbackMonths int `yaml:"default_lookback_months" mapstructure:"default_lookback_months"`
	RankedTopN            int `yaml:"ranked_top_n" mapstructure:"ranked_top_n"`
	GrowthTopN            int `yaml:"growth_top_n" mapstructure:"growth_top_n"`
}

// IngestConfig configures the scraper database import.
type IngestConfig struct {
	ScraperDB string `yaml:"scraper_db" mapstructure:"scraper_db"`
	BatchSize int    `yaml:"batch_size" mapstructure:"batch_size"`
}

// NormalizeConfig configures product text normalization.
type NormalizeConfig struct {
	AliasFile string `yaml:"alias_file" mapstructure:"alias_file"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("PERMIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.rate_limit_per_sec", 10.0)
	v.SetDefault("server.rate_limit_burst", 20)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("analytics.default_page_size", 25)
	v.SetDefault("analytics.max_page_size", 100)
	v.SetDefault("analytics.spread_min_orders", 5)
	v.SetDefault("analytics.spread_candidate_cap", 100)
	v.SetDefault("analytics.growth_min_prior_orders", 3)
	v.SetDefault("analytics.decline_min_prior_orders", 10)
	v.SetDefault("analytics.default_lookback_months", 6)
	v.SetDefault("analytics.ranked_top_n", 15)
	v.SetDefault("analytics.growth_top_n", 20)
	v.SetDefault("ingest.batch_size", 500)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks that the configuration is usable for the given command mode.
func (c *Config) Validate(mode string) error {
	var problems []string

	needDB := func() {
		if c.Store.DatabaseURL == "" {
			problems = append(problems, "store.database_url is required")
		}
	}

	switch mode {
	case "serve":
		needDB()
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
		if c.Server.RateLimitPerSec <= 0 {
			problems = append(problems, "server.rate_limit_per_sec must be > 0")
		}
	case "import":
		needDB()
		if c.Ingest.ScraperDB == "" {
			problems = append(problems, "ingest.scraper_db is required")
		}
		if c.Ingest.BatchSize < 1 {
			problems = append(problems, "ingest.batch_size must be >= 1")
		}
	case "migrate", "export", "report":
		needDB()
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if mode == "serve" || mode == "export" || mode == "report" {
		if c.Analytics.DefaultPageSize < 1 || c.Analytics.DefaultPageSize > c.Analytics.MaxPageSize {
			problems = append(problems, "analytics.default_page_size must be between 1 and max_page_size")
		}
		if c.Analytics.SpreadCandidateCap < 1 {
			problems = append(problems, "analytics.spread_candidate_cap must be >= 1")
		}
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
