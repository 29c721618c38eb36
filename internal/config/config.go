package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Portal     PortalConfig     `yaml:"portal" mapstructure:"portal"`
	Ingest     IngestConfig     `yaml:"ingest" mapstructure:"ingest"`
	Backfill   BackfillConfig   `yaml:"backfill" mapstructure:"backfill"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Monitoring MonitoringConfig `yaml:"monitoring" mapstructure:"monitoring"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
}

// PortalConfig configures access to the market data portal.
type PortalConfig struct {
	BaseURL        string  `yaml:"base_url" mapstructure:"base_url"`
	UserAgent      string  `yaml:"user_agent" mapstructure:"user_agent"`
	RequestsPerSec float64 `yaml:"requests_per_sec" mapstructure:"requests_per_sec"`
	MaxRetries     int     `yaml:"max_retries" mapstructure:"max_retries"`
	TimeoutSecs    int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// IngestConfig configures the ingestion loop.
type IngestConfig struct {
	IntervalSecs  int `yaml:"interval_secs" mapstructure:"interval_secs"`
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent"`
}

// Interval returns the cycle interval as a duration.
func (c IngestConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSecs) * time.Second
}

// BackfillConfig configures historical backfill.
type BackfillConfig struct {
	LookbackDays int `yaml:"lookback_days" mapstructure:"lookback_days"`
	DelaySecs    int `yaml:"delay_secs" mapstructure:"delay_secs"`
}

// Lookback returns the backfill window as a duration.
func (c BackfillConfig) Lookback() time.Duration {
	return time.Duration(c.LookbackDays) * 24 * time.Hour
}

// Delay returns the inter-day delay as a duration.
func (c BackfillConfig) Delay() time.Duration {
	return time.Duration(c.DelaySecs) * time.Second
}

// ServerConfig configures the query API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// MonitoringConfig configures data completeness checks.
type MonitoringConfig struct {
	CheckIntervalSecs   int     `yaml:"check_interval_secs" mapstructure:"check_interval_secs"`
	LookbackWindowHours int     `yaml:"lookback_window_hours" mapstructure:"lookback_window_hours"`
	GapEpsilonSecs      float64 `yaml:"gap_epsilon_secs" mapstructure:"gap_epsilon_secs"`
	StaleAfterMins      int     `yaml:"stale_after_mins" mapstructure:"stale_after_mins"`
	WebhookURL          string  `yaml:"webhook_url" mapstructure:"webhook_url"`
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
	v.SetEnvPrefix("NEMSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.sqlite_path", "nemsync.db")
	v.SetDefault("portal.base_url", "https://www.nemweb.com.au")
	v.SetDefault("portal.user_agent", "nemsync/1.0")
	v.SetDefault("portal.requests_per_sec", 5)
	v.SetDefault("portal.max_retries", 3)
	v.SetDefault("portal.timeout_secs", 60)
	v.SetDefault("ingest.interval_secs", 300)
	v.SetDefault("ingest.max_concurrent", 3)
	v.SetDefault("backfill.lookback_days", 30)
	v.SetDefault("backfill.delay_secs", 2)
	v.SetDefault("server.port", 8080)
	v.SetDefault("monitoring.check_interval_secs", 300)
	v.SetDefault("monitoring.lookback_window_hours", 6)
	v.SetDefault("monitoring.gap_epsilon_secs", 5)
	v.SetDefault("monitoring.stale_after_mins", 30)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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
