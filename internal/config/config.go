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
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	OWM     OWMConfig     `yaml:"owm" mapstructure:"owm"`
	Sync    SyncConfig    `yaml:"sync" mapstructure:"sync"`
	Notify  NotifyConfig  `yaml:"notify" mapstructure:"notify"`
	Display DisplayConfig `yaml:"display" mapstructure:"display"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the on-disk cache.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// OWMConfig holds OpenWeatherMap API settings.
type OWMConfig struct {
	Key         string  `yaml:"key" mapstructure:"key"`
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	Days        int     `yaml:"days" mapstructure:"days"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RatePerSec  float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	Burst       int     `yaml:"burst" mapstructure:"burst"`
}

// Timeout returns the bounded wait applied to remote calls.
func (c OWMConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// SyncConfig configures the sync orchestrator.
type SyncConfig struct {
	// Location is the preferred location setting (e.g. a postal code).
	Location      string `yaml:"location" mapstructure:"location"`
	IntervalHours int    `yaml:"interval_hours" mapstructure:"interval_hours"`
	FlexMinutes   int    `yaml:"flex_minutes" mapstructure:"flex_minutes"`
}

// Interval returns the periodic sync interval.
func (c SyncConfig) Interval() time.Duration {
	return time.Duration(c.IntervalHours) * time.Hour
}

// Flex returns the jitter window applied to each periodic run.
func (c SyncConfig) Flex() time.Duration {
	return time.Duration(c.FlexMinutes) * time.Minute
}

// NotifyConfig configures user-facing weather notifications.
type NotifyConfig struct {
	Enabled        bool   `yaml:"enabled" mapstructure:"enabled"`
	WebhookURL     string `yaml:"webhook_url" mapstructure:"webhook_url"`
	StalenessHours int    `yaml:"staleness_hours" mapstructure:"staleness_hours"`
}

// Staleness returns the minimum gap between notifications.
func (c NotifyConfig) Staleness() time.Duration {
	return time.Duration(c.StalenessHours) * time.Hour
}

// DisplayConfig configures presentation formatting.
type DisplayConfig struct {
	// Units is "metric" or "imperial"; the cache always holds Celsius.
	Units string `yaml:"units" mapstructure:"units"`
}

// Metric reports whether temperatures display in Celsius.
func (c DisplayConfig) Metric() bool {
	return c.Units != "imperial"
}

// ServerConfig configures the read API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
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
	v.SetEnvPrefix("FORECAST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.path", "weather.db")
	v.SetDefault("owm.base_url", "https://api.openweathermap.org/data/2.5/forecast/daily")
	v.SetDefault("owm.days", 14)
	v.SetDefault("owm.timeout_secs", 30)
	v.SetDefault("owm.rate_per_sec", 1.0)
	v.SetDefault("owm.burst", 1)
	v.SetDefault("sync.interval_hours", 3)
	v.SetDefault("sync.flex_minutes", 60)
	v.SetDefault("notify.enabled", true)
	v.SetDefault("notify.staleness_hours", 24)
	v.SetDefault("display.units", "metric")
	v.SetDefault("server.port", 8080)
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
