// Package config loads application settings from config/config.yaml and ROI_* environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Narrative NarrativeConfig `mapstructure:"narrative"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Database  DatabaseConfig  `mapstructure:"database"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name             string  `mapstructure:"name"`
	Environment      string  `mapstructure:"environment"`
	LogLevel         string  `mapstructure:"log_level"`
	ResourcesDir     string  `mapstructure:"resources_dir"`
	ModelsFile       string  `mapstructure:"models_file"`
	SensitivitySwing float64 `mapstructure:"sensitivity_swing"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// NarrativeConfig controls the report cache and generation timeout.
type NarrativeConfig struct {
	CacheEnabled bool          `mapstructure:"cache_enabled"`
	CacheDir     string        `mapstructure:"cache_dir"`
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// RateLimitConfig limits narrative requests per client.
type RateLimitConfig struct {
	RequestsPerMinute int      `mapstructure:"requests_per_minute"`
	Burst             int      `mapstructure:"burst"`
	TrustedProxies    []string `mapstructure:"trusted_proxies"` // Peers whose X-Forwarded-For is honoured
}

// DatabaseConfig holds the optional Postgres connection used by the narrative cache.
type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("ROI")
	v.AutomaticEnv()
	bindEnvVars(v)
	setDefaults(v)

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	v.BindEnv("app.environment", "ROI_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "ROI_LOG_LEVEL", "LOG_LEVEL")
	v.BindEnv("app.resources_dir", "ROI_RESOURCES_DIR")
	v.BindEnv("app.models_file", "ROI_MODELS_FILE")
	v.BindEnv("app.sensitivity_swing", "ROI_SENSITIVITY_SWING")

	v.BindEnv("server.addr", "ROI_SERVER_ADDR", "ADDR")

	v.BindEnv("narrative.cache_enabled", "ROI_NARRATIVE_CACHE_ENABLED")
	v.BindEnv("narrative.cache_dir", "ROI_NARRATIVE_CACHE_DIR")
	v.BindEnv("narrative.cache_ttl", "ROI_NARRATIVE_CACHE_TTL")
	v.BindEnv("narrative.timeout", "ROI_NARRATIVE_TIMEOUT")

	v.BindEnv("rate_limit.requests_per_minute", "ROI_RATE_LIMIT_RPM")
	v.BindEnv("rate_limit.burst", "ROI_RATE_LIMIT_BURST")
	v.BindEnv("rate_limit.trusted_proxies", "ROI_RATE_LIMIT_TRUSTED_PROXIES")

	v.BindEnv("database.url", "ROI_DATABASE_URL", "DATABASE_URL")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "roi-advisor")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.resources_dir", "resources")
	v.SetDefault("app.models_file", "config/models.yaml")
	v.SetDefault("app.sensitivity_swing", 20.0)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "120s")

	v.SetDefault("narrative.cache_enabled", true)
	v.SetDefault("narrative.cache_dir", ".cache/narratives")
	v.SetDefault("narrative.cache_ttl", "24h")
	v.SetDefault("narrative.timeout", "90s")

	v.SetDefault("rate_limit.requests_per_minute", 30)
	v.SetDefault("rate_limit.burst", 5)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.RateLimit.RequestsPerMinute < 0 {
		return fmt.Errorf("rate_limit.requests_per_minute cannot be negative")
	}
	if c.RateLimit.RequestsPerMinute > 0 && c.RateLimit.Burst < 1 {
		return fmt.Errorf("rate_limit.burst must be at least 1")
	}
	if c.App.SensitivitySwing <= 0 || c.App.SensitivitySwing >= 100 {
		return fmt.Errorf("app.sensitivity_swing must be between 0 and 100")
	}
	if c.Narrative.Timeout <= 0 {
		return fmt.Errorf("narrative.timeout must be positive")
	}
	return nil
}
