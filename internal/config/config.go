// Package config provides application configuration management using Viper.
// Configuration is loaded from YAML files and environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Source     SourceConfig     `mapstructure:"source"`
	Fetch      FetchConfig      `mapstructure:"fetch"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Warm       WarmConfig       `mapstructure:"warm"`
	Storefront StorefrontConfig `mapstructure:"storefront"`
	Logger     LoggerConfig     `mapstructure:"logger"`
	Sentry     SentryConfig     `mapstructure:"sentry"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Name  string `mapstructure:"name"`
	Env   string `mapstructure:"env"` // development, staging, production
	Port  int    `mapstructure:"port"`
	Debug bool   `mapstructure:"debug"`
}

// SourceConfig holds the upstream catalog settings.
type SourceConfig struct {
	Zecat SourceEndpoint `mapstructure:"zecat"`
	CDO   SourceEndpoint `mapstructure:"cdo"`
}

// SourceEndpoint holds a single upstream catalog's configuration.
type SourceEndpoint struct {
	BaseURL   string          `mapstructure:"base_url"`
	AuthToken string          `mapstructure:"auth_token"`
	Timeout   time.Duration   `mapstructure:"timeout"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	CB        CBConfig        `mapstructure:"circuit_breaker"`
}

// RateLimitConfig bounds the request rate against one upstream.
type RateLimitConfig struct {
	PerMinute int `mapstructure:"per_minute"`
	Burst     int `mapstructure:"burst"`
}

// CBConfig holds circuit breaker settings.
type CBConfig struct {
	MaxRequests  uint32        `mapstructure:"max_requests"`
	Interval     time.Duration `mapstructure:"interval"`
	Timeout      time.Duration `mapstructure:"timeout"`
	FailureRatio float64       `mapstructure:"failure_ratio"`
}

// FetchConfig holds the shared retry policy for upstream calls. It is
// the single place retries are configured; the HTTP clients themselves
// never retry.
type FetchConfig struct {
	MaxRetries int           `mapstructure:"max_retries"`
	BaseDelay  time.Duration `mapstructure:"base_delay"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// CacheConfig holds caching settings.
//
// ListingTTL and CategoryTTL bound freshness; Retention bounds how
// long entries survive in the backend past their TTL so they remain
// available as a stale fallback when every upstream is down.
type CacheConfig struct {
	Backend     string        `mapstructure:"backend"` // redis, memory, none
	ListingTTL  time.Duration `mapstructure:"listing_ttl"`
	CategoryTTL time.Duration `mapstructure:"category_ttl"`
	Retention   time.Duration `mapstructure:"retention"`
	KeyPrefix   string        `mapstructure:"key_prefix"`
	MaxEntries  int           `mapstructure:"max_entries"` // memory backend only, 0 = unbounded
}

// RedisConfig holds Redis connection settings, used by the cache
// backend and the warmer's distributed lock.
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns the host:port address for the Redis client.
func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// WarmConfig holds background category warmer settings.
type WarmConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Interval  time.Duration `mapstructure:"interval"`
	OnStartup bool          `mapstructure:"on_startup"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// StorefrontConfig holds the curation overlay settings.
type StorefrontConfig struct {
	Path string `mapstructure:"path"` // curation YAML, empty disables curation
}

// LoggerConfig holds logging settings.
type LoggerConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
	Output string `mapstructure:"output"` // stdout, stderr, file path
}

// SentryConfig holds Sentry error tracking settings.
type SentryConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	DSN         string  `mapstructure:"dsn"`
	Environment string  `mapstructure:"environment"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

// Load reads configuration from file and environment variables.
// Priority: env vars > config file > defaults
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Config file settings
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Config file not found, continue with defaults + env vars
	}

	// Environment variable settings
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unmarshal config
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "unified-catalog-service")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", 8080)
	v.SetDefault("app.debug", true)

	// Zecat defaults
	v.SetDefault("source.zecat.base_url", "http://localhost:8081")
	v.SetDefault("source.zecat.auth_token", "")
	v.SetDefault("source.zecat.timeout", "12s")
	v.SetDefault("source.zecat.rate_limit.per_minute", 120)
	v.SetDefault("source.zecat.rate_limit.burst", 10)
	v.SetDefault("source.zecat.circuit_breaker.max_requests", 3)
	v.SetDefault("source.zecat.circuit_breaker.interval", "60s")
	v.SetDefault("source.zecat.circuit_breaker.timeout", "30s")
	v.SetDefault("source.zecat.circuit_breaker.failure_ratio", 0.5)

	// CDO defaults
	v.SetDefault("source.cdo.base_url", "http://localhost:8082")
	v.SetDefault("source.cdo.auth_token", "")
	v.SetDefault("source.cdo.timeout", "8s")
	v.SetDefault("source.cdo.rate_limit.per_minute", 120)
	v.SetDefault("source.cdo.rate_limit.burst", 10)
	v.SetDefault("source.cdo.circuit_breaker.max_requests", 3)
	v.SetDefault("source.cdo.circuit_breaker.interval", "60s")
	v.SetDefault("source.cdo.circuit_breaker.timeout", "30s")
	v.SetDefault("source.cdo.circuit_breaker.failure_ratio", 0.5)

	// Fetch defaults
	v.SetDefault("fetch.max_retries", 2)
	v.SetDefault("fetch.base_delay", "500ms")
	v.SetDefault("fetch.timeout", "10s")

	// Cache defaults
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.listing_ttl", "5m")
	v.SetDefault("cache.category_ttl", "24h")
	v.SetDefault("cache.retention", "168h")
	v.SetDefault("cache.key_prefix", "unified-catalog")
	v.SetDefault("cache.max_entries", 1024)

	// Redis defaults
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// Warm defaults
	v.SetDefault("warm.enabled", true)
	v.SetDefault("warm.interval", "6h")
	v.SetDefault("warm.on_startup", true)
	v.SetDefault("warm.timeout", "60s")

	// Storefront defaults
	v.SetDefault("storefront.path", "")

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.output", "stdout")

	// Sentry defaults
	v.SetDefault("sentry.enabled", false)
	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "development")
	v.SetDefault("sentry.sample_rate", 1.0)
}
