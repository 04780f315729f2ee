package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the service
type Config struct {
	Port        string `mapstructure:"port"`
	Environment string `mapstructure:"environment"`

	LogLevel  string `mapstructure:"log_level"`
	LogPretty bool   `mapstructure:"log_pretty"`

	YahooBaseURL    string        `mapstructure:"yahoo_base_url"`
	ProviderTimeout time.Duration `mapstructure:"provider_timeout"`
	FetchMaxRetries int           `mapstructure:"fetch_max_retries"`
	FetchRetryDelay time.Duration `mapstructure:"fetch_retry_delay"`

	AllowOrigins         string `mapstructure:"allow_origins"`
	RateLimitPerMinute   int    `mapstructure:"rate_limit_per_minute"`
	MaxConcurrentFetches int    `mapstructure:"max_concurrent_fetches"`

	CompaniesFile    string `mapstructure:"companies_file"`
	FirestoreProject string `mapstructure:"firestore_project_id"`
}

var defaults = map[string]interface{}{
	"port":                   "8000",
	"environment":            "production",
	"log_level":              "info",
	"log_pretty":             false,
	"yahoo_base_url":         "https://query1.finance.yahoo.com",
	"provider_timeout":       "10s",
	"fetch_max_retries":      3,
	"fetch_retry_delay":      "1s",
	"allow_origins":          "*",
	"rate_limit_per_minute":  100,
	"max_concurrent_fetches": 10,
	"companies_file":         "",
	"firestore_project_id":   "",
}

// Load reads configuration from an optional .env file, environment variables and defaults.
// Keys map onto upper-case variables: port -> PORT, fetch_max_retries -> FETCH_MAX_RETRIES.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that all required fields are usable.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("port is required")
	}
	if c.YahooBaseURL == "" {
		return fmt.Errorf("yahoo_base_url is required")
	}
	if c.FetchMaxRetries < 1 {
		return fmt.Errorf("fetch_max_retries must be at least 1, got %d", c.FetchMaxRetries)
	}
	if c.FetchRetryDelay < 0 {
		return fmt.Errorf("fetch_retry_delay must not be negative")
	}
	if c.ProviderTimeout <= 0 {
		return fmt.Errorf("provider_timeout must be positive")
	}
	if c.MaxConcurrentFetches < 1 {
		return fmt.Errorf("max_concurrent_fetches must be at least 1")
	}
	return nil
}

// IsDevelopment reports whether the service runs in a local/dev environment.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "local"
}
