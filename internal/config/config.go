// Package config handles configuration loading for fundseeker.
// It supports YAML config files, a .env file, and environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. FUNDSEEKER_STORAGE_DRIVER.
const EnvPrefix = "FUNDSEEKER"

// Config represents the complete application configuration.
type Config struct {
	EDGAR   EDGARConfig   `mapstructure:"edgar"   yaml:"edgar"`
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	Import  ImportConfig  `mapstructure:"import"  yaml:"import"`
	Events  EventsConfig  `mapstructure:"events"  yaml:"events"`
	API     APIConfig     `mapstructure:"api"     yaml:"api"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// EDGARConfig holds SEC EDGAR client settings.
type EDGARConfig struct {
	BaseURL    string `mapstructure:"base_url"    yaml:"base_url"`
	FeedURL    string `mapstructure:"feed_url"    yaml:"feed_url"`
	UserAgent  string `mapstructure:"user_agent"  yaml:"user_agent"` // SEC requires "name contact@email"
	TimeoutSec int    `mapstructure:"timeout_sec" yaml:"timeout_sec"`
	RateLimit  int    `mapstructure:"rate_limit"  yaml:"rate_limit"` // requests per second
	CacheTTL   int    `mapstructure:"cache_ttl"   yaml:"cache_ttl"`  // seconds, 0 disables
}

// Timeout returns the HTTP timeout as a duration.
func (c EDGARConfig) Timeout() time.Duration { return time.Duration(c.TimeoutSec) * time.Second }

// CacheDuration returns the facts cache TTL as a duration.
func (c EDGARConfig) CacheDuration() time.Duration { return time.Duration(c.CacheTTL) * time.Second }

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	Driver string `mapstructure:"driver" yaml:"driver"` // "memory", "sqlite", "postgres"
	Path   string `mapstructure:"path"   yaml:"path"`
	DSN    string `mapstructure:"dsn"    yaml:"dsn"`
}

// ImportConfig holds batch import settings.
type ImportConfig struct {
	Concurrency int   `mapstructure:"concurrency"  yaml:"concurrency"`
	DefaultCIKs []int `mapstructure:"default_ciks" yaml:"default_ciks"`
	RecentLimit int   `mapstructure:"recent_limit" yaml:"recent_limit"`
}

// EventsConfig holds import event sinks.
type EventsConfig struct {
	Kafka KafkaConfig `mapstructure:"kafka" yaml:"kafka"`
}

// KafkaConfig holds the Kafka publisher settings.
type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled" yaml:"enabled"`
	Brokers []string `mapstructure:"brokers" yaml:"brokers"`
	Topic   string   `mapstructure:"topic"   yaml:"topic"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host              string   `mapstructure:"host"                yaml:"host"`
	Port              int      `mapstructure:"port"                yaml:"port"`
	CORSOrigins       []string `mapstructure:"cors_origins"        yaml:"cors_origins"`
	RequestTimeoutSec int      `mapstructure:"request_timeout_sec" yaml:"request_timeout_sec"`
}

// Addr returns host:port for net/http.
func (c APIConfig) Addr() string { return fmt.Sprintf("%s:%d", c.Host, c.Port) }

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.fundseeker/config.yaml (home directory)
//  3. /etc/fundseeker/config.yaml (system)
//
// A .env file in the working directory is loaded first; variables already
// set in the process environment win. Environment variables override config
// file values. Format: FUNDSEEKER_<SECTION>_<KEY>, e.g. FUNDSEEKER_STORAGE_DSN.
func Load() (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".fundseeker"))
	v.AddConfigPath("/etc/fundseeker")

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return decode(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadDotEnv loads ./.env when present.
func loadDotEnv() error {
	err := godotenv.Load()
	if err == nil || errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("error loading .env: %w", err)
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// EDGAR defaults (SEC fair access: max 10 req/s)
	v.SetDefault("edgar.base_url", "https://data.sec.gov")
	v.SetDefault("edgar.feed_url", "https://www.sec.gov/cgi-bin/browse-edgar")
	v.SetDefault("edgar.user_agent", "fundseeker/1.0 (admin@fundseeker.local)")
	v.SetDefault("edgar.timeout_sec", 30)
	v.SetDefault("edgar.rate_limit", 10)
	v.SetDefault("edgar.cache_ttl", 600) // 10 minutes

	// Storage defaults
	v.SetDefault("storage.driver", "sqlite")
	v.SetDefault("storage.path", "fundseeker.db")
	v.SetDefault("storage.dsn", "")

	// Import defaults
	v.SetDefault("import.concurrency", 4)
	v.SetDefault("import.default_ciks", []int{320193, 789019, 1018724, 1318605, 1652044})
	v.SetDefault("import.recent_limit", 20)

	// Events defaults
	v.SetDefault("events.kafka.enabled", false)
	v.SetDefault("events.kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("events.kafka.topic", "fundseeker.company_imported")

	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"http://localhost:3000"})
	v.SetDefault("api.request_timeout_sec", 60)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Validate rejects settings the services cannot run with.
func (c *Config) Validate() error {
	var errs []error
	switch strings.ToLower(c.Storage.Driver) {
	case "memory":
	case "sqlite":
		if strings.TrimSpace(c.Storage.Path) == "" {
			errs = append(errs, errors.New("storage.path is required for sqlite"))
		}
	case "postgres":
		if strings.TrimSpace(c.Storage.DSN) == "" {
			errs = append(errs, errors.New("storage.dsn is required for postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.driver %q is not one of memory, sqlite, postgres", c.Storage.Driver))
	}
	if strings.TrimSpace(c.EDGAR.UserAgent) == "" {
		errs = append(errs, errors.New("edgar.user_agent is required by SEC fair access policy"))
	}
	if c.Import.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("import.concurrency must be at least 1, got %d", c.Import.Concurrency))
	}
	if c.Events.Kafka.Enabled && len(c.Events.Kafka.Brokers) == 0 {
		errs = append(errs, errors.New("events.kafka.brokers is required when kafka is enabled"))
	}
	if c.API.Port < 0 || c.API.Port > 65535 {
		errs = append(errs, fmt.Errorf("api.port %d out of range", c.API.Port))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
