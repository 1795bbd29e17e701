package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the complete service configuration
type Config struct {
	Server     ServerConfig     `json:"server" yaml:"server"`
	Store      StoreConfig      `json:"store" yaml:"store"`
	MarketData MarketDataConfig `json:"marketdata" yaml:"marketdata"`
	Cache      CacheConfig      `json:"cache" yaml:"cache"`
	Enrich     EnrichConfig     `json:"enrich" yaml:"enrich"`
	Log        LogConfig        `json:"log" yaml:"log"`
	Tracing    TracingConfig    `json:"tracing" yaml:"tracing"`
}

// ServerConfig contains the HTTP listener settings. Durations use
// time.ParseDuration syntax, e.g. "15s".
type ServerConfig struct {
	Addr            string   `json:"addr" yaml:"addr"`
	AllowedOrigins  []string `json:"allowed_origins,omitempty" yaml:"allowed_origins,omitempty"`
	ReadTimeout     string   `json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    string   `json:"write_timeout" yaml:"write_timeout"`
	IdleTimeout     string   `json:"idle_timeout" yaml:"idle_timeout"`
	ShutdownTimeout string   `json:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// StoreConfig selects the trade repository
type StoreConfig struct {
	Driver string `json:"driver" yaml:"driver"` // "memory", "sqlite" or "postgres"
	Path   string `json:"path,omitempty" yaml:"path,omitempty"`
	DSN    string `json:"dsn,omitempty" yaml:"dsn,omitempty"`
}

// MarketDataConfig selects the quote provider
type MarketDataConfig struct {
	Provider          string `json:"provider" yaml:"provider"` // "static" or "alphavantage"
	QuotesFile        string `json:"quotes_file,omitempty" yaml:"quotes_file,omitempty"`
	APIKey            string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	BaseURL           string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	OutputSize        string `json:"output_size,omitempty" yaml:"output_size,omitempty"`
	RequestsPerMinute int    `json:"requests_per_minute" yaml:"requests_per_minute"`
	Timeout           string `json:"timeout" yaml:"timeout"`
}

// CacheConfig selects where quotes are cached
type CacheConfig struct {
	Type          string `json:"type" yaml:"type"` // "none", "memory" or "redis"
	MaxEntries    int    `json:"max_entries,omitempty" yaml:"max_entries,omitempty"`
	RedisAddr     string `json:"redis_addr,omitempty" yaml:"redis_addr,omitempty"`
	RedisPassword string `json:"redis_password,omitempty" yaml:"redis_password,omitempty"`
	RedisDB       int    `json:"redis_db,omitempty" yaml:"redis_db,omitempty"`
	TTL           string `json:"ttl,omitempty" yaml:"ttl,omitempty"`
}

// EnrichConfig tunes rating backfill on read
type EnrichConfig struct {
	BackfillTimeout string `json:"backfill_timeout" yaml:"backfill_timeout"`
	Concurrency     int    `json:"concurrency" yaml:"concurrency"`
}

type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"` // "json" or "console"
}

type TracingConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
}

// Duration parses a configured duration. Empty means zero.
func Duration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}

// MustDuration is Duration for values that Validate has already checked.
func MustDuration(s string) time.Duration {
	d, err := Duration(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Load reads .env into the environment, then the config file at path (the
// defaults when path is empty), then applies environment overrides and
// validates the result.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := parse(data, cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a file (JSON or YAML). Fields the
// file omits keep their defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	if err := parse(data, cfg); err != nil {
		return nil, err
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func parse(data []byte, cfg *Config) error {
	// Try YAML first, fall back to JSON
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}
	return nil
}

// SaveToFile saves configuration to a file (YAML for .yaml/.yml, JSON otherwise)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}

	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// ApplyEnv overrides fields from environment variables. lookup is usually
// os.LookupEnv. Priority: env > file > defaults.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %q is not an integer", key, v)
		}
		*dst = n
		return nil
	}

	str("TRADEJOURNAL_ADDR", &c.Server.Addr)
	if v, ok := lookup("TRADEJOURNAL_ALLOWED_ORIGINS"); ok && v != "" {
		c.Server.AllowedOrigins = strings.Split(v, ",")
	}
	str("TRADEJOURNAL_STORE_DRIVER", &c.Store.Driver)
	str("TRADEJOURNAL_STORE_PATH", &c.Store.Path)
	str("TRADEJOURNAL_STORE_DSN", &c.Store.DSN)
	str("TRADEJOURNAL_MARKETDATA_PROVIDER", &c.MarketData.Provider)
	str("TRADEJOURNAL_QUOTES_FILE", &c.MarketData.QuotesFile)
	str("ALPHAVANTAGE_API_KEY", &c.MarketData.APIKey)
	str("TRADEJOURNAL_CACHE_TYPE", &c.Cache.Type)
	str("TRADEJOURNAL_REDIS_ADDR", &c.Cache.RedisAddr)
	str("TRADEJOURNAL_REDIS_PASSWORD", &c.Cache.RedisPassword)
	if err := num("TRADEJOURNAL_REDIS_DB", &c.Cache.RedisDB); err != nil {
		return err
	}
	if err := num("TRADEJOURNAL_BACKFILL_CONCURRENCY", &c.Enrich.Concurrency); err != nil {
		return err
	}
	str("TRADEJOURNAL_LOG_LEVEL", &c.Log.Level)
	str("TRADEJOURNAL_LOG_FORMAT", &c.Log.Format)

	if v, ok := lookup("TRADEJOURNAL_TRACING"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("TRADEJOURNAL_TRACING: %q is not a boolean", v)
		}
		c.Tracing.Enabled = b
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	for name, v := range map[string]string{
		"server.read_timeout":     c.Server.ReadTimeout,
		"server.write_timeout":    c.Server.WriteTimeout,
		"server.idle_timeout":     c.Server.IdleTimeout,
		"server.shutdown_timeout": c.Server.ShutdownTimeout,
		"marketdata.timeout":      c.MarketData.Timeout,
		"cache.ttl":               c.Cache.TTL,
		"enrich.backfill_timeout": c.Enrich.BackfillTimeout,
	} {
		if d, err := Duration(v); err != nil || d < 0 {
			return fmt.Errorf("%s: invalid duration %q", name, v)
		}
	}

	switch c.Store.Driver {
	case "memory":
	case "sqlite":
		if c.Store.Path == "" {
			return fmt.Errorf("store.path required for sqlite driver")
		}
	case "postgres":
		if c.Store.DSN == "" {
			return fmt.Errorf("store.dsn required for postgres driver")
		}
	default:
		return fmt.Errorf("store.driver must be 'memory', 'sqlite' or 'postgres'")
	}

	switch c.MarketData.Provider {
	case "static":
	case "alphavantage":
		if c.MarketData.APIKey == "" {
			return fmt.Errorf("marketdata.api_key (or ALPHAVANTAGE_API_KEY) required for alphavantage provider")
		}
	default:
		return fmt.Errorf("marketdata.provider must be 'static' or 'alphavantage'")
	}
	if c.MarketData.RequestsPerMinute < 0 {
		return fmt.Errorf("marketdata.requests_per_minute must not be negative")
	}

	switch c.Cache.Type {
	case "none", "memory":
	case "redis":
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("cache.redis_addr required for redis cache")
		}
	default:
		return fmt.Errorf("cache.type must be 'none', 'memory' or 'redis'")
	}
	if c.Cache.MaxEntries < 0 {
		return fmt.Errorf("cache.max_entries must not be negative")
	}

	if c.Enrich.Concurrency < 0 {
		return fmt.Errorf("enrich.concurrency must not be negative")
	}
	if c.Log.Format != "json" && c.Log.Format != "console" {
		return fmt.Errorf("log.format must be 'json' or 'console'")
	}
	return nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     "15s",
			WriteTimeout:    "30s",
			IdleTimeout:     "60s",
			ShutdownTimeout: "10s",
		},
		Store: StoreConfig{
			Driver: "sqlite",
			Path:   "./tradejournal.db",
		},
		MarketData: MarketDataConfig{
			Provider:          "static",
			BaseURL:           "https://www.alphavantage.co",
			OutputSize:        "compact",
			RequestsPerMinute: 5,
			Timeout:           "10s",
		},
		Cache: CacheConfig{
			Type:       "memory",
			MaxEntries: 10000,
			TTL:        "24h",
		},
		Enrich: EnrichConfig{
			BackfillTimeout: "5s",
			Concurrency:     4,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
