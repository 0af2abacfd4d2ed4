// Package config handles configuration loading for stockbrief.
// It supports YAML config files, a local .env file, and environment variable
// overrides. Missing API keys fall back to the DemoKey sentinel, which the
// market and insight services treat as "not configured".
package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DemoKey is the sentinel API key value meaning "no credential configured".
const DemoKey = "demo"

// Store drivers.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Config represents the complete application configuration.
type Config struct {
	AlphaVantage AlphaVantageConfig `mapstructure:"alpha_vantage" yaml:"alpha_vantage"`
	Gemini       GeminiConfig       `mapstructure:"gemini"        yaml:"gemini"`
	Store        StoreConfig        `mapstructure:"store"         yaml:"store"`
	API          APIConfig          `mapstructure:"api"           yaml:"api"`
	Logging      LoggingConfig      `mapstructure:"logging"       yaml:"logging"`
}

// AlphaVantageConfig holds the market data API settings.
type AlphaVantageConfig struct {
	APIKey       string        `mapstructure:"api_key"       yaml:"api_key"`
	BaseURL      string        `mapstructure:"base_url"      yaml:"base_url"`
	NewsTimeout  time.Duration `mapstructure:"news_timeout"  yaml:"news_timeout"`
	QuoteTimeout time.Duration `mapstructure:"quote_timeout" yaml:"quote_timeout"`
	NewsLimit    int           `mapstructure:"news_limit"    yaml:"news_limit"` // articles requested from NEWS_SENTIMENT

	// RequestsPerMinute throttles outbound calls; 0 disables throttling.
	RequestsPerMinute int `mapstructure:"requests_per_minute" yaml:"requests_per_minute"`
}

// GeminiConfig holds the generative AI settings.
type GeminiConfig struct {
	APIKey  string        `mapstructure:"api_key"  yaml:"api_key"`
	Model   string        `mapstructure:"model"    yaml:"model"`
	BaseURL string        `mapstructure:"base_url" yaml:"base_url"` // empty = SDK default endpoint
	Timeout time.Duration `mapstructure:"timeout"  yaml:"timeout"`
}

// StoreConfig selects the stock record persistence backend.
type StoreConfig struct {
	Driver string `mapstructure:"driver" yaml:"driver"` // "memory" or "postgres"
	DSN    string `mapstructure:"dsn"    yaml:"dsn"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.stockbrief/config.yaml (home directory)
//  3. /etc/stockbrief/config.yaml (system)
//
// A .env file in the working directory is loaded first; variables already
// present in the environment win. Environment variables override config file
// values. Format: STOCKBRIEF_<SECTION>_<KEY>, e.g., STOCKBRIEF_GEMINI_API_KEY.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".stockbrief"))
	v.AddConfigPath("/etc/stockbrief")

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return decode(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	_ = godotenv.Load()

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
	v.SetEnvPrefix("STOCKBRIEF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&cfg)
	applyDemoKeys(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// Alpha Vantage defaults
	v.SetDefault("alpha_vantage.api_key", "")
	v.SetDefault("alpha_vantage.base_url", "https://www.alphavantage.co/query")
	v.SetDefault("alpha_vantage.news_timeout", 5*time.Second)
	v.SetDefault("alpha_vantage.quote_timeout", 30*time.Second)
	v.SetDefault("alpha_vantage.news_limit", 15)
	v.SetDefault("alpha_vantage.requests_per_minute", 0)

	// Gemini defaults
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model", "gemini-2.5-flash")
	v.SetDefault("gemini.base_url", "")
	v.SetDefault("gemini.timeout", 30*time.Second)

	// Store defaults
	v.SetDefault("store.driver", StoreMemory)
	v.SetDefault("store.dsn", "")

	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"http://localhost:3000"})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Unprefixed variable names, also accepted from the environment and .env.
const (
	envAlphaVantageKey = "ALPHA_VANTAGE_API_KEY"
	envGeminiKey       = "GEMINI_API_KEY"
	envDatabaseURL     = "DATABASE_URL"
)

// overrideFromEnv explicitly reads sensitive keys from environment variables.
// Prefixed variables take precedence over the plain ones.
func overrideFromEnv(cfg *Config) {
	if key := firstEnv("STOCKBRIEF_ALPHA_VANTAGE_API_KEY", envAlphaVantageKey); key != "" {
		cfg.AlphaVantage.APIKey = key
	}
	if key := firstEnv("STOCKBRIEF_GEMINI_API_KEY", envGeminiKey); key != "" {
		cfg.Gemini.APIKey = key
	}
	if dsn := firstEnv("STOCKBRIEF_STORE_DSN", envDatabaseURL); dsn != "" {
		cfg.Store.DSN = dsn
	}
}

// applyDemoKeys replaces missing API keys with the DemoKey sentinel.
func applyDemoKeys(cfg *Config) {
	if strings.TrimSpace(cfg.AlphaVantage.APIKey) == "" {
		cfg.AlphaVantage.APIKey = DemoKey
	}
	if strings.TrimSpace(cfg.Gemini.APIKey) == "" {
		cfg.Gemini.APIKey = DemoKey
	}
}

// IsDemoKey reports whether key means "no credential configured".
func IsDemoKey(key string) bool {
	key = strings.TrimSpace(key)
	return key == "" || key == DemoKey
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.AlphaVantage.BaseURL == "" {
		return fmt.Errorf("config: alpha_vantage.base_url is required")
	}
	if c.AlphaVantage.NewsTimeout <= 0 {
		return fmt.Errorf("config: alpha_vantage.news_timeout must be positive, got %v", c.AlphaVantage.NewsTimeout)
	}
	if c.AlphaVantage.QuoteTimeout <= 0 {
		return fmt.Errorf("config: alpha_vantage.quote_timeout must be positive, got %v", c.AlphaVantage.QuoteTimeout)
	}
	if c.AlphaVantage.NewsLimit <= 0 {
		return fmt.Errorf("config: alpha_vantage.news_limit must be positive, got %d", c.AlphaVantage.NewsLimit)
	}
	if c.AlphaVantage.RequestsPerMinute < 0 {
		return fmt.Errorf("config: alpha_vantage.requests_per_minute must not be negative, got %d", c.AlphaVantage.RequestsPerMinute)
	}
	if c.Gemini.Model == "" {
		return fmt.Errorf("config: gemini.model is required")
	}
	if c.Gemini.Timeout <= 0 {
		return fmt.Errorf("config: gemini.timeout must be positive, got %v", c.Gemini.Timeout)
	}
	switch c.Store.Driver {
	case StoreMemory:
	case StorePostgres:
		if c.Store.DSN == "" {
			return fmt.Errorf("config: store.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("config: unknown store.driver %q", c.Store.Driver)
	}
	return nil
}

// Addr returns the API listen address.
func (c APIConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func firstEnv(names ...string) string {
	for _, n := range names {
		if v := os.Getenv(n); v != "" {
			return v
		}
	}
	return ""
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
