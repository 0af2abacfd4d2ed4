package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// clearKeyEnv blanks every variable that could leak a real key into a test.
func clearKeyEnv(t *testing.T) {
	t.Helper()
	for _, e := range []string{
		"STOCKBRIEF_ALPHA_VANTAGE_API_KEY", "ALPHA_VANTAGE_API_KEY",
		"STOCKBRIEF_GEMINI_API_KEY", "GEMINI_API_KEY",
		"STOCKBRIEF_STORE_DSN", "DATABASE_URL",
	} {
		t.Setenv(e, "")
	}
}

// ── Load / Defaults ──

func TestLoadReturnsDefaults(t *testing.T) {
	clearKeyEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	// Alpha Vantage defaults
	if cfg.AlphaVantage.APIKey != DemoKey {
		t.Errorf("AlphaVantage.APIKey: got %q, want %q", cfg.AlphaVantage.APIKey, DemoKey)
	}
	if cfg.AlphaVantage.BaseURL != "https://www.alphavantage.co/query" {
		t.Errorf("AlphaVantage.BaseURL: got %q", cfg.AlphaVantage.BaseURL)
	}
	if cfg.AlphaVantage.NewsTimeout != 5*time.Second {
		t.Errorf("AlphaVantage.NewsTimeout: got %v, want 5s", cfg.AlphaVantage.NewsTimeout)
	}
	if cfg.AlphaVantage.QuoteTimeout != 30*time.Second {
		t.Errorf("AlphaVantage.QuoteTimeout: got %v, want 30s", cfg.AlphaVantage.QuoteTimeout)
	}
	if cfg.AlphaVantage.NewsLimit != 15 {
		t.Errorf("AlphaVantage.NewsLimit: got %d, want 15", cfg.AlphaVantage.NewsLimit)
	}

	// Gemini defaults
	if cfg.Gemini.APIKey != DemoKey {
		t.Errorf("Gemini.APIKey: got %q, want %q", cfg.Gemini.APIKey, DemoKey)
	}
	if cfg.Gemini.Model != "gemini-2.5-flash" {
		t.Errorf("Gemini.Model: got %q", cfg.Gemini.Model)
	}

	// Store / API / Logging defaults
	if cfg.Store.Driver != StoreMemory {
		t.Errorf("Store.Driver: got %q, want %q", cfg.Store.Driver, StoreMemory)
	}
	if cfg.API.Port != 8080 {
		t.Errorf("API.Port: got %d, want 8080", cfg.API.Port)
	}
	if cfg.API.Addr() != "0.0.0.0:8080" {
		t.Errorf("API.Addr(): got %q", cfg.API.Addr())
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level: got %q, want %q", cfg.Logging.Level, "info")
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Logging.Format: got %q, want %q", cfg.Logging.Format, "text")
	}
}

func TestLoadPlainEnvKeys(t *testing.T) {
	clearKeyEnv(t)
	t.Setenv("ALPHA_VANTAGE_API_KEY", "AVKEY123456789")
	t.Setenv("GEMINI_API_KEY", "gemini-key-abcdef")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.AlphaVantage.APIKey != "AVKEY123456789" {
		t.Errorf("AlphaVantage.APIKey: got %q", cfg.AlphaVantage.APIKey)
	}
	if cfg.Gemini.APIKey != "gemini-key-abcdef" {
		t.Errorf("Gemini.APIKey: got %q", cfg.Gemini.APIKey)
	}
}

// ── LoadFromFile ──

func TestLoadFromFile(t *testing.T) {
	clearKeyEnv(t)

	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "test_config.yaml")
	content := []byte(`
alpha_vantage:
  api_key: "file-av-key-123456"
  news_timeout: "3s"
  news_limit: 10
gemini:
  api_key: "file-gemini-key-123456"
  model: "gemini-2.0-flash"
store:
  driver: "postgres"
  dsn: "postgres://localhost/stockbrief"
api:
  port: 9090
logging:
  level: "debug"
  format: "json"
`)
	if err := os.WriteFile(cfgPath, content, 0644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	cfg, err := LoadFromFile(cfgPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error: %v", err)
	}
	if cfg.AlphaVantage.APIKey != "file-av-key-123456" {
		t.Errorf("AlphaVantage.APIKey: got %q", cfg.AlphaVantage.APIKey)
	}
	if cfg.AlphaVantage.NewsTimeout != 3*time.Second {
		t.Errorf("AlphaVantage.NewsTimeout: got %v, want 3s", cfg.AlphaVantage.NewsTimeout)
	}
	if cfg.AlphaVantage.NewsLimit != 10 {
		t.Errorf("AlphaVantage.NewsLimit: got %d, want 10", cfg.AlphaVantage.NewsLimit)
	}
	if cfg.Gemini.Model != "gemini-2.0-flash" {
		t.Errorf("Gemini.Model: got %q", cfg.Gemini.Model)
	}
	if cfg.Store.Driver != StorePostgres || cfg.Store.DSN != "postgres://localhost/stockbrief" {
		t.Errorf("Store: got %+v", cfg.Store)
	}
	if cfg.API.Port != 9090 {
		t.Errorf("API.Port: got %d, want 9090", cfg.API.Port)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("Logging: got %+v", cfg.Logging)
	}
}

func TestLoadFromFileNotFound(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("LoadFromFile() with nonexistent path should return error")
	}
}

func TestLoadFromFileInvalidDriver(t *testing.T) {
	clearKeyEnv(t)

	cfgPath := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(cfgPath, []byte("store:\n  driver: \"sqlite\"\n"), 0644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	_, err := LoadFromFile(cfgPath)
	if err == nil || !strings.Contains(err.Error(), "store.driver") {
		t.Fatalf("expected store.driver error, got %v", err)
	}
}

// ── overrideFromEnv / applyDemoKeys ──

func TestOverrideFromEnvPrefixedWins(t *testing.T) {
	clearKeyEnv(t)
	t.Setenv("STOCKBRIEF_GEMINI_API_KEY", "prefixed")
	t.Setenv("GEMINI_API_KEY", "plain")
	t.Setenv("DATABASE_URL", "postgres://db/stocks")

	cfg := &Config{}
	overrideFromEnv(cfg)

	if cfg.Gemini.APIKey != "prefixed" {
		t.Errorf("Gemini.APIKey: got %q, want %q", cfg.Gemini.APIKey, "prefixed")
	}
	if cfg.Store.DSN != "postgres://db/stocks" {
		t.Errorf("Store.DSN: got %q", cfg.Store.DSN)
	}
}

func TestOverrideFromEnvNoEnvSet(t *testing.T) {
	clearKeyEnv(t)

	cfg := &Config{AlphaVantage: AlphaVantageConfig{APIKey: "from-config"}}
	overrideFromEnv(cfg)

	if cfg.AlphaVantage.APIKey != "from-config" {
		t.Errorf("APIKey should stay as 'from-config' when env is unset, got %q", cfg.AlphaVantage.APIKey)
	}
}

func TestApplyDemoKeys(t *testing.T) {
	cfg := &Config{Gemini: GeminiConfig{APIKey: "real-key"}}
	applyDemoKeys(cfg)
	if cfg.AlphaVantage.APIKey != DemoKey {
		t.Errorf("AlphaVantage.APIKey: got %q, want %q", cfg.AlphaVantage.APIKey, DemoKey)
	}
	if cfg.Gemini.APIKey != "real-key" {
		t.Errorf("Gemini.APIKey should be untouched, got %q", cfg.Gemini.APIKey)
	}
}

func TestIsDemoKey(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"", true},
		{"demo", true},
		{"  demo ", true},
		{"DEMO", false},
		{"ABCDEF123", false},
	}
	for _, tc := range tests {
		if got := IsDemoKey(tc.key); got != tc.want {
			t.Errorf("IsDemoKey(%q) = %v, want %v", tc.key, got, tc.want)
		}
	}
}

// ── Validate ──

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			AlphaVantage: AlphaVantageConfig{
				BaseURL: "https://www.alphavantage.co/query", NewsTimeout: time.Second,
				QuoteTimeout: time.Second, NewsLimit: 15,
			},
			Gemini: GeminiConfig{Model: "gemini-2.5-flash", Timeout: time.Second},
			Store:  StoreConfig{Driver: StoreMemory},
		}
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("valid config: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no base url", func(c *Config) { c.AlphaVantage.BaseURL = "" }},
		{"zero news timeout", func(c *Config) { c.AlphaVantage.NewsTimeout = 0 }},
		{"negative quote timeout", func(c *Config) { c.AlphaVantage.QuoteTimeout = -time.Second }},
		{"zero news limit", func(c *Config) { c.AlphaVantage.NewsLimit = 0 }},
		{"negative request rate", func(c *Config) { c.AlphaVantage.RequestsPerMinute = -1 }},
		{"no model", func(c *Config) { c.Gemini.Model = "" }},
		{"zero gemini timeout", func(c *Config) { c.Gemini.Timeout = 0 }},
		{"postgres without dsn", func(c *Config) { c.Store.Driver = StorePostgres }},
		{"unknown driver", func(c *Config) { c.Store.Driver = "bolt" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			if err := c.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

// ── maskKey ──

func TestAPIConfigAddr(t *testing.T) {
	tests := []struct {
		cfg  APIConfig
		want string
	}{
		{APIConfig{Host: "0.0.0.0", Port: 8080}, "0.0.0.0:8080"},
		{APIConfig{Host: "", Port: 9000}, ":9000"},
		{APIConfig{Host: "::1", Port: 8080}, "[::1]:8080"},
	}
	for _, tt := range tests {
		if got := tt.cfg.Addr(); got != tt.want {
			t.Errorf("%+v.Addr() = %q, want %q", tt.cfg, got, tt.want)
		}
	}
}

func TestMaskKey(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", "***"},
		{"abcd", "***"},
		{"12345678", "***"},
		{"123456789", "123...789"},
		{"ABCDEFGHIJKLMNOP", "ABC...NOP"},
	}
	for _, tc := range tests {
		if got := maskKey(tc.input); got != tc.want {
			t.Errorf("maskKey(%q): got %q, want %q", tc.input, got, tc.want)
		}
	}
}

// ── CheckAPIKeys / checkKey ──

func TestCheckAPIKeysDemo(t *testing.T) {
	clearKeyEnv(t)

	cfg := &Config{
		AlphaVantage: AlphaVantageConfig{APIKey: DemoKey},
		Gemini:       GeminiConfig{APIKey: DemoKey},
	}
	statuses := CheckAPIKeys(cfg)
	if len(statuses) != 2 {
		t.Fatalf("CheckAPIKeys: got %d statuses, want 2", len(statuses))
	}
	for _, s := range statuses {
		if s.IsSet {
			t.Errorf("Key %q should not be set", s.Name)
		}
		if s.Source != KeySourceDemo {
			t.Errorf("Key %q source: got %q, want %q", s.Name, s.Source, KeySourceDemo)
		}
	}
}

func TestCheckKeySourceDetection(t *testing.T) {
	t.Setenv("TEST_VAR", "")
	t.Setenv("TEST_VAR_PLAIN", "")

	s := checkKey("Test", "", "TEST_VAR")
	if s.Source != KeySourceNone || s.IsSet {
		t.Errorf("empty value: got %+v", s)
	}

	s = checkKey("Test", "config-value-long-enough", "TEST_VAR", "TEST_VAR_PLAIN")
	if s.Source != KeySourceConfig || !s.IsSet {
		t.Errorf("config value: got %+v", s)
	}
	if s.Masked != "con...ugh" {
		t.Errorf("Masked: got %q", s.Masked)
	}

	t.Setenv("TEST_VAR_PLAIN", "env-value-long-enough")
	s = checkKey("Test", "env-value-long-enough", "TEST_VAR", "TEST_VAR_PLAIN")
	if s.Source != KeySourceEnv {
		t.Errorf("env value: got source %q, want %q", s.Source, KeySourceEnv)
	}
}
