package config

import "os"

// APIKeySource represents where an API key comes from.
type APIKeySource string

const (
	KeySourceEnv    APIKeySource = "env"
	KeySourceConfig APIKeySource = "config"
	KeySourceDemo   APIKeySource = "demo"
	KeySourceNone   APIKeySource = "none"
)

// KeyStatus represents the status of an API key.
type KeyStatus struct {
	Name   string       `json:"name"`
	Source APIKeySource `json:"source"`
	IsSet  bool         `json:"is_set"`
	Masked string       `json:"masked,omitempty"` // e.g., "AB1...XYZ"
}

// CheckAPIKeys returns the status of all API keys the services use.
func CheckAPIKeys(cfg *Config) []KeyStatus {
	return []KeyStatus{
		checkKey("Alpha Vantage API Key", cfg.AlphaVantage.APIKey, "STOCKBRIEF_ALPHA_VANTAGE_API_KEY", envAlphaVantageKey),
		checkKey("Gemini API Key", cfg.Gemini.APIKey, "STOCKBRIEF_GEMINI_API_KEY", envGeminiKey),
	}
}

// checkKey checks if a key is set and where it came from.
func checkKey(name, value string, envVars ...string) KeyStatus {
	status := KeyStatus{Name: name}

	switch {
	case value == "":
		status.Source = KeySourceNone
	case value == DemoKey:
		status.Source = KeySourceDemo
	default:
		status.IsSet = true
		status.Source = KeySourceConfig
		for _, e := range envVars {
			if os.Getenv(e) != "" {
				status.Source = KeySourceEnv
				break
			}
		}
		status.Masked = maskKey(value)
	}

	return status
}

// maskKey masks an API key for display, showing only first 3 and last 3 chars.
func maskKey(key string) string {
	if len(key) <= 8 {
		return "***"
	}
	return key[:3] + "..." + key[len(key)-3:]
}
