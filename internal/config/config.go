// Package config provides configuration loading and validation for the
// verification service and CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// Config represents the service configuration. It can be loaded from a JSON
// file, from the environment, or both; all fields are optional and missing
// values use defaults or must be provided via CLI flags.
type Config struct {
	// Server
	ListenAddr string `json:"listen_addr,omitempty"` // HTTP listen address
	JWTSecret  string `json:"jwt_secret,omitempty"`  // API auth secret

	// Storage
	DatabaseURL string `json:"database_url,omitempty"` // PostgreSQL connection URL
	RedisURL    string `json:"redis_url,omitempty"`    // Redis URL for the policy cache

	// External services
	GeminiAPIKey     string `json:"gemini_api_key,omitempty"`     // Gemini API key
	SearchAPIKey     string `json:"search_api_key,omitempty"`     // Custom Search API key
	SearchCX         string `json:"search_cx,omitempty"`          // Custom Search engine ID
	PeopleDataURL    string `json:"people_data_url,omitempty"`    // People-data API base URL
	PeopleDataAPIKey string `json:"people_data_api_key,omitempty"`
	CallerBaseURL    string `json:"caller_base_url,omitempty"` // Voice-agent provider API root
	CallerAPIKey     string `json:"caller_api_key,omitempty"`
	EmailerBaseURL   string `json:"emailer_base_url,omitempty"` // Transactional email API root
	EmailerAPIKey    string `json:"emailer_api_key,omitempty"`
	EmailFrom        string `json:"email_from,omitempty"`  // Sender address for verification emails
	LedgerURL        string `json:"ledger_url,omitempty"`  // Attestation ledger API root
	LedgerAPIKey     string `json:"ledger_api_key,omitempty"`
	WebhookSecret    string `json:"webhook_secret,omitempty"` // Shared secret on inbound webhooks

	// Behavior
	UseBrowser bool `json:"use_browser,omitempty"` // Use headless browser for SPA sites
	Verbose    bool `json:"verbose,omitempty"`     // Print detailed debug information
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// FromEnv reads configuration from environment variables, loading a .env
// file first when one exists. Environment values never override fields the
// caller already set.
func (c *Config) FromEnv() {
	_ = godotenv.Load()

	setIfEmpty(&c.ListenAddr, "LISTEN_ADDR")
	setIfEmpty(&c.JWTSecret, "JWT_SECRET")
	setIfEmpty(&c.DatabaseURL, "DATABASE_URL")
	setIfEmpty(&c.RedisURL, "REDIS_URL")
	setIfEmpty(&c.GeminiAPIKey, "GEMINI_API_KEY")
	setIfEmpty(&c.SearchAPIKey, "SEARCH_API_KEY")
	setIfEmpty(&c.SearchCX, "SEARCH_CX")
	setIfEmpty(&c.PeopleDataURL, "PEOPLE_DATA_URL")
	setIfEmpty(&c.PeopleDataAPIKey, "PEOPLE_DATA_API_KEY")
	setIfEmpty(&c.CallerBaseURL, "CALLER_BASE_URL")
	setIfEmpty(&c.CallerAPIKey, "CALLER_API_KEY")
	setIfEmpty(&c.EmailerBaseURL, "EMAILER_BASE_URL")
	setIfEmpty(&c.EmailerAPIKey, "EMAILER_API_KEY")
	setIfEmpty(&c.EmailFrom, "EMAIL_FROM")
	setIfEmpty(&c.LedgerURL, "LEDGER_URL")
	setIfEmpty(&c.LedgerAPIKey, "LEDGER_API_KEY")
	setIfEmpty(&c.WebhookSecret, "WEBHOOK_SECRET")
}

func setIfEmpty(dst *string, key string) {
	if *dst == "" {
		*dst = os.Getenv(key)
	}
}

// Validate checks that the configuration has valid values. Required-field
// checks live with the commands that need them; this only catches values
// that can never be right.
func (c *Config) Validate() error {
	if c.RedisURL != "" && c.DatabaseURL == "" {
		return fmt.Errorf("config error: 'redis_url' requires 'database_url' (the cache fronts the database)")
	}
	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from
// defaults. This is used to apply config file values as defaults for CLI
// flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.ListenAddr == "" {
		result.ListenAddr = defaults.ListenAddr
	}
	if result.JWTSecret == "" {
		result.JWTSecret = defaults.JWTSecret
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.RedisURL == "" {
		result.RedisURL = defaults.RedisURL
	}
	if result.GeminiAPIKey == "" {
		result.GeminiAPIKey = defaults.GeminiAPIKey
	}
	if result.SearchAPIKey == "" {
		result.SearchAPIKey = defaults.SearchAPIKey
	}
	if result.SearchCX == "" {
		result.SearchCX = defaults.SearchCX
	}
	if result.PeopleDataURL == "" {
		result.PeopleDataURL = defaults.PeopleDataURL
	}
	if result.PeopleDataAPIKey == "" {
		result.PeopleDataAPIKey = defaults.PeopleDataAPIKey
	}
	if result.CallerBaseURL == "" {
		result.CallerBaseURL = defaults.CallerBaseURL
	}
	if result.CallerAPIKey == "" {
		result.CallerAPIKey = defaults.CallerAPIKey
	}
	if result.EmailerBaseURL == "" {
		result.EmailerBaseURL = defaults.EmailerBaseURL
	}
	if result.EmailerAPIKey == "" {
		result.EmailerAPIKey = defaults.EmailerAPIKey
	}
	if result.EmailFrom == "" {
		result.EmailFrom = defaults.EmailFrom
	}
	if result.LedgerURL == "" {
		result.LedgerURL = defaults.LedgerURL
	}
	if result.LedgerAPIKey == "" {
		result.LedgerAPIKey = defaults.LedgerAPIKey
	}
	if result.WebhookSecret == "" {
		result.WebhookSecret = defaults.WebhookSecret
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}
