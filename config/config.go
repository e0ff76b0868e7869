// Package config provides configuration loading and validation for the
// contract analysis engine.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ValidationError indicates an invalid configuration value. It is fatal at
// construction time; the engine never starts a run with a bad config.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// Config is the complete engine configuration.
type Config struct {
	Model      ModelConfig      `yaml:"model"`
	Analysis   AnalysisConfig   `yaml:"analysis"`
	Guidelines GuidelinesConfig `yaml:"guidelines"`
	Currency   CurrencyConfig   `yaml:"currency"`
}

// ModelConfig configures the external LLM call.
type ModelConfig struct {
	// Provider selects the registered provider ("anthropic", "openai").
	Provider string `yaml:"provider"`
	// Name is the model identifier to call.
	Name string `yaml:"name"`
	// Endpoint overrides the provider base URL (empty = provider default).
	Endpoint string `yaml:"endpoint"`
	// TimeoutSeconds is the per-call deadline.
	TimeoutSeconds int `yaml:"timeout_s"`
	// MaxRetries is the retry budget after the initial attempt.
	MaxRetries int `yaml:"max_retries"`
}

// AnalysisConfig bounds per-run cost and concurrency.
type AnalysisConfig struct {
	// BatchTokenBudget caps the estimated tokens grouped into one call.
	BatchTokenBudget int `yaml:"batch_token_budget"`
	// Workers bounds concurrently running batches.
	Workers int `yaml:"workers"`
	// MaxResponseTokens limits the model response length per call.
	MaxResponseTokens int `yaml:"max_response_tokens"`
}

// GuidelinesConfig locates the guideline rule corpus.
type GuidelinesConfig struct {
	// Dir is the corpus directory holding YAML rule files.
	Dir string `yaml:"dir"`
}

// CurrencyConfig configures cost conversion.
type CurrencyConfig struct {
	// ExchangeRate converts the model-currency amount (USD) to the local
	// currency. The rate value itself is owned by an external collaborator;
	// only its consumption happens here.
	ExchangeRate float64 `yaml:"exchange_rate"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Model: ModelConfig{
			Provider:       "anthropic",
			Name:           "claude-sonnet-4-5",
			TimeoutSeconds: 60,
			MaxRetries:     3,
		},
		Analysis: AnalysisConfig{
			BatchTokenBudget:  8000,
			Workers:           2,
			MaxResponseTokens: 4000,
		},
		Guidelines: GuidelinesConfig{
			Dir: "data/guidelines",
		},
		Currency: CurrencyConfig{
			ExchangeRate: 1300, // USD → KRW
		},
	}
}

// Timeout returns the per-call deadline as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Model.TimeoutSeconds) * time.Second
}

// Validate checks the configuration, returning *ValidationError on the
// first invalid value.
func (c *Config) Validate() error {
	if c.Model.Provider == "" {
		return &ValidationError{Field: "model.provider", Reason: "required"}
	}
	if c.Model.Name == "" {
		return &ValidationError{Field: "model.name", Reason: "required"}
	}
	if c.Model.TimeoutSeconds <= 0 {
		return &ValidationError{Field: "model.timeout_s", Reason: "must be positive"}
	}
	if c.Model.MaxRetries < 0 {
		return &ValidationError{Field: "model.max_retries", Reason: "must not be negative"}
	}
	if c.Analysis.BatchTokenBudget <= 0 {
		return &ValidationError{Field: "analysis.batch_token_budget", Reason: "must be positive"}
	}
	if c.Analysis.Workers <= 0 {
		return &ValidationError{Field: "analysis.workers", Reason: "must be positive"}
	}
	if c.Analysis.MaxResponseTokens <= 0 {
		return &ValidationError{Field: "analysis.max_response_tokens", Reason: "must be positive"}
	}
	if c.Currency.ExchangeRate <= 0 {
		return &ValidationError{Field: "currency.exchange_rate", Reason: "must be positive"}
	}
	return nil
}

// Merge merges another config into this one (other takes precedence for
// non-zero values).
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.Model.Provider != "" {
		c.Model.Provider = other.Model.Provider
	}
	if other.Model.Name != "" {
		c.Model.Name = other.Model.Name
	}
	if other.Model.Endpoint != "" {
		c.Model.Endpoint = other.Model.Endpoint
	}
	if other.Model.TimeoutSeconds != 0 {
		c.Model.TimeoutSeconds = other.Model.TimeoutSeconds
	}
	if other.Model.MaxRetries != 0 {
		c.Model.MaxRetries = other.Model.MaxRetries
	}

	if other.Analysis.BatchTokenBudget != 0 {
		c.Analysis.BatchTokenBudget = other.Analysis.BatchTokenBudget
	}
	if other.Analysis.Workers != 0 {
		c.Analysis.Workers = other.Analysis.Workers
	}
	if other.Analysis.MaxResponseTokens != 0 {
		c.Analysis.MaxResponseTokens = other.Analysis.MaxResponseTokens
	}

	if other.Guidelines.Dir != "" {
		c.Guidelines.Dir = other.Guidelines.Dir
	}

	if other.Currency.ExchangeRate != 0 {
		c.Currency.ExchangeRate = other.Currency.ExchangeRate
	}
}

// LoadFromFile loads configuration from a YAML file on top of defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	return config, nil
}

// ApplyEnv overrides config values from CLAUSECHECK_* environment
// variables. Unset variables leave the config untouched; malformed numeric
// values are reported as *ValidationError.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("CLAUSECHECK_PROVIDER"); v != "" {
		c.Model.Provider = v
	}
	if v := os.Getenv("CLAUSECHECK_MODEL"); v != "" {
		c.Model.Name = v
	}
	if v := os.Getenv("CLAUSECHECK_ENDPOINT"); v != "" {
		c.Model.Endpoint = v
	}
	if v := os.Getenv("CLAUSECHECK_TIMEOUT_S"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return &ValidationError{Field: "CLAUSECHECK_TIMEOUT_S", Reason: "not a number"}
		}
		c.Model.TimeoutSeconds = n
	}
	if v := os.Getenv("CLAUSECHECK_MAX_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return &ValidationError{Field: "CLAUSECHECK_MAX_RETRIES", Reason: "not a number"}
		}
		c.Model.MaxRetries = n
	}
	if v := os.Getenv("CLAUSECHECK_EXCHANGE_RATE"); v != "" {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return &ValidationError{Field: "CLAUSECHECK_EXCHANGE_RATE", Reason: "not a number"}
		}
		c.Currency.ExchangeRate = rate
	}
	if v := os.Getenv("CLAUSECHECK_GUIDELINES_DIR"); v != "" {
		c.Guidelines.Dir = v
	}
	return nil
}

// Load builds the effective configuration: defaults, then the optional
// config file, then environment overrides, then validation.
func Load(path string) (*Config, error) {
	config := DefaultConfig()

	if path != "" {
		fileConfig, err := LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		config.Merge(fileConfig)
	}

	if err := config.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}
