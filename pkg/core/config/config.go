// Copyright SearchChat Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Generation provider selectors.
const (
	GenerationOpenAI = "openai"
	GenerationOllama = "ollama"
)

// ConfigurationError is a fatal startup error: no usable provider, or an
// invalid provider selector. It is never produced after initialization.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Message
}

// NewConfigurationError creates a ConfigurationError with a formatted message.
func NewConfigurationError(format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Message: fmt.Sprintf(format, args...)}
}

// Config represents the main configuration. It is built once at startup
// and passed read-only to every component; nothing mutates it afterwards.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Search     SearchConfig     `yaml:"search"`
	Generation GenerationConfig `yaml:"generation"`
	History    HistoryConfig    `yaml:"history"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host    string        `yaml:"host"`
	Port    int           `yaml:"port"`
	Timeout time.Duration `yaml:"timeout"`
}

// SearchConfig contains search vendor credentials. Which vendor is used is
// decided once at startup: Brave when its API key is set, otherwise SearXNG
// when its base URL is set.
type SearchConfig struct {
	BraveAPIKey    string `yaml:"brave_api_key"`
	SearxngBaseURL string `yaml:"searxng_base_url"`
}

// GenerationConfig contains the generation backend selection and sampling
// defaults. Provider must be "openai" or "ollama"; there is no fallback
// chain between the two.
type GenerationConfig struct {
	Provider      string  `yaml:"provider"`
	Model         string  `yaml:"model"`
	APIKey        string  `yaml:"api_key"`
	BaseURL       string  `yaml:"base_url"`
	OllamaBaseURL string  `yaml:"ollama_base_url"`
	MaxTokens     int     `yaml:"max_tokens"`
	Temperature   float64 `yaml:"temperature"`
}

// HistoryConfig contains the conversation history backend configuration
type HistoryConfig struct {
	Type string `yaml:"type"` // "memory" (default), "postgres" or "sqlite"
	DSN  string `yaml:"dsn"`  // postgres connection string
	Path string `yaml:"path"` // sqlite database file
}

// LoggingConfig contains logger configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load loads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)

	return &cfg, nil
}

// Default returns default configuration built from the environment alone
func Default() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    8135,
			Timeout: 60 * time.Second,
		},
	}
	applyEnvOverrides(cfg)
	applyDefaults(cfg)
	return cfg
}

// applyEnvOverrides loads recognized environment variables over the file
// config. The keys mirror the deployment environment: BRAVE_API_KEY,
// SEARXNG_BASE_URL, LLM_PROVIDER, LLM_MODEL, OPENAI_API_KEY,
// OPENAI_BASE_URL, OLLAMA_BASE_URL.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BRAVE_API_KEY"); v != "" {
		cfg.Search.BraveAPIKey = v
	}
	if v := os.Getenv("SEARXNG_BASE_URL"); v != "" {
		cfg.Search.SearxngBaseURL = v
	}
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		cfg.Generation.Provider = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.Generation.Model = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Generation.APIKey = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		cfg.Generation.BaseURL = v
	}
	if v := os.Getenv("OLLAMA_BASE_URL"); v != "" {
		cfg.Generation.OllamaBaseURL = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8135
	}
	if cfg.Server.Timeout == 0 {
		cfg.Server.Timeout = 60 * time.Second
	}
	if cfg.Generation.Provider == "" {
		cfg.Generation.Provider = GenerationOllama
	}
	if cfg.Generation.Model == "" {
		cfg.Generation.Model = "qwen2.5:7b"
	}
	if cfg.Generation.BaseURL == "" {
		cfg.Generation.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Generation.OllamaBaseURL == "" {
		cfg.Generation.OllamaBaseURL = "http://localhost:11434"
	}
	if cfg.Generation.MaxTokens == 0 {
		cfg.Generation.MaxTokens = 1024
	}
	if cfg.Generation.Temperature == 0 {
		cfg.Generation.Temperature = 0.7
	}
	if cfg.History.Type == "" {
		cfg.History.Type = "memory"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

// Validate checks the generation provider selection. An unknown selector,
// or the hosted selector without an API key, is fatal at startup.
func (c *Config) Validate() error {
	switch c.Generation.Provider {
	case GenerationOpenAI:
		if c.Generation.APIKey == "" {
			return NewConfigurationError("OPENAI_API_KEY is required when using the openai provider")
		}
	case GenerationOllama:
	default:
		return NewConfigurationError("unknown generation provider %q (expected %q or %q)",
			c.Generation.Provider, GenerationOpenAI, GenerationOllama)
	}
	return nil
}
