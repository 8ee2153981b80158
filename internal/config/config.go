// Package config loads application configuration from YAML with
// sensible defaults and supports hot reload of the policy and domain
// files.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// PolicySettings configures the content policy engine.
type PolicySettings struct {
	Level          string `yaml:"level"`
	ThresholdsFile string `yaml:"thresholds_file"`
	DatabasePath   string `yaml:"database_path"`
	RetentionDays  int    `yaml:"retention_days"`
}

// WebSettings configures the web access gateway.
type WebSettings struct {
	Enabled         bool   `yaml:"enabled"`
	DomainsFile     string `yaml:"domains_file"`
	DatabasePath    string `yaml:"database_path"`
	CacheTTLMinutes int    `yaml:"cache_ttl_minutes"`
	MaxContentBytes int    `yaml:"max_content_bytes"`
	TimeoutSeconds  int    `yaml:"timeout_seconds"`
}

// LLMSettings configures the chat completions backend.
type LLMSettings struct {
	APIURL         string  `yaml:"api_url"`
	APIKey         string  `yaml:"api_key"`
	Model          string  `yaml:"model"`
	MaxTokens      int     `yaml:"max_tokens"`
	Temperature    float64 `yaml:"temperature"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
}

// Config is the root application configuration.
type Config struct {
	DataDir string         `yaml:"data_dir"`
	Policy  PolicySettings `yaml:"policy"`
	Web     WebSettings    `yaml:"web"`
	LLM     LLMSettings    `yaml:"llm"`
}

// DefaultConfig returns the built-in configuration. The data directory
// defaults to ~/.gptoss.
func DefaultConfig() *Config {
	dataDir := ".gptoss"
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, ".gptoss")
	}
	return &Config{
		DataDir: dataDir,
		Policy: PolicySettings{
			Level:         "safe",
			RetentionDays: 90,
		},
		Web: WebSettings{
			Enabled:         true,
			CacheTTLMinutes: 30,
			MaxContentBytes: 50000,
			TimeoutSeconds:  10,
		},
		LLM: LLMSettings{
			APIURL:         "http://localhost:1234/v1/chat/completions",
			Model:          "gpt-oss-20b",
			MaxTokens:      1024,
			TimeoutSeconds: 60,
		},
	}
}

// Load reads configuration from a YAML file. Empty path falls back to
// ~/.gptoss/config.yaml. Missing file returns defaults; invalid YAML
// returns an error. Fields absent from the file keep their defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return DefaultConfig(), nil
		}
		path = filepath.Join(home, ".gptoss", "config.yaml")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// PolicyDatabasePath resolves the policy audit store location.
func (c *Config) PolicyDatabasePath() string {
	if c.Policy.DatabasePath != "" {
		return c.Policy.DatabasePath
	}
	return filepath.Join(c.DataDir, "content_policy.db")
}

// WebDatabasePath resolves the web audit store location.
func (c *Config) WebDatabasePath() string {
	if c.Web.DatabasePath != "" {
		return c.Web.DatabasePath
	}
	return filepath.Join(c.DataDir, "web_access_log.db")
}
