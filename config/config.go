// Package config loads and persists the application configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration. Tokens are deliberately
// not part of the file: credentials come from the --token flag or the
// GITHUB_TOKEN environment variable only.
type Config struct {
	DefaultFormat string `yaml:"default_format,omitempty"`
	Workers       int    `yaml:"workers,omitempty"`
	WaitForReset  bool   `yaml:"wait_for_reset,omitempty"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		DefaultFormat: "table",
		Workers:       1,
	}
}

// ConfigPath returns the path to the config file
func ConfigPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		return filepath.Join(home, ".stargazer.yaml")
	}
	return filepath.Join(configDir, "stargazer", "config.yaml")
}

// Load reads the config file, returning defaults if it does not exist.
func Load() (*Config, error) {
	return loadFrom(ConfigPath())
}

func loadFrom(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if cfg.DefaultFormat == "" {
		cfg.DefaultFormat = "table"
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return cfg, nil
}

// Save writes the config file, creating its directory if needed.
func (c *Config) Save() error {
	return c.saveTo(ConfigPath())
}

func (c *Config) saveTo(path string) error {
	if path == "" {
		return fmt.Errorf("cannot determine config path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

// GetGitHubToken resolves the credential: an explicit value wins over the
// environment. The result may be empty (unauthenticated access).
func GetGitHubToken(explicit string) string {
	if explicit != "" {
		return explicit
	}
	return os.Getenv("GITHUB_TOKEN")
}
