// Package cli holds configuration and output helpers for the churnctl tool.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the CLI configuration stored at ~/.churnguard/config.yaml.
type Config struct {
	BaseURL string `yaml:"base_url"`
	Token   string `yaml:"token"`
}

// GetConfigPath returns the path to the config file.
func GetConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".churnguard", "config.yaml"), nil
}

// LoadConfig loads the configuration from file. A missing file yields an
// empty config, not an error.
func LoadConfig() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return &cfg, nil
}

// Resolve merges flag values over the config file: a non-empty flag wins.
func Resolve(cfg *Config, baseURLFlag, tokenFlag string) (baseURL, token string, err error) {
	baseURL = cfg.BaseURL
	if baseURLFlag != "" {
		baseURL = baseURLFlag
	}
	token = cfg.Token
	if tokenFlag != "" {
		token = tokenFlag
	}
	if baseURL == "" {
		return "", "", fmt.Errorf("no base URL configured; pass --base-url or set it in ~/.churnguard/config.yaml")
	}
	return baseURL, token, nil
}
