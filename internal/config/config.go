package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	configFileName = "config.yaml"

	DefaultBaseURL     = "https://unidb.openlab.uninorte.edu.co"
	DefaultContractKey = "e83b7ac8-bdad-4bb8-a532-6aaa5fddefa4"
	DefaultTable       = "cambiale"

	EnvBaseURL     = "TADA_BASE_URL"
	EnvContractKey = "TADA_CONTRACT_KEY"
	EnvTable       = "TADA_TABLE"
)

// Config points the client at one hosted table.
type Config struct {
	BaseURL     string `yaml:"base_url"`
	ContractKey string `yaml:"contract_key"`
	Table       string `yaml:"table"`
	Source      string `yaml:"-"` // where the contract key came from: "default" | "file" | "env"
}

// Dir is ~/.tada, shared with the preferences file.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home: %w", err)
	}
	return filepath.Join(home, ".tada"), nil
}

func filePath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// Load resolves defaults, then ~/.tada/config.yaml, then env overrides.
func Load() (*Config, error) {
	cfg, err := LoadFile()
	if err != nil {
		return nil, err
	}
	if v := strings.TrimSpace(os.Getenv(EnvBaseURL)); v != "" {
		cfg.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvContractKey)); v != "" {
		cfg.ContractKey = v
		cfg.Source = "env"
	}
	if v := strings.TrimSpace(os.Getenv(EnvTable)); v != "" {
		cfg.Table = v
	}
	return cfg, nil
}

// LoadFile is Load without env overrides; edit and Save this one.
func LoadFile() (*Config, error) {
	cfg := &Config{
		BaseURL:     DefaultBaseURL,
		ContractKey: DefaultContractKey,
		Table:       DefaultTable,
		Source:      "default",
	}

	p, err := filePath()
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(p)
	switch {
	case err == nil:
		var fc Config
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
		if v := strings.TrimSpace(fc.BaseURL); v != "" {
			cfg.BaseURL = v
		}
		if v := strings.TrimSpace(fc.ContractKey); v != "" {
			cfg.ContractKey = v
			cfg.Source = "file"
		}
		if v := strings.TrimSpace(fc.Table); v != "" {
			cfg.Table = v
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}
	return cfg, nil
}

// Set changes one field by its yaml name.
func (c *Config) Set(key, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return fmt.Errorf("empty value for %s", key)
	}
	switch key {
	case "base_url":
		c.BaseURL = strings.TrimRight(value, "/")
	case "contract_key":
		c.ContractKey = value
		c.Source = "file"
	case "table":
		c.Table = value
	default:
		return fmt.Errorf("unknown config key %q (base_url, contract_key, table)", key)
	}
	return nil
}

// Save writes the file config, owner-only.
func Save(cfg *Config) error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	// ensure ~/.tada exists with 0700
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	p, _ := filePath()
	if err := os.WriteFile(p, b, 0o600); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

// Masked hides most of the contract key for display.
func (c *Config) Masked() string {
	k := c.ContractKey
	if len(k) <= 8 {
		return strings.Repeat("*", len(k))
	}
	return k[:4] + strings.Repeat("*", len(k)-8) + k[len(k)-4:]
}
