// Copyright 2024-2026 Aiku AI

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/aiku/fedikit/pkg/fedi"
)

// Config is the on-disk account book plus runtime knobs. Values load from
// the YAML file first, then FEDIKIT_* environment variables override.
type Config struct {
	LogLevel string `yaml:"log_level" envconfig:"LOG_LEVEL" default:"info"`

	// Account selects the entry of Accounts to act as; empty means the
	// first one.
	Account string `yaml:"account" envconfig:"ACCOUNT"`

	Accounts []AccountConfig `yaml:"accounts" ignored:"true"`
}

// AccountConfig is one credential entry.
type AccountConfig struct {
	Name        string `yaml:"name"`
	Endpoint    string `yaml:"endpoint"`
	AccessToken string `yaml:"access_token"`
	Dialect     string `yaml:"dialect"`
}

// loadConfig reads the YAML file (missing file is fine, env can carry
// everything) and applies environment overrides.
func loadConfig(path string) (*Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := envconfig.Process("fedikit", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}

	if single := os.Getenv("FEDIKIT_ENDPOINT"); single != "" {
		cfg.Accounts = append(cfg.Accounts, AccountConfig{
			Name:        "env",
			Endpoint:    single,
			AccessToken: os.Getenv("FEDIKIT_ACCESS_TOKEN"),
			Dialect:     os.Getenv("FEDIKIT_DIALECT"),
		})
	}
	return &cfg, nil
}

// selectAccount resolves the acting account from the config.
func (cfg *Config) selectAccount() (*fedi.Account, error) {
	if len(cfg.Accounts) == 0 {
		return nil, fmt.Errorf("no accounts configured")
	}
	entry := cfg.Accounts[0]
	if cfg.Account != "" {
		found := false
		for _, a := range cfg.Accounts {
			if a.Name == cfg.Account {
				entry = a
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("no account named %q", cfg.Account)
		}
	}
	if entry.Endpoint == "" || entry.AccessToken == "" {
		return nil, fmt.Errorf("account %q is missing endpoint or access token", entry.Name)
	}

	dialect := fedi.DialectMastodon
	if strings.EqualFold(entry.Dialect, string(fedi.DialectMisskey)) {
		dialect = fedi.DialectMisskey
	}
	return &fedi.Account{
		Endpoint:    strings.TrimRight(entry.Endpoint, "/"),
		AccessToken: entry.AccessToken,
		Dialect:     dialect,
	}, nil
}
