// Copyright 2026 The mindrouter Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package config loads and validates the YAML configuration for the
// mindrouter server: network settings, logging, provider backends, the
// capability table seed, steering, and tracker persistence.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/thinkmate/mindrouter/internal/scenario"
)

// Config represents the application's configuration, loaded from a YAML file.
type Config struct {
	// Host is the network host/interface the API server binds to.
	// Empty binds all interfaces; use "127.0.0.1" for local-only access.
	Host string `yaml:"host"`
	// Port is the network port on which the API server will listen.
	Port int `yaml:"port"`

	// Debug enables debug-level logging.
	Debug bool `yaml:"debug"`

	// LoggingToFile writes logs to rotating files instead of stdout.
	LoggingToFile bool `yaml:"logging-to-file"`

	// LogDir is the directory for rotating log files.
	LogDir string `yaml:"log-dir"`

	// CallTimeoutSeconds bounds each provider backend call.
	CallTimeoutSeconds int `yaml:"call-timeout-seconds"`

	// DefaultProvider backs the general scenario and every fallback path.
	DefaultProvider string `yaml:"default-provider"`

	// Providers lists the analysis backends.
	Providers []Provider `yaml:"providers"`

	// Capabilities seeds the capability table. Rows for unknown
	// providers are rejected at load time.
	Capabilities []CapabilityRow `yaml:"capabilities"`

	// Preferences are the server-wide default operating preferences.
	Preferences scenario.Preferences `yaml:"preferences"`

	// Steering configures the rule engine.
	Steering Steering `yaml:"steering"`

	// Tracker configures outcome tracking and persistence.
	Tracker Tracker `yaml:"tracker"`

	// Quick configures the quick-analysis cache.
	Quick Quick `yaml:"quick-cache"`
}

// Provider describes one analysis backend.
type Provider struct {
	// ID is the unique provider identity referenced by capability rows.
	ID string `yaml:"id"`
	// Kind selects the adapter: "openai", "anthropic", "rest", or "local".
	Kind string `yaml:"kind"`
	// Model is the backend model identifier, where applicable.
	Model string `yaml:"model,omitempty"`
	// APIKeyEnv names the environment variable holding the API key.
	APIKeyEnv string `yaml:"api-key-env,omitempty"`
	// BaseURL overrides the backend endpoint (required for kind "rest").
	BaseURL string `yaml:"base-url,omitempty"`
}

// CapabilityRow is one YAML row of the capability table seed.
type CapabilityRow struct {
	Scenario    string  `yaml:"scenario"`
	ProviderID  string  `yaml:"provider-id"`
	Speed       string  `yaml:"speed"`
	Quality     string  `yaml:"quality"`
	Cost        string  `yaml:"cost"`
	Reliability float64 `yaml:"reliability"`
}

// Steering configures the operator rule engine.
type Steering struct {
	Enabled  bool   `yaml:"enabled"`
	RulesDir string `yaml:"rules-dir"`
	Watch    bool   `yaml:"watch"`
}

// Tracker configures outcome tracking.
type Tracker struct {
	RingSize int `yaml:"ring-size"`
	// JournalPath enables the SQLite outcome journal when non-empty.
	JournalPath   string `yaml:"journal-path"`
	RetentionDays int    `yaml:"retention-days"`
}

// Quick configures the quick-analysis cache.
type Quick struct {
	MaxEntries int `yaml:"max-entries"`
	TTLSeconds int `yaml:"ttl-seconds"`
}

// CallTimeout returns the per-call timeout as a duration.
func (c *Config) CallTimeout() time.Duration {
	return time.Duration(c.CallTimeoutSeconds) * time.Second
}

// Default returns the built-in configuration used when no file is given.
func Default() *Config {
	return &Config{
		Host:               "127.0.0.1",
		Port:               8317,
		LogDir:             "logs",
		CallTimeoutSeconds: 30,
		DefaultProvider:    "local",
		Preferences:        scenario.DefaultPreferences(),
		Steering:           Steering{RulesDir: ".mindrouter/steering", Watch: true},
		Tracker:            Tracker{RingSize: 1000, RetentionDays: 90},
		Quick:              Quick{MaxEntries: 1024, TTLSeconds: 300},
	}
}

// Load reads, parses, and validates a configuration file. Missing fields
// fall back to the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field consistency.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.DefaultProvider == "" {
		return fmt.Errorf("default-provider cannot be empty")
	}

	known := make(map[string]bool, len(c.Providers))
	for i, p := range c.Providers {
		if p.ID == "" {
			return fmt.Errorf("provider %d: id cannot be empty", i)
		}
		if known[p.ID] {
			return fmt.Errorf("duplicate provider id: %s", p.ID)
		}
		switch strings.ToLower(p.Kind) {
		case "openai", "anthropic", "rest", "local":
		default:
			return fmt.Errorf("provider %s: unknown kind %q", p.ID, p.Kind)
		}
		if strings.EqualFold(p.Kind, "rest") && p.BaseURL == "" {
			return fmt.Errorf("provider %s: rest providers need base-url", p.ID)
		}
		known[p.ID] = true
	}

	for i, row := range c.Capabilities {
		if !scenario.Scenario(row.Scenario).Valid() {
			return fmt.Errorf("capability %d: unknown scenario %q", i, row.Scenario)
		}
		if !known[row.ProviderID] {
			return fmt.Errorf("capability %d: unknown provider %q", i, row.ProviderID)
		}
		if row.Reliability < 0 || row.Reliability > 1 {
			return fmt.Errorf("capability %d: reliability %v out of range", i, row.Reliability)
		}
	}

	if len(c.Providers) > 0 && !known[c.DefaultProvider] {
		return fmt.Errorf("default-provider %q is not a configured provider", c.DefaultProvider)
	}
	return nil
}

// APIKey resolves a provider's API key from its environment variable.
func (p Provider) APIKey() string {
	if p.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(p.APIKeyEnv)
}
