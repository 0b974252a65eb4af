// Package config provides configuration loading and management for ledgerstream.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	streamsconfig "github.com/c360studio/semstreams/config"
	"gopkg.in/yaml.v3"
)

// Config represents the complete ledgerstream configuration
type Config struct {
	Spreadsheet SpreadsheetConfig `yaml:"spreadsheet"`
	Sync        SyncConfig        `yaml:"sync"`
	Server      ServerConfig      `yaml:"server"`
	NATS        NATSConfig        `yaml:"nats"`
}

// SpreadsheetConfig configures the Google Sheets source
type SpreadsheetConfig struct {
	// ID is the spreadsheet ID (env: SPREADSHEET_ID)
	ID string `yaml:"id"`
	// CredentialsFile is the service account key path (env: SERVICE_ACCOUNT_FILE)
	CredentialsFile string `yaml:"credentials_file"`
	// Scopes are the OAuth scopes to request (env: SCOPES, comma-separated)
	Scopes []string `yaml:"scopes"`
	// Endpoint overrides the Sheets API endpoint (used with the mock server)
	Endpoint string `yaml:"endpoint"`
	// Ranges name the sheet tabs holding each table
	Ranges RangesConfig `yaml:"ranges"`
}

// RangesConfig names the sheet tabs holding each table
type RangesConfig struct {
	Transactions   string `yaml:"transactions"`
	Categories     string `yaml:"categories"`
	BalanceHistory string `yaml:"balance_history"`
}

// SyncConfig configures snapshot refresh behavior
type SyncConfig struct {
	// Interval between automatic refreshes (0 = disabled)
	Interval time.Duration `yaml:"interval"`
	// OnStart runs a sync when the ingester starts
	OnStart bool `yaml:"on_start"`
	// WatchCredentials rebuilds the Sheets client when the key file changes
	WatchCredentials bool `yaml:"watch_credentials"`
}

// ServerConfig configures the HTTP API server
type ServerConfig struct {
	// Port is the HTTP listen port
	Port int `yaml:"port"`
}

// NATSConfig configures the NATS connection
type NATSConfig struct {
	// URL is the NATS server URL (empty = use embedded server)
	URL string `yaml:"url"`
	// Embedded indicates whether to use embedded NATS
	Embedded bool `yaml:"embedded"`
}

// DefaultScope is requested when no scopes are configured.
const DefaultScope = "https://www.googleapis.com/auth/spreadsheets.readonly"

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Spreadsheet: SpreadsheetConfig{
			Scopes: []string{DefaultScope},
			Ranges: RangesConfig{
				Transactions:   "Transactions",
				Categories:     "Categories",
				BalanceHistory: "Balance History",
			},
		},
		Sync: SyncConfig{
			Interval:         time.Hour,
			OnStart:          true,
			WatchCredentials: true,
		},
		Server: ServerConfig{
			Port: 8501,
		},
		NATS: NATSConfig{
			URL:      "",
			Embedded: true,
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if c.Sync.Interval < 0 {
		return fmt.Errorf("sync.interval must not be negative")
	}
	if c.Spreadsheet.Ranges.Transactions == "" ||
		c.Spreadsheet.Ranges.Categories == "" ||
		c.Spreadsheet.Ranges.BalanceHistory == "" {
		return fmt.Errorf("spreadsheet.ranges must name all three sheets")
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file. Environment variable
// references (${VAR} and ${VAR:-default}) are expanded before parsing.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expanded := streamsconfig.ExpandEnvWithDefaults(string(data))

	config := DefaultConfig()
	if err := yaml.Unmarshal([]byte(expanded), config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for
// non-zero values; sync booleans always take the other config's value, so
// callers should merge configs that were loaded on top of defaults).
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Spreadsheet
	if other.Spreadsheet.ID != "" {
		c.Spreadsheet.ID = other.Spreadsheet.ID
	}
	if other.Spreadsheet.CredentialsFile != "" {
		c.Spreadsheet.CredentialsFile = other.Spreadsheet.CredentialsFile
	}
	if len(other.Spreadsheet.Scopes) > 0 {
		c.Spreadsheet.Scopes = other.Spreadsheet.Scopes
	}
	if other.Spreadsheet.Endpoint != "" {
		c.Spreadsheet.Endpoint = other.Spreadsheet.Endpoint
	}
	if other.Spreadsheet.Ranges.Transactions != "" {
		c.Spreadsheet.Ranges.Transactions = other.Spreadsheet.Ranges.Transactions
	}
	if other.Spreadsheet.Ranges.Categories != "" {
		c.Spreadsheet.Ranges.Categories = other.Spreadsheet.Ranges.Categories
	}
	if other.Spreadsheet.Ranges.BalanceHistory != "" {
		c.Spreadsheet.Ranges.BalanceHistory = other.Spreadsheet.Ranges.BalanceHistory
	}

	// Sync
	if other.Sync.Interval != 0 {
		c.Sync.Interval = other.Sync.Interval
	}
	c.Sync.OnStart = other.Sync.OnStart
	c.Sync.WatchCredentials = other.Sync.WatchCredentials

	// Server
	if other.Server.Port != 0 {
		c.Server.Port = other.Server.Port
	}

	// NATS
	if other.NATS.URL != "" {
		c.NATS.URL = other.NATS.URL
		c.NATS.Embedded = false
	}
}
