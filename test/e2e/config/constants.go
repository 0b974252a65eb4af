// Package config provides configuration constants for e2e tests.
package config

import "time"

// Default connection URLs.
const (
	DefaultBaseURL = "http://localhost:8501"
)

// Default timeouts.
const (
	DefaultSetupTimeout = 60 * time.Second
	DefaultStageTimeout = 30 * time.Second
	DefaultSyncTimeout  = 2 * time.Minute
	DefaultPollInterval = 500 * time.Millisecond
)

// APIPrefix is the route prefix under which the service manager mounts the
// ledger-api component. Full routes are {BaseURL}/{APIPrefix}/{route}.
const APIPrefix = "ledger-api"

// Config holds the e2e test configuration.
type Config struct {
	BaseURL      string        `json:"base_url"`
	SetupTimeout time.Duration `json:"setup_timeout"`
	StageTimeout time.Duration `json:"stage_timeout"`
	SyncTimeout  time.Duration `json:"sync_timeout"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:      DefaultBaseURL,
		SetupTimeout: DefaultSetupTimeout,
		StageTimeout: DefaultStageTimeout,
		SyncTimeout:  DefaultSyncTimeout,
	}
}
