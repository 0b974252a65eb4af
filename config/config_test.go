package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server.Port != 8501 {
		t.Errorf("expected default port 8501, got %d", cfg.Server.Port)
	}
	if cfg.Spreadsheet.Ranges.Transactions != "Transactions" {
		t.Errorf("expected default transactions range Transactions, got %s", cfg.Spreadsheet.Ranges.Transactions)
	}
	if cfg.Spreadsheet.Ranges.BalanceHistory != "Balance History" {
		t.Errorf("expected default balance range Balance History, got %s", cfg.Spreadsheet.Ranges.BalanceHistory)
	}
	if len(cfg.Spreadsheet.Scopes) != 1 || cfg.Spreadsheet.Scopes[0] != DefaultScope {
		t.Errorf("expected default readonly scope, got %v", cfg.Spreadsheet.Scopes)
	}
	if cfg.Sync.Interval != time.Hour {
		t.Errorf("expected default sync interval 1h, got %v", cfg.Sync.Interval)
	}
	if !cfg.Sync.OnStart {
		t.Error("expected sync on start by default")
	}
	if !cfg.NATS.Embedded {
		t.Error("expected embedded NATS by default")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "port too low",
			modify:  func(c *Config) { c.Server.Port = 0 },
			wantErr: true,
		},
		{
			name:    "port too high",
			modify:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: true,
		},
		{
			name:    "negative sync interval",
			modify:  func(c *Config) { c.Sync.Interval = -time.Minute },
			wantErr: true,
		},
		{
			name:    "missing transactions range",
			modify:  func(c *Config) { c.Spreadsheet.Ranges.Transactions = "" },
			wantErr: true,
		},
		{
			name:    "missing balance range",
			modify:  func(c *Config) { c.Spreadsheet.Ranges.BalanceHistory = "" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	// Create temp file with config
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `
spreadsheet:
  id: "sheet-123"
  credentials_file: "/keys/sa.json"
  scopes:
    - "https://www.googleapis.com/auth/spreadsheets"
  ranges:
    transactions: "Txns"
sync:
  interval: 30m
  on_start: false
server:
  port: 9000
nats:
  url: "nats://test:4222"
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if cfg.Spreadsheet.ID != "sheet-123" {
		t.Errorf("expected spreadsheet ID sheet-123, got %s", cfg.Spreadsheet.ID)
	}
	if cfg.Spreadsheet.CredentialsFile != "/keys/sa.json" {
		t.Errorf("expected credentials file /keys/sa.json, got %s", cfg.Spreadsheet.CredentialsFile)
	}
	if cfg.Spreadsheet.Ranges.Transactions != "Txns" {
		t.Errorf("expected transactions range Txns, got %s", cfg.Spreadsheet.Ranges.Transactions)
	}
	// Unset ranges keep their defaults
	if cfg.Spreadsheet.Ranges.Categories != "Categories" {
		t.Errorf("expected categories range to remain default, got %s", cfg.Spreadsheet.Ranges.Categories)
	}
	if cfg.Sync.Interval != 30*time.Minute {
		t.Errorf("expected sync interval 30m, got %v", cfg.Sync.Interval)
	}
	if cfg.Sync.OnStart {
		t.Error("expected on_start false")
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Server.Port)
	}
	if cfg.NATS.URL != "nats://test:4222" {
		t.Errorf("expected NATS URL nats://test:4222, got %s", cfg.NATS.URL)
	}
}

func TestLoadFromFileExpandsEnv(t *testing.T) {
	t.Setenv("TEST_SHEET_ID", "env-sheet-456")

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `
spreadsheet:
  id: "${TEST_SHEET_ID}"
  credentials_file: "${TEST_MISSING_CREDS:-/fallback/sa.json}"
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if cfg.Spreadsheet.ID != "env-sheet-456" {
		t.Errorf("expected expanded spreadsheet ID env-sheet-456, got %s", cfg.Spreadsheet.ID)
	}
	if cfg.Spreadsheet.CredentialsFile != "/fallback/sa.json" {
		t.Errorf("expected default-expanded credentials file, got %s", cfg.Spreadsheet.CredentialsFile)
	}
}

func TestConfigMerge(t *testing.T) {
	base := DefaultConfig()
	override := DefaultConfig()
	override.Spreadsheet.ID = "override-sheet"
	override.Server.Port = 9000

	base.Merge(override)

	if base.Spreadsheet.ID != "override-sheet" {
		t.Errorf("expected spreadsheet ID override-sheet, got %s", base.Spreadsheet.ID)
	}
	if base.Server.Port != 9000 {
		t.Errorf("expected port 9000, got %d", base.Server.Port)
	}
	// Ranges should remain from base since override didn't change them
	if base.Spreadsheet.Ranges.Transactions != "Transactions" {
		t.Errorf("expected transactions range to remain default, got %s", base.Spreadsheet.Ranges.Transactions)
	}
}

func TestConfigMergeNATSURLDisablesEmbedded(t *testing.T) {
	base := DefaultConfig()
	override := DefaultConfig()
	override.NATS.URL = "nats://remote:4222"

	base.Merge(override)

	if base.NATS.URL != "nats://remote:4222" {
		t.Errorf("expected NATS URL nats://remote:4222, got %s", base.NATS.URL)
	}
	if base.NATS.Embedded {
		t.Error("expected embedded NATS to be disabled when URL is set")
	}
}

func TestConfigSaveToFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "subdir", "config.yaml")

	cfg := DefaultConfig()
	cfg.Spreadsheet.ID = "saved-sheet"

	if err := cfg.SaveToFile(configPath); err != nil {
		t.Fatalf("SaveToFile() error = %v", err)
	}

	// Verify file was created
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Error("config file was not created")
	}

	// Load and verify
	loaded, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("failed to load saved config: %v", err)
	}
	if loaded.Spreadsheet.ID != "saved-sheet" {
		t.Errorf("expected spreadsheet ID saved-sheet, got %s", loaded.Spreadsheet.ID)
	}
}

func TestLoaderApplyEnv(t *testing.T) {
	t.Setenv("SPREADSHEET_ID", "env-sheet")
	t.Setenv("SERVICE_ACCOUNT_FILE", "/env/sa.json")
	t.Setenv("SCOPES", "scope-a,scope-b")
	t.Setenv("NATS_URL", "nats://env:4222")

	cfg := DefaultConfig()
	NewLoader(nil).applyEnv(cfg)

	if cfg.Spreadsheet.ID != "env-sheet" {
		t.Errorf("expected spreadsheet ID env-sheet, got %s", cfg.Spreadsheet.ID)
	}
	if cfg.Spreadsheet.CredentialsFile != "/env/sa.json" {
		t.Errorf("expected credentials file /env/sa.json, got %s", cfg.Spreadsheet.CredentialsFile)
	}
	if len(cfg.Spreadsheet.Scopes) != 2 || cfg.Spreadsheet.Scopes[1] != "scope-b" {
		t.Errorf("expected comma-split scopes, got %v", cfg.Spreadsheet.Scopes)
	}
	if cfg.NATS.URL != "nats://env:4222" || cfg.NATS.Embedded {
		t.Errorf("expected external NATS from env, got url=%s embedded=%v", cfg.NATS.URL, cfg.NATS.Embedded)
	}
}
