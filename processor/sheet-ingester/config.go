package sheetingester

import (
	"fmt"
	"time"

	"github.com/c360studio/semstreams/component"

	"github.com/c360studio/ledgerstream/events"
)

// Config holds configuration for the sheet-ingester processor component.
type Config struct {
	Ports *component.PortConfig `json:"ports" schema:"type:ports,description:Port configuration,category:basic"`

	// StreamName is the JetStream stream for sync messages.
	StreamName string `json:"stream_name" schema:"type:string,description:JetStream stream name,category:basic,default:LEDGER"`

	// ConsumerName is the durable consumer name.
	ConsumerName string `json:"consumer_name" schema:"type:string,description:Durable consumer name,category:basic,default:sheet-ingester"`

	// SpreadsheetID is the Google Sheets document to pull from.
	SpreadsheetID string `json:"spreadsheet_id" schema:"type:string,description:Google Sheets document ID,category:basic"`

	// CredentialsFile is the service account key path.
	CredentialsFile string `json:"credentials_file" schema:"type:string,description:Service account key path,category:basic"`

	// Scopes are the OAuth scopes to request.
	Scopes []string `json:"scopes" schema:"type:array,description:OAuth scopes to request,category:advanced"`

	// Endpoint overrides the Sheets API endpoint (used with the mock server).
	Endpoint string `json:"endpoint" schema:"type:string,description:Sheets API endpoint override,category:advanced"`

	// TransactionsRange names the sheet tab holding transactions.
	TransactionsRange string `json:"transactions_range" schema:"type:string,description:Sheet range holding transactions,category:basic,default:Transactions"`

	// CategoriesRange names the sheet tab holding category groupings.
	CategoriesRange string `json:"categories_range" schema:"type:string,description:Sheet range holding categories,category:basic,default:Categories"`

	// BalancesRange names the sheet tab holding balance history.
	BalancesRange string `json:"balances_range" schema:"type:string,description:Sheet range holding balance history,category:basic,default:Balance History"`

	// SyncInterval is the time between automatic syncs ("0" disables them).
	SyncInterval string `json:"sync_interval" schema:"type:string,description:Interval between automatic syncs,category:basic,default:1h"`

	// SyncOnStart runs a sync when the component starts.
	SyncOnStart bool `json:"sync_on_start" schema:"type:bool,description:Run a sync at startup,category:basic,default:true"`

	// WatchCredentials rebuilds the Sheets client when the key file changes.
	WatchCredentials bool `json:"watch_credentials" schema:"type:bool,description:Watch the key file for rotation,category:advanced,default:true"`

	// FetchTimeout is the maximum time for fetching all three ranges.
	FetchTimeout string `json:"fetch_timeout" schema:"type:string,description:Sheet fetch timeout,category:advanced,default:1m"`
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.StreamName == "" {
		return fmt.Errorf("stream_name is required")
	}
	if c.ConsumerName == "" {
		return fmt.Errorf("consumer_name is required")
	}
	if c.SpreadsheetID == "" {
		return fmt.Errorf("spreadsheet_id is required")
	}
	if c.CredentialsFile == "" && c.Endpoint == "" {
		return fmt.Errorf("credentials_file is required")
	}
	if c.TransactionsRange == "" || c.CategoriesRange == "" || c.BalancesRange == "" {
		return fmt.Errorf("all three sheet ranges are required")
	}
	if c.SyncInterval != "" {
		if _, err := time.ParseDuration(c.SyncInterval); err != nil {
			return fmt.Errorf("invalid sync_interval format: %w", err)
		}
	}
	if c.FetchTimeout != "" {
		if _, err := time.ParseDuration(c.FetchTimeout); err != nil {
			return fmt.Errorf("invalid fetch_timeout format: %w", err)
		}
	}
	return nil
}

// GetSyncInterval returns the sync interval as a duration. Zero disables
// interval syncs.
func (c *Config) GetSyncInterval() time.Duration {
	if c.SyncInterval == "" {
		return time.Hour
	}
	d, err := time.ParseDuration(c.SyncInterval)
	if err != nil {
		return time.Hour
	}
	return d
}

// GetFetchTimeout returns the sheet fetch timeout as a duration.
func (c *Config) GetFetchTimeout() time.Duration {
	if c.FetchTimeout == "" {
		return time.Minute
	}
	d, err := time.ParseDuration(c.FetchTimeout)
	if err != nil {
		return time.Minute
	}
	return d
}

// DefaultConfig returns default configuration for sheet-ingester processor.
func DefaultConfig() Config {
	inputDefs := []component.PortDefinition{
		{
			Name:        "sync.in",
			Type:        "jetstream",
			Subject:     events.SyncRequestSubject,
			StreamName:  events.StreamName,
			Required:    true,
			Description: "Snapshot sync requests",
		},
	}

	outputDefs := []component.PortDefinition{
		{
			Name:        "sync.out",
			Type:        "jetstream",
			Subject:     events.SyncCompletedSubject,
			StreamName:  events.StreamName,
			Required:    true,
			Description: "Sync completion announcements",
		},
	}

	return Config{
		Ports: &component.PortConfig{
			Inputs:  inputDefs,
			Outputs: outputDefs,
		},
		StreamName:        events.StreamName,
		ConsumerName:      "sheet-ingester",
		TransactionsRange: "Transactions",
		CategoriesRange:   "Categories",
		BalancesRange:     "Balance History",
		SyncInterval:      "1h",
		SyncOnStart:       true,
		WatchCredentials:  true,
		FetchTimeout:      "1m",
	}
}
