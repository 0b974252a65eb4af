package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

// Config holds what the client needs to reach one spreadsheet.
type Config struct {
	SpreadsheetID   string
	CredentialsFile string
	Scopes          []string

	// Endpoint overrides the Sheets API base URL. Set by tests and when
	// running against the fixture server; disables authentication.
	Endpoint string
}

// Client reads ranges from a single Google Sheets spreadsheet. The
// underlying API service is built lazily and rebuilt after the
// credentials file changes.
type Client struct {
	cfg    Config
	logger *slog.Logger

	mu    sync.Mutex
	svc   *gsheets.Service
	stale bool
}

// NewClient validates cfg and returns a client. No network calls happen
// until the first fetch.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.SpreadsheetID == "" {
		return nil, fmt.Errorf("sheets client: spreadsheet ID is required")
	}
	if cfg.Endpoint == "" && cfg.CredentialsFile == "" {
		return nil, fmt.Errorf("sheets client: credentials file is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{cfg: cfg, logger: logger}, nil
}

// MarkStale forces the next fetch to rebuild the underlying API service.
// The credentials watcher calls this when the key file rotates.
func (c *Client) MarkStale() {
	c.mu.Lock()
	c.stale = true
	c.mu.Unlock()
}

// FetchTable reads one range via spreadsheets.values.get. The first row
// of the range is the header.
func (c *Client) FetchTable(ctx context.Context, rangeName string) (*Table, error) {
	svc, err := c.service(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := svc.Spreadsheets.Values.Get(c.cfg.SpreadsheetID, rangeName).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("fetch range %q: %w", rangeName, err)
	}
	tbl, err := NewTable(resp.Values)
	if err != nil {
		return nil, fmt.Errorf("range %q: %w", rangeName, err)
	}
	return tbl, nil
}

func (c *Client) service(ctx context.Context) (*gsheets.Service, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.svc != nil && !c.stale {
		return c.svc, nil
	}

	var opts []option.ClientOption
	if c.cfg.Endpoint != "" {
		endpoint := strings.TrimSuffix(c.cfg.Endpoint, "/") + "/"
		opts = append(opts, option.WithEndpoint(endpoint), option.WithoutAuthentication())
	} else {
		opts = append(opts, option.WithCredentialsFile(c.cfg.CredentialsFile))
		if len(c.cfg.Scopes) > 0 {
			opts = append(opts, option.WithScopes(c.cfg.Scopes...))
		}
	}

	svc, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	if c.stale {
		c.logger.Info("sheets client rebuilt after credentials change")
	}
	c.svc = svc
	c.stale = false
	return svc, nil
}
