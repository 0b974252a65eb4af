// Package client provides test clients for e2e scenarios.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/c360studio/ledgerstream/test/e2e/config"
)

// APIClient provides HTTP operations for e2e tests.
// It communicates with the ledger-api component via the service manager's
// HTTP server.
type APIClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPIClient creates a new API client for e2e testing.
func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SyncRun mirrors the storage.SyncRun record returned in status responses.
type SyncRun struct {
	ID               string     `json:"id"`
	Trigger          string     `json:"trigger"`
	StartedAt        time.Time  `json:"started_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	Error            string     `json:"error,omitempty"`
	TransactionCount int        `json:"transaction_count"`
	CategoryCount    int        `json:"category_count"`
	BalanceCount     int        `json:"balance_count"`
}

// StatusResponse mirrors GET /ledger-api/status.
type StatusResponse struct {
	HasSnapshot      bool       `json:"has_snapshot"`
	SpreadsheetID    string     `json:"spreadsheet_id,omitempty"`
	SyncedAt         *time.Time `json:"synced_at,omitempty"`
	TransactionCount int        `json:"transaction_count"`
	CategoryCount    int        `json:"category_count"`
	BalanceCount     int        `json:"balance_count"`
	Years            []int      `json:"years,omitempty"`
	RecentRuns       []SyncRun  `json:"recent_runs"`
}

// SyncResponse mirrors POST /ledger-api/sync.
type SyncResponse struct {
	RunID  string `json:"run_id"`
	Status string `json:"status"`
}

// Section mirrors one dashboard section. The payload shape varies by kind,
// so it stays raw here.
type Section struct {
	Title   string          `json:"title"`
	Anchor  string          `json:"anchor"`
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// DashboardResponse mirrors GET /ledger-api/dashboard.
type DashboardResponse struct {
	SyncedAt time.Time `json:"synced_at"`
	Sections []Section `json:"sections"`
}

// CategoryRow mirrors one entry of GET /ledger-api/categories.
type CategoryRow struct {
	Name  string  `json:"name"`
	Group string  `json:"group,omitempty"`
	Type  string  `json:"type,omitempty"`
	Total float64 `json:"total"`
	Count int     `json:"count"`
}

// CategoriesResponse mirrors GET /ledger-api/categories.
type CategoriesResponse struct {
	Categories []CategoryRow `json:"categories"`
}

// MonthPoint is one month's aggregated amount.
type MonthPoint struct {
	Month  string  `json:"month"`
	Amount float64 `json:"amount"`
}

// CategorySeries is a per-category monthly series.
type CategorySeries struct {
	Category string       `json:"category"`
	Total    float64      `json:"total"`
	Points   []MonthPoint `json:"points"`
}

// MonthlySpendingResponse mirrors GET /ledger-api/spending/monthly.
type MonthlySpendingResponse struct {
	Exclude         []string         `json:"exclude"`
	MovingAvgMonths int              `json:"moving_avg_months"`
	Categories      []CategorySeries `json:"categories"`
}

// MovingAverage is one smoothed series of the total spending response.
type MovingAverage struct {
	Window int          `json:"window"`
	Points []MonthPoint `json:"points"`
}

// TotalSpendingResponse mirrors GET /ledger-api/spending/total.
type TotalSpendingResponse struct {
	Months         []MonthPoint    `json:"months"`
	MovingAverages []MovingAverage `json:"moving_averages"`
}

// DayPoint is one day of a cumulative month curve.
type DayPoint struct {
	Day    int     `json:"day"`
	Amount float64 `json:"amount"`
}

// ComparativeMonth is one month's cumulative spending curve.
type ComparativeMonth struct {
	Label     string     `json:"label"`
	Month     string     `json:"month"`
	IsCurrent bool       `json:"is_current"`
	Points    []DayPoint `json:"points"`
}

// ComparativeResponse mirrors GET /ledger-api/spending/comparative.
type ComparativeResponse struct {
	Months int                `json:"months"`
	Series []ComparativeMonth `json:"series"`
}

// DatePoint is one dated amount of a daily series.
type DatePoint struct {
	Date   time.Time `json:"date"`
	Amount float64   `json:"amount"`
}

// NetWorthResponse mirrors GET /ledger-api/networth/daily.
type NetWorthResponse struct {
	Points []DatePoint `json:"points"`
}

// Status fetches the current snapshot status.
func (c *APIClient) Status(ctx context.Context) (*StatusResponse, error) {
	var status StatusResponse
	if err := c.getJSON(ctx, c.route("status"), &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// RequestSync asks the service to pull the spreadsheet. The service answers
// 202 immediately; completion is observed via Status.
func (c *APIClient) RequestSync(ctx context.Context) (*SyncResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.route("sync"), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusAccepted {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var syncResp SyncResponse
	if err := json.Unmarshal(body, &syncResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w (body: %s)", err, string(body))
	}

	return &syncResp, nil
}

// Dashboard fetches the assembled dashboard sections.
func (c *APIClient) Dashboard(ctx context.Context) (*DashboardResponse, error) {
	var dash DashboardResponse
	if err := c.getJSON(ctx, c.route("dashboard"), &dash); err != nil {
		return nil, err
	}
	return &dash, nil
}

// Categories fetches the category summary table.
func (c *APIClient) Categories(ctx context.Context) (*CategoriesResponse, error) {
	var cats CategoriesResponse
	if err := c.getJSON(ctx, c.route("categories"), &cats); err != nil {
		return nil, err
	}
	return &cats, nil
}

// MonthlySpending fetches per-category monthly spending. A nil exclude uses
// the server's default excludes; movingAvg <= 0 omits the parameter.
func (c *APIClient) MonthlySpending(ctx context.Context, exclude []string, movingAvg int) (*MonthlySpendingResponse, error) {
	q := url.Values{}
	for _, name := range exclude {
		q.Add("exclude", name)
	}
	if movingAvg > 0 {
		q.Set("ma", strconv.Itoa(movingAvg))
	}

	var spending MonthlySpendingResponse
	if err := c.getJSON(ctx, c.routeQuery("spending/monthly", q), &spending); err != nil {
		return nil, err
	}
	return &spending, nil
}

// TotalSpending fetches the total monthly spending series with moving
// averages for the given windows (server defaults when empty).
func (c *APIClient) TotalSpending(ctx context.Context, windows []int) (*TotalSpendingResponse, error) {
	q := url.Values{}
	for _, w := range windows {
		q.Add("window", strconv.Itoa(w))
	}

	var total TotalSpendingResponse
	if err := c.getJSON(ctx, c.routeQuery("spending/total", q), &total); err != nil {
		return nil, err
	}
	return &total, nil
}

// ComparativeSpending fetches cumulative day-of-month spending curves for
// the last months (server default when months <= 0).
func (c *APIClient) ComparativeSpending(ctx context.Context, months int) (*ComparativeResponse, error) {
	q := url.Values{}
	if months > 0 {
		q.Set("months", strconv.Itoa(months))
	}

	var comp ComparativeResponse
	if err := c.getJSON(ctx, c.routeQuery("spending/comparative", q), &comp); err != nil {
		return nil, err
	}
	return &comp, nil
}

// NetWorth fetches the resampled daily net worth series.
func (c *APIClient) NetWorth(ctx context.Context) (*NetWorthResponse, error) {
	var nw NetWorthResponse
	if err := c.getJSON(ctx, c.route("networth/daily"), &nw); err != nil {
		return nil, err
	}
	return &nw, nil
}

// Metrics fetches the raw Prometheus exposition text.
func (c *APIClient) Metrics(ctx context.Context) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, "GET", c.route("metrics"), nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	return string(body), nil
}

// HealthCheck verifies the service is up. The status endpoint answers 200
// whether or not a snapshot exists, so it doubles as a liveness probe.
func (c *APIClient) HealthCheck(ctx context.Context) error {
	_, err := c.Status(ctx)
	return err
}

// WaitForHealthy polls until the service responds or the context expires.
func (c *APIClient) WaitForHealthy(ctx context.Context) error {
	ticker := time.NewTicker(config.DefaultPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for service to be healthy: %w", ctx.Err())
		case <-ticker.C:
			if err := c.HealthCheck(ctx); err == nil {
				return nil
			}
		}
	}
}

// WaitForSnapshot polls status until a snapshot exists.
func (c *APIClient) WaitForSnapshot(ctx context.Context) (*StatusResponse, error) {
	ticker := time.NewTicker(config.DefaultPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("timeout waiting for snapshot: %w", ctx.Err())
		case <-ticker.C:
			status, err := c.Status(ctx)
			if err != nil {
				continue
			}
			if status.HasSnapshot {
				return status, nil
			}
		}
	}
}

// WaitForRunCompleted polls status until the given sync run reports
// completion. The run record appears once the ingester picks the request up
// and completes shortly after the snapshot is saved.
func (c *APIClient) WaitForRunCompleted(ctx context.Context, runID string) (*SyncRun, error) {
	ticker := time.NewTicker(config.DefaultPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("timeout waiting for sync run %s: %w", runID, ctx.Err())
		case <-ticker.C:
			status, err := c.Status(ctx)
			if err != nil {
				continue
			}
			for i := range status.RecentRuns {
				run := &status.RecentRuns[i]
				if run.ID == runID && run.CompletedAt != nil {
					return run, nil
				}
			}
		}
	}
}

// route builds the full URL for an API route.
func (c *APIClient) route(path string) string {
	return fmt.Sprintf("%s/%s/%s", c.baseURL, config.APIPrefix, path)
}

// routeQuery builds the full URL for an API route with query parameters.
func (c *APIClient) routeQuery(path string, q url.Values) string {
	u := c.route(path)
	if encoded := q.Encode(); encoded != "" {
		u += "?" + encoded
	}
	return u
}

// getJSON performs a GET request and decodes the JSON response into out.
func (c *APIClient) getJSON(ctx context.Context, url string, out any) error {
	httpReq, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("unmarshal response: %w (body: %s)", err, string(body))
	}

	return nil
}
