package ledgerapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/c360studio/ledgerstream/analytics"
	"github.com/c360studio/ledgerstream/events"
	"github.com/c360studio/ledgerstream/ledger"
	"github.com/c360studio/ledgerstream/metrics"
	"github.com/c360studio/ledgerstream/storage"
)

// maxRecentRuns caps the sync run history returned by the status endpoint.
const maxRecentRuns = 20

// RegisterHTTPHandlers registers all ledger-api HTTP handlers under the given
// prefix. The prefix should be the path segment without a trailing slash
// (e.g. "api/ledger"). Handlers are registered as:
//
//	GET  <prefix>/status
//	POST <prefix>/sync
//	GET  <prefix>/dashboard
//	GET  <prefix>/categories
//	GET  <prefix>/transactions
//	GET  <prefix>/spending/monthly
//	GET  <prefix>/spending/total
//	GET  <prefix>/spending/subcategories
//	GET  <prefix>/spending/breakdown
//	GET  <prefix>/spending/comparative
//	GET  <prefix>/spending/histogram
//	GET  <prefix>/income/monthly
//	GET  <prefix>/networth/daily
//	GET  <prefix>/balances/monthly
//	GET  <prefix>/metrics
func (c *Component) RegisterHTTPHandlers(prefix string, mux *http.ServeMux) {
	// Normalise: ensure leading slash and trailing slash.
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix = prefix + "/"
	}

	mux.HandleFunc(prefix+"status", c.instrument("status", c.handleStatus))
	mux.HandleFunc(prefix+"sync", c.instrument("sync", c.handleSync))
	mux.HandleFunc(prefix+"dashboard", c.instrument("dashboard", c.handleDashboard))
	mux.HandleFunc(prefix+"categories", c.instrument("categories", c.handleCategories))
	mux.HandleFunc(prefix+"transactions", c.instrument("transactions", c.handleTransactions))
	mux.HandleFunc(prefix+"spending/monthly", c.instrument("spending_monthly", c.handleSpendingMonthly))
	mux.HandleFunc(prefix+"spending/total", c.instrument("spending_total", c.handleSpendingTotal))
	mux.HandleFunc(prefix+"spending/subcategories", c.instrument("spending_subcategories", c.handleSubcategories))
	mux.HandleFunc(prefix+"spending/breakdown", c.instrument("spending_breakdown", c.handleBreakdown))
	mux.HandleFunc(prefix+"spending/comparative", c.instrument("spending_comparative", c.handleComparative))
	mux.HandleFunc(prefix+"spending/histogram", c.instrument("spending_histogram", c.handleHistogram))
	mux.HandleFunc(prefix+"income/monthly", c.instrument("income_monthly", c.handleIncome))
	mux.HandleFunc(prefix+"networth/daily", c.instrument("networth_daily", c.handleNetWorth))
	mux.HandleFunc(prefix+"balances/monthly", c.instrument("balances_monthly", c.handleAccountBalances))
	mux.Handle(prefix+"metrics", metrics.Handler())
}

// instrument counts requests per endpoint and status code.
func (c *Component) instrument(endpoint string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r)
		metrics.APIRequests.WithLabelValues(endpoint, strconv.Itoa(rec.status)).Inc()
	}
}

// statusRecorder captures the response status for instrumentation.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// ----------------------------------------------------------------------------
// GET /api/ledger/status
// ----------------------------------------------------------------------------

// StatusResponse reports the stored snapshot and recent sync activity.
type StatusResponse struct {
	// HasSnapshot is false until the first successful sync lands.
	HasSnapshot bool `json:"has_snapshot"`

	// SpreadsheetID is the source document of the stored snapshot.
	SpreadsheetID string `json:"spreadsheet_id,omitempty"`

	// SyncedAt is when the stored snapshot was pulled.
	SyncedAt *time.Time `json:"synced_at,omitempty"`

	TransactionCount int `json:"transaction_count"`
	CategoryCount    int `json:"category_count"`
	BalanceCount     int `json:"balance_count"`

	// Years lists the calendar years covered by the transactions.
	Years []int `json:"years,omitempty"`

	// RecentRuns lists sync runs, most recent first.
	RecentRuns []*storage.SyncRun `json:"recent_runs"`
}

// handleStatus reports snapshot metadata and recent sync runs. Unlike the
// analytics endpoints it answers even before the first sync.
func (c *Component) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	resp := StatusResponse{}

	snap, err := c.store.LatestSnapshot(r.Context())
	switch {
	case err == nil:
		resp.HasSnapshot = true
		resp.SpreadsheetID = snap.SpreadsheetID
		resp.SyncedAt = &snap.SyncedAt
		resp.TransactionCount = len(snap.Transactions)
		resp.CategoryCount = len(snap.Categories)
		resp.BalanceCount = len(snap.Balances)
		resp.Years = snap.Years()
	case errors.Is(err, storage.ErrNotFound):
		// No sync yet.
	default:
		c.logger.Error("Failed to load snapshot", "error", err)
		http.Error(w, "Failed to load snapshot", http.StatusInternalServerError)
		return
	}

	runs, err := c.store.ListSyncRuns(r.Context())
	if err != nil {
		// Runs are supporting detail; the snapshot state is still useful.
		c.logger.Warn("Failed to list sync runs", "error", err)
	}
	if len(runs) > maxRecentRuns {
		runs = runs[:maxRecentRuns]
	}
	resp.RecentRuns = runs

	writeJSON(w, http.StatusOK, resp)
}

// ----------------------------------------------------------------------------
// POST /api/ledger/sync
// ----------------------------------------------------------------------------

// SyncResponse acknowledges an accepted sync request.
type SyncResponse struct {
	// RunID identifies the run for status polling.
	RunID string `json:"run_id"`

	// Status is always "requested"; completion is reported by the
	// status endpoint.
	Status string `json:"status"`
}

// handleSync publishes a sync request for the sheet-ingester and returns
// 202 with the run ID. The sync itself happens asynchronously.
func (c *Component) handleSync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if c.natsClient == nil {
		http.Error(w, "Sync requests unavailable without NATS", http.StatusServiceUnavailable)
		return
	}

	req := &events.SyncRequest{
		RunID:       uuid.New().String(),
		Trigger:     storage.TriggerManual,
		RequestedAt: time.Now().UTC(),
	}
	if err := events.PublishSyncRequest(r.Context(), c.natsClient, c.name, req); err != nil {
		c.logger.Error("Failed to publish sync request", "error", err)
		http.Error(w, "Failed to publish sync request", http.StatusInternalServerError)
		return
	}

	c.logger.Info("Sync requested", "run_id", req.RunID)

	writeJSON(w, http.StatusAccepted, SyncResponse{
		RunID:  req.RunID,
		Status: "requested",
	})
}

// ----------------------------------------------------------------------------
// GET /api/ledger/dashboard
// ----------------------------------------------------------------------------

// DashboardResponse carries every dashboard section in page order.
type DashboardResponse struct {
	SyncedAt time.Time           `json:"synced_at"`
	Sections []analytics.Section `json:"sections"`
}

// handleDashboard assembles the full dashboard. The exclude and category
// parameters override the configured defaults; everything else comes from
// config.
func (c *Component) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	snap, ok := c.loadSnapshot(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	category := q.Get("category")
	if category == "" {
		category = c.config.DefaultCategory
	}

	sections := analytics.Dashboard(snap, time.Now(), analytics.DashboardOptions{
		Exclude:           c.excludesFrom(q),
		Windows:           c.config.Windows,
		ComparativeMonths: c.config.ComparativeMonths,
		HistogramBins:     c.config.HistogramBins,
		Category:          category,
	})

	writeJSON(w, http.StatusOK, DashboardResponse{
		SyncedAt: snap.SyncedAt,
		Sections: sections,
	})
}

// ----------------------------------------------------------------------------
// GET /api/ledger/categories
// ----------------------------------------------------------------------------

// CategoryRow is one transaction category with its grouping and totals.
type CategoryRow struct {
	Name string `json:"name"`

	// Group and Type come from the category sheet and are empty for
	// categories that only appear on transactions.
	Group string `json:"group,omitempty"`
	Type  string `json:"type,omitempty"`

	// Total is the signed all-time sum of the category's transactions.
	Total float64 `json:"total"`

	// Count is the number of transactions in the category.
	Count int `json:"count"`
}

// CategoriesResponse lists every transaction category, sorted by name.
type CategoriesResponse struct {
	Categories []CategoryRow `json:"categories"`
}

// handleCategories lists the distinct transaction categories with their
// group, type, and all-time totals.
func (c *Component) handleCategories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	snap, ok := c.loadSnapshot(w, r)
	if !ok {
		return
	}

	info := make(map[string]struct{ group, typ string }, len(snap.Categories))
	for _, ci := range snap.Categories {
		info[ci.Name] = struct{ group, typ string }{ci.Group, ci.Type}
	}

	totals := make(map[string]float64)
	counts := make(map[string]int)
	for _, tx := range snap.Transactions {
		totals[tx.Category] += tx.Amount
		counts[tx.Category]++
	}

	names := snap.CategoryNames()
	rows := make([]CategoryRow, 0, len(names))
	for _, name := range names {
		row := CategoryRow{
			Name:  name,
			Total: totals[name],
			Count: counts[name],
		}
		if ci, ok := info[name]; ok {
			row.Group = ci.group
			row.Type = ci.typ
		}
		rows = append(rows, row)
	}

	writeJSON(w, http.StatusOK, CategoriesResponse{Categories: rows})
}

// ----------------------------------------------------------------------------
// GET /api/ledger/transactions?category=
// ----------------------------------------------------------------------------

// TransactionsResponse is the drill-down listing of one category.
type TransactionsResponse struct {
	Category     string                        `json:"category"`
	Transactions []analytics.TransactionDetail `json:"transactions"`
}

// handleTransactions lists one category's transactions, largest spends first.
func (c *Component) handleTransactions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	category := r.URL.Query().Get("category")
	if category == "" {
		http.Error(w, "category is required", http.StatusBadRequest)
		return
	}

	snap, ok := c.loadSnapshot(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, TransactionsResponse{
		Category:     category,
		Transactions: analytics.CategoryTransactions(snap, category),
	})
}

// ----------------------------------------------------------------------------
// GET /api/ledger/spending/monthly?exclude=&ma=
// ----------------------------------------------------------------------------

// MonthlySpendingResponse is the per-category monthly spending view.
type MonthlySpendingResponse struct {
	// Exclude echoes the category patterns dropped from the view.
	Exclude []string `json:"exclude"`

	// MovingAvgMonths echoes the smoothing window; 0 means raw sums.
	MovingAvgMonths int `json:"moving_avg_months"`

	Categories []analytics.CategorySeries `json:"categories"`
}

// handleSpendingMonthly serves monthly spending per category, optionally
// smoothed with a trailing moving average.
func (c *Component) handleSpendingMonthly(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	ma, err := intParam(q, "ma", 0)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if ma < 0 {
		http.Error(w, "ma must not be negative", http.StatusBadRequest)
		return
	}

	snap, ok := c.loadSnapshot(w, r)
	if !ok {
		return
	}

	exclude := c.excludesFrom(q)
	series := analytics.MonthlySpendingByCategory(snap, time.Now(), analytics.SpendingOptions{
		Exclude:         exclude,
		MovingAvgMonths: ma,
	})

	writeJSON(w, http.StatusOK, MonthlySpendingResponse{
		Exclude:         exclude,
		MovingAvgMonths: ma,
		Categories:      series,
	})
}

// ----------------------------------------------------------------------------
// GET /api/ledger/spending/total?exclude=&window=
// ----------------------------------------------------------------------------

// handleSpendingTotal serves total monthly spending with moving averages.
// Repeat the window parameter for multiple windows; defaults come from
// config.
func (c *Component) handleSpendingTotal(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	windows := c.config.Windows
	if vals, ok := q["window"]; ok {
		windows = make([]int, 0, len(vals))
		for _, v := range vals {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				http.Error(w, "window must be a positive integer", http.StatusBadRequest)
				return
			}
			windows = append(windows, n)
		}
	}

	snap, ok := c.loadSnapshot(w, r)
	if !ok {
		return
	}

	totals := analytics.TotalMonthlySpending(snap, time.Now(), analytics.TotalSpendingOptions{
		Exclude: c.excludesFrom(q),
		Windows: windows,
	})

	writeJSON(w, http.StatusOK, totals)
}

// ----------------------------------------------------------------------------
// GET /api/ledger/spending/subcategories
// ----------------------------------------------------------------------------

// SubcategoriesResponse is the month-by-subcategory spending view.
type SubcategoriesResponse struct {
	Series []analytics.CategorySeries `json:"series"`
}

// handleSubcategories serves spending per subcategory per month.
func (c *Component) handleSubcategories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	snap, ok := c.loadSnapshot(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, SubcategoriesResponse{
		Series: analytics.SpendingBySubcategory(snap),
	})
}

// ----------------------------------------------------------------------------
// GET /api/ledger/spending/breakdown?year=&month=&groups=
// ----------------------------------------------------------------------------

// BreakdownResponse is the spending breakdown tree for the selected period.
type BreakdownResponse struct {
	// Year and Month echo the period filter; zero means unfiltered.
	Year  int `json:"year"`
	Month int `json:"month"`

	// WithGroups is true when categories are nested under their groups.
	WithGroups bool `json:"with_groups"`

	Nodes []analytics.BreakdownNode `json:"nodes"`
}

// handleBreakdown serves the spending breakdown, optionally filtered to a
// calendar year and month and optionally nested by category group.
func (c *Component) handleBreakdown(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	year, err := intParam(q, "year", 0)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if year < 0 {
		http.Error(w, "year must not be negative", http.StatusBadRequest)
		return
	}
	month, err := intParam(q, "month", 0)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if month < 0 || month > 12 {
		http.Error(w, "month must be between 1 and 12", http.StatusBadRequest)
		return
	}
	withGroups := false
	if raw := q.Get("groups"); raw != "" {
		withGroups, err = strconv.ParseBool(raw)
		if err != nil {
			http.Error(w, "groups must be a boolean", http.StatusBadRequest)
			return
		}
	}

	snap, ok := c.loadSnapshot(w, r)
	if !ok {
		return
	}

	nodes := analytics.SpendingBreakdown(snap, analytics.BreakdownOptions{
		Year:       year,
		Month:      month,
		WithGroups: withGroups,
	})

	writeJSON(w, http.StatusOK, BreakdownResponse{
		Year:       year,
		Month:      month,
		WithGroups: withGroups,
		Nodes:      nodes,
	})
}

// ----------------------------------------------------------------------------
// GET /api/ledger/spending/comparative?months=
// ----------------------------------------------------------------------------

// ComparativeResponse is the cumulative day-of-month spending comparison.
type ComparativeResponse struct {
	Months int                          `json:"months"`
	Series []analytics.ComparativeMonth `json:"series"`
}

// handleComparative serves cumulative spending per day of month for the
// last N months.
func (c *Component) handleComparative(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	months, err := intParam(r.URL.Query(), "months", c.config.ComparativeMonths)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if months <= 0 {
		http.Error(w, "months must be positive", http.StatusBadRequest)
		return
	}

	snap, ok := c.loadSnapshot(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, ComparativeResponse{
		Months: months,
		Series: analytics.ComparativeSpending(snap, months),
	})
}

// ----------------------------------------------------------------------------
// GET /api/ledger/spending/histogram?category=&bins=
// ----------------------------------------------------------------------------

// HistogramResponse is the amount histogram of one category.
type HistogramResponse struct {
	Category string                   `json:"category"`
	Bins     []analytics.HistogramBin `json:"bins"`
}

// handleHistogram serves the transaction amount histogram of a category.
func (c *Component) handleHistogram(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	bins, err := intParam(q, "bins", c.config.HistogramBins)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if bins <= 0 {
		http.Error(w, "bins must be positive", http.StatusBadRequest)
		return
	}

	snap, ok := c.loadSnapshot(w, r)
	if !ok {
		return
	}

	category := q.Get("category")
	if category == "" {
		category = c.config.DefaultCategory
	}

	writeJSON(w, http.StatusOK, HistogramResponse{
		Category: category,
		Bins:     analytics.CategoryHistogram(snap, category, bins),
	})
}

// ----------------------------------------------------------------------------
// GET /api/ledger/income/monthly
// ----------------------------------------------------------------------------

// IncomeResponse is paycheck income summed per calendar month.
type IncomeResponse struct {
	Months []analytics.MonthPoint `json:"months"`
}

// handleIncome serves monthly paycheck income.
func (c *Component) handleIncome(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	snap, ok := c.loadSnapshot(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, IncomeResponse{
		Months: analytics.MonthlyIncome(snap),
	})
}

// ----------------------------------------------------------------------------
// GET /api/ledger/networth/daily
// ----------------------------------------------------------------------------

// NetWorthResponse is the resampled daily net worth series.
type NetWorthResponse struct {
	Points []analytics.DatePoint `json:"points"`
}

// handleNetWorth serves the daily net worth series.
func (c *Component) handleNetWorth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	snap, ok := c.loadSnapshot(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, NetWorthResponse{
		Points: analytics.NetWorthSeries(snap, time.Now()),
	})
}

// ----------------------------------------------------------------------------
// GET /api/ledger/balances/monthly?exclude=
// ----------------------------------------------------------------------------

// AccountBalancesResponse is the per-account monthly balance view. The
// exclude parameter names accounts, not categories.
type AccountBalancesResponse struct {
	Exclude  []string                  `json:"exclude"`
	Accounts []analytics.AccountSeries `json:"accounts"`
}

// handleAccountBalances serves each account's first balance per month.
func (c *Component) handleAccountBalances(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var exclude []string
	for _, v := range r.URL.Query()["exclude"] {
		if v != "" {
			exclude = append(exclude, v)
		}
	}

	snap, ok := c.loadSnapshot(w, r)
	if !ok {
		return
	}

	accounts := analytics.MonthlyAccountBalances(snap, time.Now(), analytics.AccountBalancesOptions{
		ExcludeAccounts: exclude,
	})

	writeJSON(w, http.StatusOK, AccountBalancesResponse{
		Exclude:  exclude,
		Accounts: accounts,
	})
}

// ----------------------------------------------------------------------------
// Helpers
// ----------------------------------------------------------------------------

// loadSnapshot fetches the latest snapshot, writing the error response
// itself when there is none to serve.
func (c *Component) loadSnapshot(w http.ResponseWriter, r *http.Request) (*ledger.Snapshot, bool) {
	snap, err := c.store.LatestSnapshot(r.Context())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(w, "No snapshot available; request a sync first", http.StatusNotFound)
			return nil, false
		}
		c.logger.Error("Failed to load snapshot", "error", err)
		http.Error(w, "Failed to load snapshot", http.StatusInternalServerError)
		return nil, false
	}
	return snap, true
}

// excludesFrom resolves the exclude parameter against the configured
// defaults. A present-but-empty parameter means exclude nothing.
func (c *Component) excludesFrom(q url.Values) []string {
	vals, ok := q["exclude"]
	if !ok {
		return c.config.DefaultExcludes
	}
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// intParam parses an optional integer query parameter.
func intParam(q url.Values, name string, fallback int) (int, error) {
	raw := q.Get(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Response is already partially written; log only.
		_ = err
	}
}
