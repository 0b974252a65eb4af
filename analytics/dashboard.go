package analytics

import (
	"strings"
	"time"

	"github.com/c360studio/ledgerstream/ledger"
)

// DashboardOptions tunes the assembled dashboard. Zero values fall back
// to the page defaults.
type DashboardOptions struct {
	// Exclude lists category patterns dropped from the spending
	// sections. Defaults to Rent when the ledger has it.
	Exclude []string

	// Windows lists moving-average windows for the total spending
	// section. Defaults to 3, 6, and 12 months.
	Windows []int

	// ComparativeMonths is how many previous months the comparative
	// section covers. Defaults to 3.
	ComparativeMonths int

	// HistogramBins is the bin count of the histogram section.
	HistogramBins int

	// Category drives the histogram and subcategory sections. Defaults
	// to Shopping when present, else the first category.
	Category string
}

// Section is one dashboard section, in page order. Anchor is the
// URL-fragment form of the title.
type Section struct {
	Title   string `json:"title"`
	Anchor  string `json:"anchor"`
	Kind    string `json:"kind"`
	Payload any    `json:"payload"`
}

// Dashboard assembles every dashboard section in page order.
func Dashboard(s *ledger.Snapshot, now time.Time, opts DashboardOptions) []Section {
	categories := s.CategoryNames()

	if opts.Exclude == nil {
		for _, c := range categories {
			if c == "Rent" {
				opts.Exclude = []string{"Rent"}
				break
			}
		}
	}
	if len(opts.Windows) == 0 {
		opts.Windows = []int{3, 6, 12}
	}
	if opts.ComparativeMonths <= 0 {
		opts.ComparativeMonths = 3
	}
	if opts.HistogramBins <= 0 {
		opts.HistogramBins = defaultHistogramBins
	}
	if opts.Category == "" {
		opts.Category = defaultCategory(categories)
	}

	return []Section{
		section("Net worth over time", "net-worth", map[string]any{
			"monthly_balances": MonthlyAccountBalances(s, now, AccountBalancesOptions{}),
			"net_worth":        NetWorthSeries(s, now),
		}),
		section("Monthly Spending by Category", "spending-by-category",
			MonthlySpendingByCategory(s, now, SpendingOptions{Exclude: opts.Exclude})),
		section("Monthly Spending", "total-spending",
			TotalMonthlySpending(s, now, TotalSpendingOptions{Exclude: opts.Exclude, Windows: opts.Windows})),
		section("Monthly Comparative Spending", "comparative-spending",
			ComparativeSpending(s, opts.ComparativeMonths)),
		section("Histogram of amount per category", "histogram", map[string]any{
			"category": opts.Category,
			"bins":     CategoryHistogram(s, opts.Category, opts.HistogramBins),
		}),
		section("Spending by Subcategory", "subcategory", map[string]any{
			"category":      opts.Category,
			"monthly":       SingleCategoryMonthly(s, opts.Category),
			"subcategories": SpendingBySubcategory(s),
		}),
		section("Monthly Income", "income", MonthlyIncome(s)),
		section("Total Spending Pie Chart", "breakdown", map[string]any{
			"years":     s.Years(),
			"breakdown": SpendingBreakdown(s, BreakdownOptions{}),
		}),
	}
}

func section(title, kind string, payload any) Section {
	return Section{
		Title:   title,
		Anchor:  strings.ReplaceAll(strings.ToLower(title), " ", "-"),
		Kind:    kind,
		Payload: payload,
	}
}

func defaultCategory(categories []string) string {
	for _, c := range categories {
		if c == "Shopping" {
			return c
		}
	}
	if len(categories) > 0 {
		return categories[0]
	}
	return ""
}
