package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/c360studio/ledgerstream/ledger"
	"github.com/c360studio/ledgerstream/sheets"
)

// testNow is mid-June, so 2024-06 is the in-progress month.
var testNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// testSnapshot builds six months of ledger activity through the real
// sheet builders so category totals and enrichment match production
// parsing.
//
// Spending totals: Rent 4000, Dining 270, Shopping 225, Groceries 200
// (4695 all-time). Paychecks, an investment purchase, and a credit-card
// payment sit outside the spending view.
func testSnapshot(t *testing.T) *ledger.Snapshot {
	t.Helper()

	cats, err := ledger.BuildCategories(sheets.FromRows(
		[]string{"Category", "Group", "Type"},
		[][]string{
			{"Dining", "Living", "Expense"},
			{"Groceries", "Living", "Expense"},
			{"Rent", "Housing", "Expense"},
			{"Shopping", "Fun", "Expense"},
			{"Paycheck", "Income", "Income"},
			{"Credit Card Payment", "Internal", "Transfer"},
			{"Investments in Stocks", "Investing", "Investment"},
		},
	))
	require.NoError(t, err)

	txs, err := ledger.BuildTransactions(sheets.FromRows(
		[]string{"Date", "Description", "Category", "Amount"},
		[][]string{
			{"2024-01-10", "Landlord", "Rent", "-$1,000.00"},
			{"2024-01-12", "Cafe", "Dining", "-$40.00"},
			{"2024-01-20", "Market", "Groceries", "-$60.00"},
			{"2024-01-22", "Mall", "Shopping", "-$25.00"},
			{"2024-01-15", "Employer", "Paycheck", "$3,000.00"},

			{"2024-02-10", "Landlord", "Rent", "-$1,000.00"},
			{"2024-02-14", "Bistro", "Dining", "-$60.00"},
			{"2024-02-18", "Market", "Groceries", "-$40.00"},
			{"2024-02-15", "Employer", "Paycheck", "$3,000.00"},
			{"2024-02-20", "Broker", "Investments in Stocks", "-$500.00"},

			{"2024-03-10", "Landlord", "Rent", "-$1,000.00"},
			{"2024-03-12", "Diner", "Dining", "-$80.00"},
			{"2024-03-22", "Mall", "Shopping", "-$125.00"},
			{"2024-03-15", "Employer", "Paycheck", "$3,100.00"},
			{"2024-03-01", "Card", "Credit Card Payment", "-$200.00"},

			{"2024-04-10", "Landlord", "Rent", "-$1,000.00"},
			{"2024-04-02", "Cafe", "Dining", "-$20.00"},
			{"2024-04-20", "Market", "Groceries", "-$100.00"},

			{"2024-05-12", "Cafe", "Dining", "-$50.00"},
			{"2024-05-20", "Refund", "Dining", "$10.00"},
			{"2024-05-15", "Employer", "Paycheck", "$3,200.00"},

			{"2024-06-05", "Cafe", "Dining", "-$30.00"},
			{"2024-06-01", "Mall", "Shopping", "-$75.00"},
		},
	), cats)
	require.NoError(t, err)

	balances, err := ledger.BuildBalances(sheets.FromRows(
		[]string{"Date", "Account", "Account ID", "Class", "Balance"},
		[][]string{
			{"2024-01-01", "Checking", "c1", "Asset", "$1,000.00"},
			{"2024-01-07", "Checking", "c1", "Asset", "$1,300.00"},
			{"2024-01-03", "Savings", "s1", "Asset", "$500.00"},
			{"2024-01-05", "Car Loan", "l1", "Liability", "$200.00"},
		},
	))
	require.NoError(t, err)

	return &ledger.Snapshot{
		SpreadsheetID: "fixture",
		SyncedAt:      testNow,
		Transactions:  txs,
		Categories:    cats,
		Balances:      balances,
	}
}

func findSeries(t *testing.T, series []CategorySeries, category string) CategorySeries {
	t.Helper()
	for _, cs := range series {
		if cs.Category == category {
			return cs
		}
	}
	t.Fatalf("category %q not in series", category)
	return CategorySeries{}
}
