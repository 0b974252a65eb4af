package ledger

import (
	"github.com/bmatcuk/doublestar/v4"

	"github.com/c360studio/ledgerstream/model"
)

// Categories excluded from the spending view besides transfers:
// investment purchases and credit-card payments move money between
// accounts rather than spend it.
var spendingExcluded = map[string]bool{
	"Investments in Stocks": true,
	"Investments in Crypto": true,
	"Credit Card Payment":   true,
}

// SpendingRow is a spending-view transaction. Amount is positive here,
// and the row carries its share of total spending.
type SpendingRow struct {
	model.Transaction

	// AmountPct is this row's share of all-time spending, in percent.
	AmountPct float64 `json:"amount_pct"`

	// CategoryPct is the row's category share of all-time spending.
	// CategoryTotal keeps its raw negative sign.
	CategoryPct float64 `json:"category_pct"`
}

// Spending derives the spending view: rows from spending categories
// (negative all-time total), minus transfers, investment purchases, and
// credit-card payments. Percent shares are computed over the whole view;
// category exclusions happen afterwards so they never shift the shares.
func Spending(txs []model.Transaction) []SpendingRow {
	rows := make([]SpendingRow, 0, len(txs))
	var total float64
	for _, tx := range txs {
		if tx.CategoryTotal >= 0 {
			continue
		}
		if tx.Type == model.TypeTransfer {
			continue
		}
		if spendingExcluded[tx.Category] {
			continue
		}
		rows = append(rows, SpendingRow{Transaction: tx})
		total += tx.Amount
	}
	for i := range rows {
		if total != 0 {
			rows[i].AmountPct = rows[i].Amount / total * 100
			rows[i].CategoryPct = rows[i].CategoryTotal / total * 100
		}
		rows[i].Amount = -rows[i].Amount
	}
	return rows
}

// ExcludeCategories drops spending rows whose category matches any of
// the patterns.
func ExcludeCategories(rows []SpendingRow, patterns []string) []SpendingRow {
	if len(patterns) == 0 {
		return rows
	}
	kept := make([]SpendingRow, 0, len(rows))
	for _, r := range rows {
		if MatchesAny(patterns, r.Category) {
			continue
		}
		kept = append(kept, r)
	}
	return kept
}

// MatchesAny reports whether name matches any of the patterns. Patterns
// are doublestar globs, so "Investments*" and literal names both work.
// A malformed pattern falls back to literal comparison.
func MatchesAny(patterns []string, name string) bool {
	for _, p := range patterns {
		ok, err := doublestar.Match(p, name)
		if err != nil {
			if p == name {
				return true
			}
			continue
		}
		if ok {
			return true
		}
	}
	return false
}
