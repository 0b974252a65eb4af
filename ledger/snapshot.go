// Package ledger builds point-in-time snapshots of a Tiller-style
// spreadsheet and derives the spending and balance views the analytics
// operate on.
package ledger

import (
	"sort"
	"time"

	"github.com/c360studio/ledgerstream/model"
)

// Snapshot is one fully parsed sync of the spreadsheet.
type Snapshot struct {
	SpreadsheetID string               `json:"spreadsheet_id"`
	SyncedAt      time.Time            `json:"synced_at"`
	Transactions  []model.Transaction  `json:"transactions"`
	Categories    []model.CategoryInfo `json:"categories"`
	Balances      []model.BalanceEntry `json:"balances"`
}

// CategoryNames returns the distinct transaction categories, sorted.
func (s *Snapshot) CategoryNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, tx := range s.Transactions {
		if !seen[tx.Category] {
			seen[tx.Category] = true
			names = append(names, tx.Category)
		}
	}
	sort.Strings(names)
	return names
}

// Years returns the distinct transaction years, newest first.
func (s *Snapshot) Years() []int {
	seen := make(map[int]bool)
	var years []int
	for _, tx := range s.Transactions {
		y := tx.Date.Year()
		if !seen[y] {
			seen[y] = true
			years = append(years, y)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	return years
}
