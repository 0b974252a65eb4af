package analytics

import (
	"github.com/c360studio/ledgerstream/ledger"
	"github.com/c360studio/ledgerstream/model"
)

// Income arrives as Paycheck transactions in Tiller's category scheme.
const incomeCategory = "Paycheck"

// MonthlyIncome sums paycheck transactions per month. Months without a
// paycheck between the first and the last appear with a zero, so gaps in
// income are visible.
func MonthlyIncome(s *ledger.Snapshot) []MonthPoint {
	sums := make(map[model.Month]float64)
	var first, last model.Month
	seen := false
	for _, tx := range s.Transactions {
		if tx.Category != incomeCategory {
			continue
		}
		m := model.MonthOf(tx.Date)
		sums[m] += tx.Amount
		if !seen {
			first, last = m, m
			seen = true
			continue
		}
		if m.Before(first) {
			first = m
		}
		if last.Before(m) {
			last = m
		}
	}
	if !seen {
		return nil
	}

	var points []MonthPoint
	for m := first; !last.Before(m); m = m.Add(1) {
		points = append(points, MonthPoint{Month: m.String(), Amount: sums[m]})
	}
	return points
}
