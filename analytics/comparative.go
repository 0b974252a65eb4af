package analytics

import (
	"fmt"
	"sort"
	"time"

	"github.com/c360studio/ledgerstream/ledger"
	"github.com/c360studio/ledgerstream/model"
)

// Categories that would distort the day-of-month comparison: income and
// investment purchases.
var comparativeExcluded = map[string]bool{
	incomeCategory:          true,
	"Investments in Stocks": true,
	"Investments in Crypto": true,
}

// DayPoint is one day of a cumulative month curve.
type DayPoint struct {
	Day    int     `json:"day"`
	Amount float64 `json:"amount"`
}

// ComparativeMonth is one month's cumulative daily spending curve.
type ComparativeMonth struct {
	Label     string     `json:"label"`
	Month     string     `json:"month"`
	IsCurrent bool       `json:"is_current"`
	Points    []DayPoint `json:"points"`
}

// ComparativeSpending builds cumulative spending by day of month for the
// months within lastMonths of the latest transaction date. It works over
// raw transactions minus paychecks and investment purchases, negated so
// spending is positive. The most recent month is flagged current.
//
// The cutoff is a date, not a month boundary: the oldest curve may start
// partway through its month, with the running total still counting the
// clipped days.
func ComparativeSpending(s *ledger.Snapshot, lastMonths int) []ComparativeMonth {
	daySums := make(map[time.Time]float64)
	for _, tx := range s.Transactions {
		if comparativeExcluded[tx.Category] {
			continue
		}
		daySums[model.DayOf(tx.Date)] += -tx.Amount
	}
	if len(daySums) == 0 {
		return nil
	}

	days := make([]time.Time, 0, len(daySums))
	for d := range daySums {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	maxDay := days[len(days)-1]
	cutoff := addMonthsClamped(maxDay, -lastMonths)
	recent := model.MonthOf(maxDay)

	byMonth := make(map[model.Month]*ComparativeMonth)
	var order []model.Month
	running := make(map[model.Month]float64)
	for _, d := range days {
		m := model.MonthOf(d)
		running[m] += daySums[d]
		if d.Before(cutoff) {
			continue
		}
		cm := byMonth[m]
		if cm == nil {
			n := model.MonthsBetween(m, recent)
			label := fmt.Sprintf("%d months ago, %s", n, m)
			if n == 0 {
				label = fmt.Sprintf("This Month, %s", m)
			}
			cm = &ComparativeMonth{
				Label:     label,
				Month:     m.String(),
				IsCurrent: n == 0,
			}
			byMonth[m] = cm
			order = append(order, m)
		}
		cm.Points = append(cm.Points, DayPoint{Day: d.Day(), Amount: running[m]})
	}

	out := make([]ComparativeMonth, 0, len(order))
	for _, m := range order {
		out = append(out, *byMonth[m])
	}
	return out
}

// addMonthsClamped shifts t by months the way calendar offsets do,
// clamping the day to the target month's length: March 31 minus one
// month lands on the last day of February, never overflowing forward.
func addMonthsClamped(t time.Time, months int) time.Time {
	first := time.Date(t.Year(), t.Month()+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	day := t.Day()
	if last := first.AddDate(0, 1, -1).Day(); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, t.Location())
}
