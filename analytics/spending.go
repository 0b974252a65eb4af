package analytics

import (
	"sort"
	"time"

	"github.com/c360studio/ledgerstream/ledger"
	"github.com/c360studio/ledgerstream/model"
)

// SpendingOptions controls the per-category monthly spending view.
type SpendingOptions struct {
	// Exclude lists category patterns to drop from the view.
	Exclude []string

	// MovingAvgMonths, when above 1, replaces each category's monthly
	// values with a trailing mean over that many of its months. Short
	// windows at the start of a category's history still produce values.
	MovingAvgMonths int
}

// MonthlySpendingByCategory sums the spending view per month and
// category. With a moving average the incomplete current month is
// dropped first. Categories come back ordered by total, descending.
func MonthlySpendingByCategory(s *ledger.Snapshot, now time.Time, opts SpendingOptions) []CategorySeries {
	rows := ledger.ExcludeCategories(ledger.Spending(s.Transactions), opts.Exclude)

	byCat := make(map[string]map[model.Month]float64)
	var latest model.Month
	seen := false
	for _, r := range rows {
		m := model.MonthOf(r.Date)
		mm := byCat[r.Category]
		if mm == nil {
			mm = make(map[model.Month]float64)
			byCat[r.Category] = mm
		}
		mm[m] += r.Amount
		if !seen || latest.Before(m) {
			latest = m
			seen = true
		}
	}
	if len(byCat) == 0 {
		return nil
	}

	dropLatest := opts.MovingAvgMonths > 1 && latest == model.MonthOf(now)

	series := make([]CategorySeries, 0, len(byCat))
	for cat, mm := range byCat {
		months := make([]model.Month, 0, len(mm))
		for m := range mm {
			if dropLatest && m == latest {
				continue
			}
			months = append(months, m)
		}
		if len(months) == 0 {
			continue
		}
		sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })

		values := make([]float64, len(months))
		for i, m := range months {
			values[i] = mm[m]
		}
		if opts.MovingAvgMonths > 1 {
			values = trailingMean(values, opts.MovingAvgMonths)
		}

		cs := CategorySeries{Category: cat, Points: make([]MonthPoint, len(months))}
		for i, m := range months {
			cs.Points[i] = MonthPoint{Month: m.String(), Amount: values[i]}
			cs.Total += values[i]
		}
		series = append(series, cs)
	}

	sort.Slice(series, func(i, j int) bool {
		if series[i].Total != series[j].Total {
			return series[i].Total > series[j].Total
		}
		return series[i].Category < series[j].Category
	})
	return series
}

// TotalSpendingOptions controls the monthly total spending view.
type TotalSpendingOptions struct {
	Exclude []string

	// Windows lists moving-average window sizes in months. Unlike the
	// per-category view these need a full window before producing a
	// value.
	Windows []int
}

// TotalSpending is total spending per month with its moving averages.
type TotalSpending struct {
	Months         []MonthPoint    `json:"months"`
	MovingAverages []MovingAverage `json:"moving_averages"`
}

// MovingAverage is one moving-average series over the monthly totals.
type MovingAverage struct {
	Window int          `json:"window"`
	Points []MonthPoint `json:"points"`
}

// TotalMonthlySpending sums the spending view per month. The monthly
// series includes the current month; the moving averages exclude it when
// it is still in progress and only start once their window is full.
func TotalMonthlySpending(s *ledger.Snapshot, now time.Time, opts TotalSpendingOptions) TotalSpending {
	rows := ledger.ExcludeCategories(ledger.Spending(s.Transactions), opts.Exclude)

	sums := make(map[model.Month]float64)
	for _, r := range rows {
		sums[model.MonthOf(r.Date)] += r.Amount
	}
	months := sortedMonths(sums)

	out := TotalSpending{Months: make([]MonthPoint, len(months))}
	for i, m := range months {
		out.Months[i] = MonthPoint{Month: m.String(), Amount: sums[m]}
	}

	source := months
	if len(source) > 0 && source[len(source)-1] == model.MonthOf(now) {
		source = source[:len(source)-1]
	}

	for _, n := range opts.Windows {
		if n <= 0 {
			continue
		}
		ma := MovingAverage{Window: n}
		for i := n - 1; i < len(source); i++ {
			var sum float64
			for j := i - n + 1; j <= i; j++ {
				sum += sums[source[j]]
			}
			ma.Points = append(ma.Points, MonthPoint{
				Month:  source[i].String(),
				Amount: sum / float64(n),
			})
		}
		out.MovingAverages = append(out.MovingAverages, ma)
	}
	return out
}

// SpendingBySubcategory returns every spending category's monthly series,
// alphabetically.
func SpendingBySubcategory(s *ledger.Snapshot) []CategorySeries {
	rows := ledger.Spending(s.Transactions)

	byCat := make(map[string]map[model.Month]float64)
	for _, r := range rows {
		mm := byCat[r.Category]
		if mm == nil {
			mm = make(map[model.Month]float64)
			byCat[r.Category] = mm
		}
		mm[model.MonthOf(r.Date)] += r.Amount
	}

	series := make([]CategorySeries, 0, len(byCat))
	for cat, mm := range byCat {
		cs := CategorySeries{Category: cat}
		for _, m := range sortedMonths(mm) {
			cs.Points = append(cs.Points, MonthPoint{Month: m.String(), Amount: mm[m]})
			cs.Total += mm[m]
		}
		series = append(series, cs)
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Category < series[j].Category })
	return series
}

// SingleCategoryMonthly sums one category's transactions per month over
// all transactions, keeping the raw sign. Spending categories therefore
// show negative months.
func SingleCategoryMonthly(s *ledger.Snapshot, category string) []MonthPoint {
	sums := make(map[model.Month]float64)
	for _, tx := range s.Transactions {
		if tx.Category != category {
			continue
		}
		sums[model.MonthOf(tx.Date)] += tx.Amount
	}

	months := sortedMonths(sums)
	points := make([]MonthPoint, len(months))
	for i, m := range months {
		points[i] = MonthPoint{Month: m.String(), Amount: sums[m]}
	}
	return points
}

// trailingMean replaces each value with the mean of the window ending at
// it, using as many values as exist for short windows.
func trailingMean(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		start := i - window + 1
		if start < 0 {
			start = 0
		}
		var sum float64
		for j := start; j <= i; j++ {
			sum += values[j]
		}
		out[i] = sum / float64(i-start+1)
	}
	return out
}

func sortedMonths(sums map[model.Month]float64) []model.Month {
	months := make([]model.Month, 0, len(sums))
	for m := range sums {
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })
	return months
}
