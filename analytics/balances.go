package analytics

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/c360studio/ledgerstream/ledger"
	"github.com/c360studio/ledgerstream/model"
)

// NetWorthSeries sums the resampled daily balances across accounts into
// one net-worth point per day.
func NetWorthSeries(s *ledger.Snapshot, now time.Time) []DatePoint {
	daily := ledger.ResampleDailyBalances(s.Balances, now)
	if len(daily) == 0 {
		return nil
	}

	sums := make(map[time.Time]float64)
	for _, d := range daily {
		sums[d.Date] += d.Balance
	}
	dates := make([]time.Time, 0, len(sums))
	for d := range sums {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	out := make([]DatePoint, len(dates))
	for i, d := range dates {
		out[i] = DatePoint{Date: d, Amount: sums[d]}
	}
	return out
}

// AccountBalancesOptions filters the monthly account balance view.
type AccountBalancesOptions struct {
	// ExcludeAccounts lists account-name patterns to drop.
	ExcludeAccounts []string
}

// AccountMonthPoint is one account's balance for one month, labeled the
// way the stacked chart prints it.
type AccountMonthPoint struct {
	Month   string  `json:"month"`
	Balance float64 `json:"balance"`
	Label   string  `json:"label"`
}

// AccountSeries is one account's monthly balances. Total orders accounts
// in the stacked view.
type AccountSeries struct {
	Account string              `json:"account"`
	Total   float64             `json:"total"`
	Months  []AccountMonthPoint `json:"months"`
}

// MonthlyAccountBalances reduces the resampled daily series to each
// account's first balance per month. Negative balances drop out before
// grouping, so a month's value is the first day the account was in the
// black. Accounts order by all-time total, descending.
func MonthlyAccountBalances(s *ledger.Snapshot, now time.Time, opts AccountBalancesOptions) []AccountSeries {
	daily := ledger.ResampleDailyBalances(s.Balances, now)

	type key struct {
		account string
		month   model.Month
	}
	firsts := make(map[key]float64)
	months := make(map[string][]model.Month)
	for _, d := range daily {
		if d.Balance < 0 {
			continue
		}
		if ledger.MatchesAny(opts.ExcludeAccounts, d.Account) {
			continue
		}
		k := key{d.Account, model.MonthOf(d.Date)}
		if _, ok := firsts[k]; ok {
			continue
		}
		firsts[k] = d.Balance
		months[d.Account] = append(months[d.Account], k.month)
	}

	series := make([]AccountSeries, 0, len(months))
	for account, ms := range months {
		sort.Slice(ms, func(i, j int) bool { return ms[i].Before(ms[j]) })

		as := AccountSeries{Account: account}
		for _, m := range ms {
			bal := firsts[key{account, m}]
			as.Months = append(as.Months, AccountMonthPoint{
				Month:   m.String(),
				Balance: bal,
				Label:   balanceLabel(account, bal),
			})
			as.Total += bal
		}
		series = append(series, as)
	}

	sort.Slice(series, func(i, j int) bool {
		if series[i].Total != series[j].Total {
			return series[i].Total > series[j].Total
		}
		return series[i].Account < series[j].Account
	})
	return series
}

// balanceLabel prints "Account: $Nk" with the balance in thousands.
func balanceLabel(account string, balance float64) string {
	return fmt.Sprintf("%s: $%sk", account, groupThousands(balance/1000))
}

// groupThousands renders v rounded to a whole number with commas
// grouping the digits. Rounding ties go to even.
func groupThousands(v float64) string {
	s := strconv.FormatFloat(v, 'f', 0, 64)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	if neg {
		s = "-" + s
	}
	return s
}
