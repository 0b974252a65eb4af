package ledger

import (
	"sort"
	"time"

	"github.com/c360studio/ledgerstream/model"
)

// ResampleDailyBalances expands raw balance snapshots into one row per
// account per calendar day, from the earliest snapshot of any account
// through today.
//
// Per account and day the last recorded snapshot wins. Liability
// balances flip negative. Between snapshots the balance interpolates
// linearly; after the last snapshot it holds that value; before the
// first snapshot it is zero. Account metadata carries across the whole
// range. Accounts are emitted in account-ID order.
func ResampleDailyBalances(entries []model.BalanceEntry, now time.Time) []model.DailyBalance {
	if len(entries) == 0 {
		return nil
	}

	type point struct {
		day     time.Time
		balance float64
		account string
		class   string
	}

	byAccount := make(map[string][]point)
	seen := make(map[string]map[time.Time]int)
	var minDay time.Time
	for _, e := range entries {
		day := model.DayOf(e.Date)
		if minDay.IsZero() || day.Before(minDay) {
			minDay = day
		}
		balance := e.Balance
		if e.Class == model.ClassLiability {
			balance = -balance
		}
		p := point{day: day, balance: balance, account: e.Account, class: e.Class}

		if seen[e.AccountID] == nil {
			seen[e.AccountID] = make(map[time.Time]int)
		}
		if i, ok := seen[e.AccountID][day]; ok {
			byAccount[e.AccountID][i] = p
			continue
		}
		seen[e.AccountID][day] = len(byAccount[e.AccountID])
		byAccount[e.AccountID] = append(byAccount[e.AccountID], p)
	}

	endDay := model.DayOf(now)
	if endDay.Before(minDay) {
		endDay = minDay
	}

	accountIDs := make([]string, 0, len(byAccount))
	for id := range byAccount {
		accountIDs = append(accountIDs, id)
	}
	sort.Strings(accountIDs)

	nDays := daysBetween(minDay, endDay) + 1
	out := make([]model.DailyBalance, 0, nDays*len(accountIDs))

	for _, id := range accountIDs {
		points := byAccount[id]
		sort.Slice(points, func(i, j int) bool { return points[i].day.Before(points[j].day) })

		// idx tracks the last point at or before the current day.
		idx := -1
		for day := minDay; !day.After(endDay); day = day.AddDate(0, 0, 1) {
			for idx+1 < len(points) && !points[idx+1].day.After(day) {
				idx++
			}

			var balance float64
			meta := points[0]
			switch {
			case idx < 0:
				// Before the account's first snapshot.
				balance = 0
			case idx == len(points)-1:
				meta = points[idx]
				balance = points[idx].balance
			default:
				meta = points[idx]
				p0, p1 := points[idx], points[idx+1]
				span := daysBetween(p0.day, p1.day)
				frac := float64(daysBetween(p0.day, day)) / float64(span)
				balance = p0.balance + (p1.balance-p0.balance)*frac
			}

			out = append(out, model.DailyBalance{
				Date:      day,
				Account:   meta.account,
				AccountID: id,
				Class:     meta.class,
				Balance:   balance,
			})
		}
	}
	return out
}

func daysBetween(a, b time.Time) int {
	return int(b.Sub(a) / (24 * time.Hour))
}
