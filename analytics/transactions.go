package analytics

import (
	"sort"
	"time"

	"github.com/c360studio/ledgerstream/ledger"
)

const defaultHistogramBins = 30

// TransactionDetail is one drill-down row of a category listing.
type TransactionDetail struct {
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	Amount      float64   `json:"amount"`
}

// CategoryTransactions lists every transaction of one category across
// all transaction types, sorted by amount ascending so the largest
// spends come first.
func CategoryTransactions(s *ledger.Snapshot, category string) []TransactionDetail {
	var details []TransactionDetail
	for _, tx := range s.Transactions {
		if tx.Category != category {
			continue
		}
		details = append(details, TransactionDetail{
			Description: tx.Description,
			Date:        tx.Date,
			Amount:      tx.Amount,
		})
	}
	sort.SliceStable(details, func(i, j int) bool { return details[i].Amount < details[j].Amount })
	return details
}

// HistogramBin is one bin of the amount histogram. High is exclusive
// except for the last bin, which closes the range.
type HistogramBin struct {
	Low   float64 `json:"low"`
	High  float64 `json:"high"`
	Count int     `json:"count"`
}

// CategoryHistogram bins the category's transaction amounts into bins
// equal-width buckets. A non-positive bin count falls back to 30. When
// every amount is identical a single bin holds them all.
func CategoryHistogram(s *ledger.Snapshot, category string, bins int) []HistogramBin {
	if bins <= 0 {
		bins = defaultHistogramBins
	}

	details := CategoryTransactions(s, category)
	if len(details) == 0 {
		return nil
	}

	low, high := details[0].Amount, details[0].Amount
	for _, d := range details {
		if d.Amount < low {
			low = d.Amount
		}
		if d.Amount > high {
			high = d.Amount
		}
	}
	if low == high {
		return []HistogramBin{{Low: low, High: high, Count: len(details)}}
	}

	width := (high - low) / float64(bins)
	out := make([]HistogramBin, bins)
	for i := range out {
		out[i].Low = low + width*float64(i)
		out[i].High = low + width*float64(i+1)
	}
	out[bins-1].High = high

	for _, d := range details {
		i := int((d.Amount - low) / width)
		if i >= bins {
			i = bins - 1
		}
		out[i].Count++
	}
	return out
}
