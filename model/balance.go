package model

import "time"

// Account classes as Tiller records them in the Balance History sheet.
const (
	ClassAsset     = "Asset"
	ClassLiability = "Liability"
)

// BalanceEntry is one row of the Balance History sheet: a point-in-time
// balance snapshot for one account. Balances are recorded positive for
// both classes; sign handling happens during resampling.
type BalanceEntry struct {
	Date      time.Time `json:"date"`
	Account   string    `json:"account"`
	AccountID string    `json:"account_id"`
	Class     string    `json:"class"`
	Balance   float64   `json:"balance"`
}

// DailyBalance is one day of the resampled balance series for one account.
// Liability balances are negative here.
type DailyBalance struct {
	Date      time.Time `json:"date"`
	Account   string    `json:"account"`
	AccountID string    `json:"account_id"`
	Class     string    `json:"class"`
	Balance   float64   `json:"balance"`
}
