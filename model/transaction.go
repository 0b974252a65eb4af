// Package model defines the ledger domain types: transactions, categories,
// and account balances as they come out of a Tiller-style spreadsheet.
// Rows arrive as strings (Sheets cells) and are parsed into these types by
// the ledger package.
package model

import "time"

// TypeTransfer marks categories whose transactions move money between
// accounts rather than spend or earn it. Transfers are excluded from the
// spending view.
const TypeTransfer = "Transfer"

// Transaction is one row of the Transactions sheet, enriched with its
// category's group, type, and all-time total.
type Transaction struct {
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Amount      float64   `json:"amount"`

	// Group and Type come from the Categories sheet. Categories missing
	// from that sheet leave both empty.
	Group string `json:"group,omitempty"`
	Type  string `json:"type,omitempty"`

	// CategoryTotal is the summed Amount across every transaction sharing
	// this row's category. A negative total marks a spending category.
	CategoryTotal float64 `json:"category_total"`
}

// CategoryInfo is one row of the Categories sheet.
type CategoryInfo struct {
	Name  string `json:"name"`
	Group string `json:"group"`
	Type  string `json:"type"`
}
