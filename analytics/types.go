// Package analytics derives the dashboard aggregations from a ledger
// snapshot. Each function mirrors one dashboard chart and keeps its exact
// semantics, including how moving averages treat short windows and the
// incomplete current month.
package analytics

import "time"

// MonthPoint is one month of an aggregated series.
type MonthPoint struct {
	Month  string  `json:"month"`
	Amount float64 `json:"amount"`
}

// CategorySeries is one category's monthly series. Total is the sum of
// the points and drives stacking order.
type CategorySeries struct {
	Category string       `json:"category"`
	Total    float64      `json:"total"`
	Points   []MonthPoint `json:"points"`
}

// DatePoint is one day of a daily series.
type DatePoint struct {
	Date   time.Time `json:"date"`
	Amount float64   `json:"amount"`
}
