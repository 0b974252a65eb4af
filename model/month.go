package model

import (
	"fmt"
	"time"
)

// Month is a calendar month, the grain of most ledger aggregations.
type Month struct {
	Year  int
	Month time.Month
}

// MonthOf returns the calendar month containing t.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// String formats the month as "YYYY-MM".
func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Time returns the first instant of the month in UTC.
func (m Month) Time() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// Add returns the month n months later, or earlier for negative n.
func (m Month) Add(n int) Month {
	return MonthOf(m.Time().AddDate(0, n, 0))
}

// Before reports whether m is earlier than o.
func (m Month) Before(o Month) bool {
	if m.Year != o.Year {
		return m.Year < o.Year
	}
	return m.Month < o.Month
}

// MonthsBetween returns how many whole months separate a from b,
// positive when b is later.
func MonthsBetween(a, b Month) int {
	return (b.Year-a.Year)*12 + int(b.Month) - int(a.Month)
}
