package model

import (
	"fmt"
	"strings"
	"time"
)

// Date layouts seen in Tiller exports. Sheets renders dates by locale, so
// both US slash dates and ISO dates show up in the same spreadsheet.
var dateLayouts = []string{
	"2006-01-02",
	"1/2/2006",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05",
}

// ParseDate parses a date cell using the known Tiller layouts.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("parse date: empty cell")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parse date %q: unrecognized layout", s)
}

// DayOf truncates t to midnight UTC, the grain of the daily balance series.
func DayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
