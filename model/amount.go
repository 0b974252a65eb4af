package model

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseAmount converts a currency cell such as "$1,234.56" or "-$12.00"
// into a float64 dollar value. Blank cells parse to zero; Tiller leaves
// pending transactions with an empty Amount.
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return v, nil
}
