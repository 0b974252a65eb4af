// Package sheets reads ranges from a Google Sheets spreadsheet and exposes
// them as header-indexed tables. A range's first row is its header.
package sheets

import "fmt"

// Table is a fetched sheet range. Short rows read as empty cells.
type Table struct {
	Header []string
	Rows   [][]string

	index map[string]int
}

// NewTable builds a Table from raw cell values as returned by the Sheets
// API. Cells are stringified. When two header cells share a name, the
// first occurrence wins.
func NewTable(values [][]any) (*Table, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("empty range: no header row")
	}
	header := make([]string, len(values[0]))
	for i, c := range values[0] {
		header[i] = cellString(c)
	}
	rows := make([][]string, 0, len(values)-1)
	for _, raw := range values[1:] {
		row := make([]string, len(raw))
		for i, c := range raw {
			row[i] = cellString(c)
		}
		rows = append(rows, row)
	}
	return FromRows(header, rows), nil
}

// FromRows builds a Table from already-stringified rows.
func FromRows(header []string, rows [][]string) *Table {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		if _, ok := idx[h]; !ok {
			idx[h] = i
		}
	}
	return &Table{Header: header, Rows: rows, index: idx}
}

// Column returns the index of the named header column.
func (t *Table) Column(name string) (int, bool) {
	i, ok := t.index[name]
	return i, ok
}

// RequireColumns returns an error naming the first missing column.
func (t *Table) RequireColumns(names ...string) error {
	for _, n := range names {
		if _, ok := t.index[n]; !ok {
			return fmt.Errorf("missing column %q", n)
		}
	}
	return nil
}

// Len returns the number of data rows.
func (t *Table) Len() int { return len(t.Rows) }

// Cell returns the value at (row, col), or "" when the row is short of
// the column.
func (t *Table) Cell(row, col int) string {
	if row < 0 || row >= len(t.Rows) || col < 0 {
		return ""
	}
	r := t.Rows[row]
	if col >= len(r) {
		return ""
	}
	return r[col]
}

func cellString(v any) string {
	switch c := v.(type) {
	case string:
		return c
	case nil:
		return ""
	default:
		return fmt.Sprint(c)
	}
}
