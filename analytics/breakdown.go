package analytics

import (
	"fmt"
	"sort"

	"github.com/c360studio/ledgerstream/ledger"
)

// BreakdownOptions filters the spending breakdown.
type BreakdownOptions struct {
	// Month keeps only transactions in this calendar month (1-12),
	// across every year unless Year narrows it. Zero means no filter.
	Month int

	// Year keeps only transactions in this calendar year. Zero means no
	// filter.
	Year int

	// WithGroups nests categories under their category group.
	WithGroups bool
}

// BreakdownNode is one slice of the spending breakdown. Leaves are
// categories; with grouping enabled the top level holds groups.
type BreakdownNode struct {
	Name     string          `json:"name"`
	Amount   float64         `json:"amount"`
	Percent  string          `json:"percent,omitempty"`
	Children []BreakdownNode `json:"children,omitempty"`
}

// SpendingBreakdown aggregates the spending view per category after the
// month/year filter. Percent labels stay each category's share of
// all-time spending, computed before filtering, so a January breakdown
// still shows the category's overall weight.
func SpendingBreakdown(s *ledger.Snapshot, opts BreakdownOptions) []BreakdownNode {
	rows := ledger.Spending(s.Transactions)

	pctFor := make(map[string]float64)
	for _, r := range rows {
		pctFor[r.Category] = r.CategoryPct
	}

	amounts := make(map[string]float64)
	groupFor := make(map[string]string)
	for _, r := range rows {
		if opts.Month != 0 && int(r.Date.Month()) != opts.Month {
			continue
		}
		if opts.Year != 0 && r.Date.Year() != opts.Year {
			continue
		}
		amounts[r.Category] += r.Amount
		groupFor[r.Category] = r.Group
	}
	if len(amounts) == 0 {
		return nil
	}

	leaves := make([]BreakdownNode, 0, len(amounts))
	for cat, amt := range amounts {
		leaves = append(leaves, BreakdownNode{
			Name:    cat,
			Amount:  amt,
			Percent: fmt.Sprintf("%.2f%%", pctFor[cat]),
		})
	}
	sortNodes(leaves)

	if !opts.WithGroups {
		return leaves
	}

	grouped := make(map[string]*BreakdownNode)
	for _, leaf := range leaves {
		g := groupFor[leaf.Name]
		node := grouped[g]
		if node == nil {
			node = &BreakdownNode{Name: g}
			grouped[g] = node
		}
		node.Amount += leaf.Amount
		node.Children = append(node.Children, leaf)
	}
	out := make([]BreakdownNode, 0, len(grouped))
	for _, n := range grouped {
		out = append(out, *n)
	}
	sortNodes(out)
	return out
}

func sortNodes(nodes []BreakdownNode) {
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].Amount != nodes[j].Amount {
			return nodes[i].Amount > nodes[j].Amount
		}
		return nodes[i].Name < nodes[j].Name
	})
}
