package ledger

import (
	"fmt"

	"github.com/c360studio/ledgerstream/model"
	"github.com/c360studio/ledgerstream/sheets"
)

// BuildCategories parses the Categories sheet.
func BuildCategories(tbl *sheets.Table) ([]model.CategoryInfo, error) {
	if err := tbl.RequireColumns("Category", "Group", "Type"); err != nil {
		return nil, fmt.Errorf("categories sheet: %w", err)
	}
	nameCol, _ := tbl.Column("Category")
	groupCol, _ := tbl.Column("Group")
	typeCol, _ := tbl.Column("Type")

	cats := make([]model.CategoryInfo, 0, tbl.Len())
	for i := 0; i < tbl.Len(); i++ {
		name := tbl.Cell(i, nameCol)
		if name == "" {
			continue
		}
		cats = append(cats, model.CategoryInfo{
			Name:  name,
			Group: tbl.Cell(i, groupCol),
			Type:  tbl.Cell(i, typeCol),
		})
	}
	return cats, nil
}

// BuildTransactions parses the Transactions sheet and enriches each row
// with its category's group, type, and all-time total. Row numbers in
// errors are spreadsheet rows (header is row 1).
func BuildTransactions(tbl *sheets.Table, categories []model.CategoryInfo) ([]model.Transaction, error) {
	if err := tbl.RequireColumns("Date", "Description", "Category", "Amount"); err != nil {
		return nil, fmt.Errorf("transactions sheet: %w", err)
	}
	dateCol, _ := tbl.Column("Date")
	descCol, _ := tbl.Column("Description")
	catCol, _ := tbl.Column("Category")
	amountCol, _ := tbl.Column("Amount")

	groupFor := make(map[string]string, len(categories))
	typeFor := make(map[string]string, len(categories))
	for _, c := range categories {
		groupFor[c.Name] = c.Group
		typeFor[c.Name] = c.Type
	}

	txs := make([]model.Transaction, 0, tbl.Len())
	for i := 0; i < tbl.Len(); i++ {
		date, err := model.ParseDate(tbl.Cell(i, dateCol))
		if err != nil {
			return nil, fmt.Errorf("transactions row %d: %w", i+2, err)
		}
		amount, err := model.ParseAmount(tbl.Cell(i, amountCol))
		if err != nil {
			return nil, fmt.Errorf("transactions row %d: %w", i+2, err)
		}
		cat := tbl.Cell(i, catCol)
		txs = append(txs, model.Transaction{
			Date:        date,
			Description: tbl.Cell(i, descCol),
			Category:    cat,
			Amount:      amount,
			Group:       groupFor[cat],
			Type:        typeFor[cat],
		})
	}

	totals := make(map[string]float64)
	for _, tx := range txs {
		totals[tx.Category] += tx.Amount
	}
	for i := range txs {
		txs[i].CategoryTotal = totals[txs[i].Category]
	}
	return txs, nil
}

// BuildBalances parses the Balance History sheet. Balance cells strip
// "$" and "," like amount cells; blank balances read as zero.
func BuildBalances(tbl *sheets.Table) ([]model.BalanceEntry, error) {
	if err := tbl.RequireColumns("Date", "Account", "Account ID", "Class", "Balance"); err != nil {
		return nil, fmt.Errorf("balance history sheet: %w", err)
	}
	dateCol, _ := tbl.Column("Date")
	accountCol, _ := tbl.Column("Account")
	idCol, _ := tbl.Column("Account ID")
	classCol, _ := tbl.Column("Class")
	balanceCol, _ := tbl.Column("Balance")

	entries := make([]model.BalanceEntry, 0, tbl.Len())
	for i := 0; i < tbl.Len(); i++ {
		date, err := model.ParseDate(tbl.Cell(i, dateCol))
		if err != nil {
			return nil, fmt.Errorf("balance history row %d: %w", i+2, err)
		}
		balance, err := model.ParseAmount(tbl.Cell(i, balanceCol))
		if err != nil {
			return nil, fmt.Errorf("balance history row %d: %w", i+2, err)
		}
		entries = append(entries, model.BalanceEntry{
			Date:      date,
			Account:   tbl.Cell(i, accountCol),
			AccountID: tbl.Cell(i, idCol),
			Class:     tbl.Cell(i, classCol),
			Balance:   balance,
		})
	}
	return entries, nil
}
