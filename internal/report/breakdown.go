package report

import (
	"sort"

	"github.com/shopspring/decimal"

	"bilancio/internal/core"
)

// UncategorizedLabel names the bucket of transactions without a category.
const UncategorizedLabel = "Uncategorized"

type BreakdownRow struct {
	CategoryID      *int64
	CategoryName    string
	Income          core.Money
	Expense         core.Money
	ExpenseSharePct decimal.Decimal
}

func (r BreakdownRow) Uncategorized() bool {
	return r.CategoryID == nil
}

// Breakdown groups rows by category and computes each group's share of
// totalExpense, rounded to two decimals. Groups are ordered by expense,
// highest first; ties keep the order in which groups were first seen.
func Breakdown(txs []core.Transaction, totalExpense core.Money) []BreakdownRow {
	type groupKey struct {
		id    int64
		valid bool
	}
	index := make(map[groupKey]int)
	rows := make([]BreakdownRow, 0)

	for _, tx := range txs {
		k := groupKey{}
		if tx.CategoryID != nil {
			k = groupKey{id: *tx.CategoryID, valid: true}
		}
		i, ok := index[k]
		if !ok {
			row := BreakdownRow{CategoryName: UncategorizedLabel}
			if k.valid {
				id := k.id
				row.CategoryID = &id
				row.CategoryName = tx.CategoryName
			}
			rows = append(rows, row)
			i = len(rows) - 1
			index[k] = i
		}
		switch tx.Type {
		case core.Income:
			rows[i].Income = rows[i].Income.Add(tx.Amount)
		case core.Expense:
			rows[i].Expense = rows[i].Expense.Add(tx.Amount)
		}
	}

	for i := range rows {
		rows[i].ExpenseSharePct = ExpenseShare(rows[i].Expense, totalExpense)
	}
	sort.SliceStable(rows, func(a, b int) bool {
		return rows[a].Expense.Cents > rows[b].Expense.Cents
	})
	return rows
}

var hundred = decimal.NewFromInt(100)

// ExpenseShare returns expense/total*100 rounded to two decimals, or zero
// when total is zero.
func ExpenseShare(expense, total core.Money) decimal.Decimal {
	if total.IsZero() {
		return decimal.Zero
	}
	return expense.Decimal().Mul(hundred).Div(total.Decimal()).Round(2)
}
