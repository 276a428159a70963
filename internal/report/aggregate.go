package report

import "bilancio/internal/core"

type Totals struct {
	Income  core.Money
	Expense core.Money
	Net     core.Money
}

// Sum computes the income and expense totals independently. A month with
// no rows of a type yields zero for that type.
func Sum(txs []core.Transaction) Totals {
	var t Totals
	for _, tx := range txs {
		switch tx.Type {
		case core.Income:
			t.Income = t.Income.Add(tx.Amount)
		case core.Expense:
			t.Expense = t.Expense.Add(tx.Amount)
		}
	}
	t.Net = t.Income.Sub(t.Expense)
	return t
}
