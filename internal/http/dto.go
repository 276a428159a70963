package http

import (
	"time"

	"bilancio/internal/core"
	"bilancio/internal/report"
)

type userJSON struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

type categoryJSON struct {
	ID        int64          `json:"id"`
	Name      string         `json:"name"`
	Kind      core.EntryType `json:"kind"`
	KindLabel string         `json:"kind_label"`
	Global    bool           `json:"global"`
	CreatedAt time.Time      `json:"created_at"`
}

func toCategoryJSON(c core.Category) categoryJSON {
	return categoryJSON{
		ID:        c.ID,
		Name:      c.Name,
		Kind:      c.Kind,
		KindLabel: c.Kind.Label(),
		Global:    c.IsGlobal(),
		CreatedAt: c.CreatedAt,
	}
}

type transactionJSON struct {
	ID           int64          `json:"id"`
	Type         core.EntryType `json:"type"`
	TypeLabel    string         `json:"type_label"`
	Amount       core.Money     `json:"amount"`
	CategoryID   *int64         `json:"category_id"`
	CategoryName string         `json:"category_name"`
	Description  string         `json:"description"`
	Date         core.Date      `json:"date"`
	CreatedAt    time.Time      `json:"created_at"`
}

func toTransactionJSON(t core.Transaction) transactionJSON {
	return transactionJSON{
		ID:           t.ID,
		Type:         t.Type,
		TypeLabel:    t.Type.Label(),
		Amount:       t.Amount,
		CategoryID:   t.CategoryID,
		CategoryName: t.CategoryName,
		Description:  t.Description,
		Date:         t.Date,
		CreatedAt:    t.CreatedAt,
	}
}

type breakdownJSON struct {
	CategoryID      *int64     `json:"category_id"`
	CategoryName    string     `json:"category_name"`
	Income          core.Money `json:"income"`
	Expense         core.Money `json:"expense"`
	ExpenseSharePct string     `json:"expense_share_pct"`
}

type reportJSON struct {
	SelectedMonth string               `json:"selected_month"`
	MonthOptions  []report.MonthOption `json:"month_options"`
	TotalIncome   core.Money           `json:"total_income"`
	TotalExpense  core.Money           `json:"total_expense"`
	Net           core.Money           `json:"net"`
	Breakdown     []breakdownJSON      `json:"breakdown"`
}

func toReportJSON(r report.MonthlyReport) reportJSON {
	rows := make([]breakdownJSON, 0, len(r.Breakdown))
	for _, b := range r.Breakdown {
		rows = append(rows, breakdownJSON{
			CategoryID:      b.CategoryID,
			CategoryName:    b.CategoryName,
			Income:          b.Income,
			Expense:         b.Expense,
			ExpenseSharePct: b.ExpenseSharePct.StringFixed(2),
		})
	}
	return reportJSON{
		SelectedMonth: r.SelectedMonth,
		MonthOptions:  r.MonthOptions,
		TotalIncome:   r.TotalIncome,
		TotalExpense:  r.TotalExpense,
		Net:           r.Net,
		Breakdown:     rows,
	}
}

// PageSize matches the listing page length.
const PageSize = 20

type pageJSON struct {
	Page       int `json:"page"`
	TotalPages int `json:"total_pages"`
	Total      int `json:"total"`
}

// paginate returns the bounds of page within n items. Pages past the end
// are empty.
func paginate(n, page int) (lo, hi int, meta pageJSON) {
	pages := (n + PageSize - 1) / PageSize
	if pages == 0 {
		pages = 1
	}
	lo = (page - 1) * PageSize
	if lo > n {
		lo = n
	}
	hi = lo + PageSize
	if hi > n {
		hi = n
	}
	return lo, hi, pageJSON{Page: page, TotalPages: pages, Total: n}
}

type transactionListJSON struct {
	Transactions  []transactionJSON    `json:"transactions"`
	MonthOptions  []report.MonthOption `json:"month_options"`
	SelectedMonth string               `json:"selected_month"`
	pageJSON
}

type categoryListJSON struct {
	Categories []categoryJSON `json:"categories"`
	pageJSON
}
