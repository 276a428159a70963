// Package sheets renders monthly reports as spreadsheet rows and defines
// the outbound port the export worker writes through.
package sheets

import (
	"context"
	"fmt"
	"strings"

	"bilancio/internal/report"
)

// ReportWriter stores one user's monthly report in a spreadsheet. Writing
// the same month again replaces the previous content.
type ReportWriter interface {
	WriteMonthlyReport(ctx context.Context, username string, r report.MonthlyReport) error
}

var breakdownHeader = []any{"Category", "Income", "Expense", "Expense share %"}

// TabName is the tab a report lands in: "<username> YYYY-MM".
func TabName(username, month string) string {
	return fmt.Sprintf("%s %s", strings.TrimSpace(username), month)
}

// Rows lays out r as cell values. Amounts are plain decimal strings so the
// sheet parses them as numbers.
func Rows(username string, r report.MonthlyReport) [][]any {
	rows := [][]any{
		{"Monthly report", username, r.SelectedMonth},
		{},
		{"Total income", r.TotalIncome.String()},
		{"Total expense", r.TotalExpense.String()},
		{"Net", r.Net.String()},
		{},
		breakdownHeader,
	}
	for _, b := range r.Breakdown {
		rows = append(rows, []any{
			b.CategoryName,
			b.Income.String(),
			b.Expense.String(),
			b.ExpenseSharePct.StringFixed(2),
		})
	}
	return rows
}
