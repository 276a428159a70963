package memory

import (
	"context"
	"testing"

	"bilancio/internal/core"
	"bilancio/internal/report"
)

func TestWriterReplacesTab(t *testing.T) {
	w := New()
	ctx := context.Background()

	first := report.MonthlyReport{SelectedMonth: "2025-03", TotalIncome: core.Money{Cents: 100}}
	second := report.MonthlyReport{SelectedMonth: "2025-03", TotalIncome: core.Money{Cents: 250}}
	if err := w.WriteMonthlyReport(ctx, "alice", first); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteMonthlyReport(ctx, "alice", second); err != nil {
		t.Fatal(err)
	}

	rows, ok := w.Tab("alice 2025-03")
	if !ok {
		t.Fatal("tab not written")
	}
	if got := rows[2][1]; got != "2.50" {
		t.Errorf("total income cell = %v, want 2.50", got)
	}
	if w.Writes() != 2 {
		t.Errorf("Writes() = %d, want 2", w.Writes())
	}
	if _, ok := w.Tab("bob 2025-03"); ok {
		t.Error("unexpected tab for bob")
	}
}
