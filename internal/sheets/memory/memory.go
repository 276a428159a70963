// Package memory keeps exported reports in process, for tests and for
// running the worker without Google credentials.
package memory

import (
	"context"
	"sync"

	"bilancio/internal/report"
	"bilancio/internal/sheets"
)

var _ sheets.ReportWriter = (*Writer)(nil)

type Writer struct {
	mu   sync.Mutex
	tabs map[string][][]any
	n    int
}

func New() *Writer {
	return &Writer{tabs: make(map[string][][]any)}
}

// WriteMonthlyReport replaces the tab for username and the report month.
func (w *Writer) WriteMonthlyReport(_ context.Context, username string, r report.MonthlyReport) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.tabs[sheets.TabName(username, r.SelectedMonth)] = sheets.Rows(username, r)
	w.n++
	return nil
}

// Tab returns a copy of the rows written to name.
func (w *Writer) Tab(name string) ([][]any, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	rows, ok := w.tabs[name]
	if !ok {
		return nil, false
	}
	return append([][]any(nil), rows...), true
}

// Writes counts calls to WriteMonthlyReport.
func (w *Writer) Writes() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.n
}
