// Package worker turns queued export requests into spreadsheet writes.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"bilancio/internal/amqp"
	"bilancio/internal/report"
	"bilancio/internal/sheets"
	"bilancio/internal/storage"
)

// ExportWorker rebuilds a user's monthly report from the store and hands it
// to a sheets writer.
type ExportWorker struct {
	store   storage.Store
	reports *report.Service
	writer  sheets.ReportWriter
	logger  *slog.Logger

	exported atomic.Int64
	skipped  atomic.Int64
}

func NewExportWorker(store storage.Store, reports *report.Service, writer sheets.ReportWriter, logger *slog.Logger) *ExportWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExportWorker{
		store:   store,
		reports: reports,
		writer:  writer,
		logger:  logger.With("component", "worker"),
	}
}

// Handle processes one queued export. A user that no longer exists is
// logged and skipped so the message is acknowledged.
func (w *ExportWorker) Handle(ctx context.Context, msg *amqp.ReportExportMessage) error {
	m, ok := msg.ReportMonth()
	if !ok {
		w.skipped.Add(1)
		w.logger.WarnContext(ctx, "Skipping export with invalid month", "user_id", msg.UserID, "month", msg.Month)
		return nil
	}

	err := w.Export(ctx, msg.UserID, m)
	if errors.Is(err, storage.ErrNotFound) {
		w.skipped.Add(1)
		w.logger.WarnContext(ctx, "Skipping export for unknown user", "user_id", msg.UserID, "month", msg.Month)
		return nil
	}
	return err
}

// Export writes the report of month m for userID.
func (w *ExportWorker) Export(ctx context.Context, userID int64, m report.Month) error {
	user, err := w.store.UserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("load user %d: %w", userID, err)
	}

	r, err := w.reports.MonthlyFor(ctx, w.store.Scope(user.ID), m)
	if err != nil {
		return fmt.Errorf("build report: %w", err)
	}

	if err := w.writer.WriteMonthlyReport(ctx, user.Username, r); err != nil {
		return fmt.Errorf("write report to sheets: %w", err)
	}

	w.exported.Add(1)
	w.logger.InfoContext(ctx, "Exported monthly report",
		"user_id", user.ID,
		"month", r.SelectedMonth,
		"categories", len(r.Breakdown))
	return nil
}

type Stats struct {
	Exported int64
	Skipped  int64
}

func (w *ExportWorker) Stats() Stats {
	return Stats{Exported: w.exported.Load(), Skipped: w.skipped.Load()}
}
