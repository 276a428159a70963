package report

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"bilancio/internal/core"
)

// MonthlyReport is what the monthly report view renders.
type MonthlyReport struct {
	SelectedMonth string
	MonthOptions  []MonthOption
	TotalIncome   core.Money
	TotalExpense  core.Money
	Net           core.Money
	Breakdown     []BreakdownRow
}

// TransactionSource yields one owner's transactions dated in [from, to),
// with category names resolved.
type TransactionSource interface {
	TransactionsBetween(ctx context.Context, from, to core.Date) ([]core.Transaction, error)
}

type Option func(*Service)

// WithLocation sets the time zone used to decide the current month.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// Service builds monthly reports. It holds no per-user state.
type Service struct {
	now func() time.Time
	loc *time.Location
}

func NewService(opts ...Option) *Service {
	s := &Service{now: time.Now, loc: time.Local}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now returns the current time in the configured location.
func (s *Service) Now() time.Time {
	return s.now().In(s.loc)
}

// Location returns the configured location.
func (s *Service) Location() *time.Location {
	return s.loc
}

// Today returns the current calendar date in the configured location.
func (s *Service) Today() core.Date {
	return core.DateOf(s.Now())
}

// Resolve turns a raw month parameter into a Month, defaulting to the
// current one.
func (s *Service) Resolve(raw string) Month {
	return ResolveMonth(raw, s.Now())
}

// Monthly resolves rawMonth and builds the report for it.
func (s *Service) Monthly(ctx context.Context, src TransactionSource, rawMonth string) (MonthlyReport, error) {
	return s.MonthlyFor(ctx, src, s.Resolve(rawMonth))
}

func (s *Service) MonthlyFor(ctx context.Context, src TransactionSource, m Month) (MonthlyReport, error) {
	from, to := m.Bounds()
	txs, err := src.TransactionsBetween(ctx, from, to)
	if err != nil {
		return MonthlyReport{}, fmt.Errorf("load transactions for %s: %w", m.Key(), err)
	}
	r := Build(m, s.Now(), txs)
	slog.DebugContext(ctx, "Built monthly report",
		"month", r.SelectedMonth,
		"transactions", len(txs),
		"categories", len(r.Breakdown))
	return r, nil
}

// Build assembles the report for m from txs. Rows dated outside m are
// ignored.
func Build(m Month, now time.Time, txs []core.Transaction) MonthlyReport {
	inMonth := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if m.Contains(tx.Date) {
			inMonth = append(inMonth, tx)
		}
	}
	totals := Sum(inMonth)
	return MonthlyReport{
		SelectedMonth: m.Key(),
		MonthOptions:  MonthOptions(now, ReportWindow),
		TotalIncome:   totals.Income,
		TotalExpense:  totals.Expense,
		Net:           totals.Net,
		Breakdown:     Breakdown(inMonth, totals.Expense),
	}
}
