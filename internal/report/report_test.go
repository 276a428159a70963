package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bilancio/internal/core"
)

func ptr(v int64) *int64 { return &v }

func tx(typ core.EntryType, cents int64, cat *int64, name string, date core.Date) core.Transaction {
	return core.Transaction{Type: typ, Amount: core.Money{Cents: cents}, CategoryID: cat, CategoryName: name, Date: date}
}

type sliceSource struct {
	txs  []core.Transaction
	from core.Date
	to   core.Date
	err  error
}

func (s *sliceSource) TransactionsBetween(_ context.Context, from, to core.Date) ([]core.Transaction, error) {
	s.from, s.to = from, to
	if s.err != nil {
		return nil, s.err
	}
	var out []core.Transaction
	for _, t := range s.txs {
		if !t.Date.Before(from) && t.Date.Before(to) {
			out = append(out, t)
		}
	}
	return out, nil
}

func TestSum(t *testing.T) {
	d := core.NewDate(2025, 3, 1)

	t.Run("empty", func(t *testing.T) {
		got := Sum(nil)
		assert.Equal(t, "0.00", got.Income.String())
		assert.Equal(t, "0.00", got.Expense.String())
		assert.Equal(t, "0.00", got.Net.String())
	})

	t.Run("only expenses gives negative net", func(t *testing.T) {
		got := Sum([]core.Transaction{tx(core.Expense, 1250, nil, "", d), tx(core.Expense, 50, nil, "", d)})
		assert.True(t, got.Income.IsZero())
		assert.Equal(t, "13.00", got.Expense.String())
		assert.Equal(t, "-13.00", got.Net.String())
	})

	t.Run("net is income minus expense", func(t *testing.T) {
		got := Sum([]core.Transaction{tx(core.Income, 10000, nil, "", d), tx(core.Expense, 3333, nil, "", d)})
		assert.Equal(t, got.Income.Sub(got.Expense), got.Net)
	})
}

func TestBreakdown(t *testing.T) {
	d := core.NewDate(2025, 3, 5)
	food, rent, salary := ptr(1), ptr(2), ptr(3)

	t.Run("shares and ordering", func(t *testing.T) {
		txs := []core.Transaction{
			tx(core.Expense, 2000, food, "Food", d),
			tx(core.Expense, 6000, rent, "Rent", d),
			tx(core.Expense, 2000, nil, "", d),
			tx(core.Income, 9000, salary, "Salary", d),
		}
		rows := Breakdown(txs, Sum(txs).Expense)
		require.Len(t, rows, 4)

		assert.Equal(t, "Rent", rows[0].CategoryName)
		assert.Equal(t, "60.00", rows[0].ExpenseSharePct.StringFixed(2))
		assert.Equal(t, "Food", rows[1].CategoryName)
		assert.Equal(t, UncategorizedLabel, rows[2].CategoryName)
		assert.True(t, rows[2].Uncategorized())
		assert.Equal(t, "Salary", rows[3].CategoryName)
		assert.Equal(t, "90.00", rows[3].Income.String())
		assert.True(t, rows[3].ExpenseSharePct.IsZero())
	})

	t.Run("ties keep first seen order", func(t *testing.T) {
		txs := []core.Transaction{
			tx(core.Expense, 500, rent, "Rent", d),
			tx(core.Expense, 500, food, "Food", d),
		}
		rows := Breakdown(txs, Sum(txs).Expense)
		require.Len(t, rows, 2)
		assert.Equal(t, "Rent", rows[0].CategoryName)
		assert.Equal(t, "Food", rows[1].CategoryName)
	})

	t.Run("zero expense total", func(t *testing.T) {
		txs := []core.Transaction{tx(core.Income, 100, salary, "Salary", d)}
		rows := Breakdown(txs, core.Money{})
		require.Len(t, rows, 1)
		assert.Equal(t, "0.00", rows[0].ExpenseSharePct.StringFixed(2))
	})

	t.Run("shares round to two decimals and sum near 100", func(t *testing.T) {
		txs := []core.Transaction{
			tx(core.Expense, 100, food, "Food", d),
			tx(core.Expense, 100, rent, "Rent", d),
			tx(core.Expense, 100, nil, "", d),
		}
		rows := Breakdown(txs, Sum(txs).Expense)
		total := 0.0
		for _, r := range rows {
			assert.Equal(t, "33.33", r.ExpenseSharePct.StringFixed(2))
			f, _ := r.ExpenseSharePct.Float64()
			total += f
		}
		assert.InDelta(t, 100, total, 0.01*float64(len(rows)))
	})

	t.Run("sums match totals", func(t *testing.T) {
		txs := []core.Transaction{
			tx(core.Expense, 123, food, "Food", d),
			tx(core.Income, 456, food, "Food", d),
			tx(core.Expense, 789, nil, "", d),
			tx(core.Income, 1, nil, "", d),
		}
		totals := Sum(txs)
		var inc, exp core.Money
		for _, r := range Breakdown(txs, totals.Expense) {
			inc = inc.Add(r.Income)
			exp = exp.Add(r.Expense)
		}
		assert.Equal(t, totals.Income, inc)
		assert.Equal(t, totals.Expense, exp)
	})
}

func TestExpenseShare(t *testing.T) {
	assert.Equal(t, "66.67", ExpenseShare(core.Money{Cents: 2}, core.Money{Cents: 3}).StringFixed(2))
	assert.Equal(t, "100.00", ExpenseShare(core.Money{Cents: 5}, core.Money{Cents: 5}).StringFixed(2))
	assert.Equal(t, "0.00", ExpenseShare(core.Money{Cents: 5}, core.Money{}).StringFixed(2))
}

func TestServiceMonthly(t *testing.T) {
	now := time.Date(2025, time.March, 20, 12, 0, 0, 0, time.UTC)
	svc := NewService(WithClock(func() time.Time { return now }), WithLocation(time.UTC))
	food := ptr(10)

	src := &sliceSource{txs: []core.Transaction{
		tx(core.Income, 10000, nil, "", core.NewDate(2025, 3, 1)),
		tx(core.Expense, 4000, food, "Food", core.NewDate(2025, 3, 2)),
		tx(core.Expense, 1000, nil, "", core.NewDate(2025, 3, 31)),
		tx(core.Expense, 99999, food, "Food", core.NewDate(2025, 2, 28)),
		tx(core.Expense, 99999, food, "Food", core.NewDate(2025, 4, 1)),
	}}

	t.Run("end to end scenario", func(t *testing.T) {
		r, err := svc.Monthly(context.Background(), src, "2025-03")
		require.NoError(t, err)

		assert.Equal(t, "2025-03", r.SelectedMonth)
		assert.Equal(t, "2025-03-01", src.from.String())
		assert.Equal(t, "2025-04-01", src.to.String())
		assert.Equal(t, "100.00", r.TotalIncome.String())
		assert.Equal(t, "50.00", r.TotalExpense.String())
		assert.Equal(t, "50.00", r.Net.String())
		require.Len(t, r.Breakdown, 2)
		assert.Equal(t, "Food", r.Breakdown[0].CategoryName)
		assert.Equal(t, "80.00", r.Breakdown[0].ExpenseSharePct.StringFixed(2))
		assert.Equal(t, UncategorizedLabel, r.Breakdown[1].CategoryName)
		assert.Equal(t, "100.00", r.Breakdown[1].Income.String())
		assert.Equal(t, "20.00", r.Breakdown[1].ExpenseSharePct.StringFixed(2))
		require.Len(t, r.MonthOptions, ReportWindow)
		assert.Equal(t, "2025-03", r.MonthOptions[0].Key)
	})

	t.Run("invalid month falls back to current", func(t *testing.T) {
		r, err := svc.Monthly(context.Background(), src, "03-2025")
		require.NoError(t, err)
		assert.Equal(t, "2025-03", r.SelectedMonth)
	})

	t.Run("empty month", func(t *testing.T) {
		r, err := svc.Monthly(context.Background(), src, "2020-01")
		require.NoError(t, err)
		assert.True(t, r.TotalIncome.IsZero())
		assert.True(t, r.TotalExpense.IsZero())
		assert.True(t, r.Net.IsZero())
		assert.Empty(t, r.Breakdown)
		require.Len(t, r.MonthOptions, ReportWindow)
	})

	t.Run("source error is wrapped", func(t *testing.T) {
		boom := errors.New("boom")
		_, err := svc.Monthly(context.Background(), &sliceSource{err: boom}, "")
		require.ErrorIs(t, err, boom)
	})
}

func TestBuildIgnoresRowsOutsideMonth(t *testing.T) {
	now := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	r := Build(Month{2025, time.March}, now, []core.Transaction{
		tx(core.Expense, 100, nil, "", core.NewDate(2025, 2, 28)),
		tx(core.Expense, 200, nil, "", core.NewDate(2025, 3, 1)),
	})
	assert.Equal(t, "2.00", r.TotalExpense.String())
}
