package main

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bilancio/internal/core"
	"bilancio/internal/report"
)

func sampleReport() report.MonthlyReport {
	food := int64(1)
	return report.MonthlyReport{
		SelectedMonth: "2025-03",
		TotalIncome:   core.Money{Cents: 10000},
		TotalExpense:  core.Money{Cents: 10000},
		Breakdown: []report.BreakdownRow{
			{CategoryID: &food, CategoryName: "Food", Expense: core.Money{Cents: 8000}, ExpenseSharePct: decimal.NewFromInt(80)},
			{CategoryName: report.UncategorizedLabel, Income: core.Money{Cents: 10000}, Expense: core.Money{Cents: 2000}, ExpenseSharePct: decimal.NewFromInt(20)},
		},
	}
}

func TestRenderReport(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, renderReport(&buf, "json", "alice", sampleReport()))

		var got map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, "2025-03", got["month"])
		assert.Equal(t, "100.00", got["total_income"])
		assert.Equal(t, "0.00", got["net"])
		rows := got["breakdown"].([]any)
		require.Len(t, rows, 2)
		assert.Equal(t, "80.00", rows[0].(map[string]any)["expense_share_pct"])
	})

	t.Run("csv", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, renderReport(&buf, "csv", "alice", sampleReport()))
		assert.Equal(t,
			"category,income,expense,expense_share_pct\nFood,0.00,80.00,80.00\nUncategorized,100.00,20.00,20.00\n",
			buf.String())
	})

	t.Run("table", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, renderReport(&buf, "table", "alice", sampleReport()))
		out := buf.String()
		assert.Contains(t, out, "Report for alice, 2025-03")
		assert.Contains(t, out, "Uncategorized")
		assert.Contains(t, out, "100.00")
	})

	t.Run("unknown", func(t *testing.T) {
		assert.Error(t, renderReport(&bytes.Buffer{}, "xml", "alice", sampleReport()))
	})
}

func TestReportTarget(t *testing.T) {
	utc := func() (*time.Location, error) { return time.UTC, nil }

	_, m, err := reportTarget(utc, "2024-11")
	require.NoError(t, err)
	assert.Equal(t, report.Month{Year: 2024, Month: time.November}, m)

	_, _, err = reportTarget(utc, "2024-1")
	assert.Error(t, err)

	svc, m, err := reportTarget(utc, "")
	require.NoError(t, err)
	assert.Equal(t, report.MonthOf(svc.Now()), m)
}

func TestAppConfigOverrides(t *testing.T) {
	t.Setenv("DATA_BACKEND", "memory")
	t.Setenv("SQLITE_DB_PATH", "./from-env.db")

	v := viper.New()
	v.Set("data_backend", "sqlite")
	v.Set("timezone", "Europe/Rome")

	cfg := appConfig(v)
	assert.Equal(t, "sqlite", cfg.DataBackend)
	assert.Equal(t, "./from-env.db", cfg.SQLiteDBPath)
	assert.Equal(t, "Europe/Rome", cfg.Timezone)
}
