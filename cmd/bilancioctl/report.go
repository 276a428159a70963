package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"bilancio/internal/core"
	"bilancio/internal/report"
	"bilancio/internal/sheets/google"
	"bilancio/internal/storage"
	"bilancio/internal/worker"
)

func reportCmd() *cobra.Command {
	var username, month, format string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print a user's monthly report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, cfg, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore(store)

			svc, m, err := reportTarget(cfg.Location, month)
			if err != nil {
				return err
			}
			u, err := lookupUser(ctx, store, username)
			if err != nil {
				return err
			}
			r, err := svc.MonthlyFor(ctx, store.Scope(u.ID), m)
			if err != nil {
				return err
			}
			return renderReport(cmd.OutOrStdout(), format, u.Username, r)
		},
	}
	cmd.Flags().StringVar(&username, "user", "", "username")
	cmd.Flags().StringVar(&month, "month", "", "month as YYYY-MM (default: current month)")
	cmd.Flags().StringVar(&format, "format", "table", "output format (table, json, csv)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func exportCmd() *cobra.Command {
	var username, month string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a user's monthly report to Google Sheets now",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, cfg, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore(store)

			if err := cfg.ValidateSheets(); err != nil {
				return err
			}
			svc, m, err := reportTarget(cfg.Location, month)
			if err != nil {
				return err
			}
			u, err := lookupUser(ctx, store, username)
			if err != nil {
				return err
			}
			writer, err := google.New(ctx, google.Config{
				SpreadsheetID:   cfg.GoogleSpreadsheetID,
				CredentialsJSON: cfg.GoogleServiceAccountJSON,
				CredentialsFile: cfg.GoogleServiceAccountFile,
			}, nil)
			if err != nil {
				return err
			}
			if err := worker.NewExportWorker(store, svc, writer, nil).Export(ctx, u.ID, m); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %s for %s\n", m.Key(), u.Username)
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "user", "", "username")
	cmd.Flags().StringVar(&month, "month", "", "month as YYYY-MM (default: current month)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

// reportTarget builds the report service and resolves month, rejecting
// anything that is not a strict YYYY-MM.
func reportTarget(location func() (*time.Location, error), raw string) (*report.Service, report.Month, error) {
	loc, err := location()
	if err != nil {
		return nil, report.Month{}, err
	}
	svc := report.NewService(report.WithLocation(loc))
	if raw == "" {
		return svc, report.MonthOf(svc.Now()), nil
	}
	m, ok := report.ParseMonth(raw)
	if !ok {
		return nil, report.Month{}, fmt.Errorf("invalid month %q: want YYYY-MM", raw)
	}
	return svc, m, nil
}

func lookupUser(ctx context.Context, users storage.UserStore, username string) (core.User, error) {
	u, err := users.UserByUsername(ctx, username)
	if err != nil {
		return core.User{}, fmt.Errorf("user %q: %w", username, err)
	}
	return u, nil
}

type reportOut struct {
	User         string         `json:"user"`
	Month        string         `json:"month"`
	TotalIncome  core.Money     `json:"total_income"`
	TotalExpense core.Money     `json:"total_expense"`
	Net          core.Money     `json:"net"`
	Breakdown    []breakdownOut `json:"breakdown"`
}

type breakdownOut struct {
	Category        string     `json:"category"`
	Income          core.Money `json:"income"`
	Expense         core.Money `json:"expense"`
	ExpenseSharePct string     `json:"expense_share_pct"`
}

func renderReport(w io.Writer, format, username string, r report.MonthlyReport) error {
	switch format {
	case "table":
		return renderTable(w, username, r)
	case "json":
		out := reportOut{
			User:         username,
			Month:        r.SelectedMonth,
			TotalIncome:  r.TotalIncome,
			TotalExpense: r.TotalExpense,
			Net:          r.Net,
			Breakdown:    make([]breakdownOut, 0, len(r.Breakdown)),
		}
		for _, b := range r.Breakdown {
			out.Breakdown = append(out.Breakdown, breakdownOut{
				Category:        b.CategoryName,
				Income:          b.Income,
				Expense:         b.Expense,
				ExpenseSharePct: b.ExpenseSharePct.StringFixed(2),
			})
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	case "csv":
		cw := csv.NewWriter(w)
		_ = cw.Write([]string{"category", "income", "expense", "expense_share_pct"})
		for _, b := range r.Breakdown {
			_ = cw.Write([]string{b.CategoryName, b.Income.String(), b.Expense.String(), b.ExpenseSharePct.StringFixed(2)})
		}
		cw.Flush()
		return cw.Error()
	default:
		return fmt.Errorf("unknown format %q: want table, json or csv", format)
	}
}

func renderTable(w io.Writer, username string, r report.MonthlyReport) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Report for %s, %s\n\n", username, r.SelectedMonth)
	fmt.Fprintf(tw, "Total income\t%s\n", r.TotalIncome)
	fmt.Fprintf(tw, "Total expense\t%s\n", r.TotalExpense)
	fmt.Fprintf(tw, "Net\t%s\n\n", r.Net)
	fmt.Fprintln(tw, "CATEGORY\tINCOME\tEXPENSE\tSHARE %")
	for _, b := range r.Breakdown {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", b.CategoryName, b.Income, b.Expense, b.ExpenseSharePct.StringFixed(2))
	}
	return tw.Flush()
}
