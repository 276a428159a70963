// Package export renders transaction listings as CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"bilancio/internal/core"
	"bilancio/internal/report"
)

// BOM makes spreadsheet tools detect UTF-8.
const BOM = "\ufeff"

const ContentType = "text/csv; charset=utf-8"

var header = []string{"date", "category", "amount", "description", "type"}

// Filename is transactions-YYYYMM.csv for a month filter and
// transactions-all.csv otherwise.
func Filename(m report.Month, ok bool) string {
	if !ok {
		return "transactions-all.csv"
	}
	return fmt.Sprintf("transactions-%s.csv", m.Compact())
}

// ContentDisposition is the attachment header value for filename.
func ContentDisposition(filename string) string {
	return fmt.Sprintf("attachment; filename=%q", filename)
}

// WriteCSV writes the BOM, the header row and one row per transaction in
// the given order.
func WriteCSV(w io.Writer, txs []core.Transaction) error {
	if _, err := io.WriteString(w, BOM); err != nil {
		return fmt.Errorf("write bom: %w", err)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, t := range txs {
		category := ""
		if t.CategoryID != nil {
			category = t.CategoryName
		}
		row := []string{t.Date.String(), category, t.Amount.String(), t.Description, string(t.Type)}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write transaction %d: %w", t.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
