// Package report computes the monthly income/expense report: month
// resolution, totals, the per-category breakdown and the selectable month
// window.
package report

import (
	"fmt"
	"strings"
	"time"

	"bilancio/internal/core"
)

const monthLayout = "2006-01"

// Month is a calendar month.
type Month struct {
	Year  int
	Month time.Month
}

// ParseMonth strictly parses "YYYY-MM". It reports false for anything else,
// including single-digit months and out-of-range values.
func ParseMonth(raw string) (Month, bool) {
	raw = strings.TrimSpace(raw)
	if len(raw) != len(monthLayout) || raw[4] != '-' {
		return Month{}, false
	}
	for i, r := range raw {
		if i != 4 && (r < '0' || r > '9') {
			return Month{}, false
		}
	}
	t, err := time.Parse(monthLayout, raw)
	if err != nil || t.Year() < 1 {
		return Month{}, false
	}
	return Month{Year: t.Year(), Month: t.Month()}, true
}

// ParseMonthLoose parses "YYYY-MM" and "YYYY-M". The transaction list and
// CSV export filters accept both.
func ParseMonthLoose(raw string) (Month, bool) {
	raw = strings.TrimSpace(raw)
	if n := len(raw); (n != 6 && n != 7) || raw[4] != '-' {
		return Month{}, false
	}
	for i, r := range raw {
		if i != 4 && (r < '0' || r > '9') {
			return Month{}, false
		}
	}
	t, err := time.Parse("2006-1", raw)
	if err != nil || t.Year() < 1 {
		return Month{}, false
	}
	return Month{Year: t.Year(), Month: t.Month()}, true
}

// ResolveMonth parses raw, falling back to the month containing now.
func ResolveMonth(raw string, now time.Time) Month {
	if m, ok := ParseMonth(raw); ok {
		return m
	}
	return MonthOf(now)
}

func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// Key returns the canonical "YYYY-MM" form.
func (m Month) Key() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

func (m Month) String() string { return m.Key() }

// Compact returns "YYYYMM", used in export file names.
func (m Month) Compact() string {
	return fmt.Sprintf("%04d%02d", m.Year, int(m.Month))
}

// AddMonths moves n months forward (or backward for negative n).
func (m Month) AddMonths(n int) Month {
	idx := m.Year*12 + int(m.Month) - 1 + n
	y := idx / 12
	mm := idx % 12
	if mm < 0 {
		mm += 12
		y--
	}
	return Month{Year: y, Month: time.Month(mm + 1)}
}

// Bounds returns the first day of the month and the first day of the next
// month. The range is half-open: [from, to).
func (m Month) Bounds() (from, to core.Date) {
	from = core.NewDate(m.Year, int(m.Month), 1)
	next := m.AddMonths(1)
	to = core.NewDate(next.Year, int(next.Month), 1)
	return from, to
}

// Contains reports whether d falls in the month.
func (m Month) Contains(d core.Date) bool {
	return d.Year() == m.Year && d.Time.Month() == m.Month
}
