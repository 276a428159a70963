package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMonth(t *testing.T) {
	tests := []struct {
		raw  string
		want Month
		ok   bool
	}{
		{"2025-03", Month{2025, time.March}, true},
		{" 2024-12 ", Month{2024, time.December}, true},
		{"0999-01", Month{999, time.January}, true},
		{"2025-13", Month{}, false},
		{"2025-00", Month{}, false},
		{"2025-3", Month{}, false},
		{"25-03", Month{}, false},
		{"2025/03", Month{}, false},
		{"+025-03", Month{}, false},
		{"2025-03-01", Month{}, false},
		{"abcd-ef", Month{}, false},
		{"", Month{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := ParseMonth(tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseMonthLoose(t *testing.T) {
	tests := []struct {
		raw  string
		want Month
		ok   bool
	}{
		{"2025-03", Month{2025, time.March}, true},
		{"2025-3", Month{2025, time.March}, true},
		{" 2024-12 ", Month{2024, time.December}, true},
		{"2025-0", Month{}, false},
		{"2025-13", Month{}, false},
		{"2025-", Month{}, false},
		{"2025-+3", Month{}, false},
		{"25-3", Month{}, false},
		{"0000-01", Month{}, false},
		{"2025-003", Month{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := ParseMonthLoose(tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveMonth(t *testing.T) {
	now := time.Date(2025, time.July, 15, 10, 0, 0, 0, time.UTC)

	t.Run("valid input is used", func(t *testing.T) {
		assert.Equal(t, "2024-02", ResolveMonth("2024-02", now).Key())
	})

	t.Run("malformed input falls back to now", func(t *testing.T) {
		for _, raw := range []string{"", "2024-13", "garbage", "2024-1"} {
			assert.Equal(t, "2025-07", ResolveMonth(raw, now).Key(), raw)
		}
	})

	t.Run("fallback uses the location of now", func(t *testing.T) {
		loc := time.FixedZone("UTC+2", 2*60*60)
		lateJune := time.Date(2025, time.June, 30, 23, 30, 0, 0, time.UTC)
		assert.Equal(t, "2025-06", ResolveMonth("", lateJune).Key())
		assert.Equal(t, "2025-07", ResolveMonth("", lateJune.In(loc)).Key())
	})
}

func TestMonthKeyRoundTrip(t *testing.T) {
	for y := 1999; y <= 2001; y++ {
		for m := time.January; m <= time.December; m++ {
			month := Month{Year: y, Month: m}
			parsed, ok := ParseMonth(month.Key())
			require.True(t, ok)
			assert.Equal(t, month, parsed)
		}
	}
}

func TestMonthBounds(t *testing.T) {
	from, to := Month{2024, time.December}.Bounds()
	assert.Equal(t, "2024-12-01", from.String())
	assert.Equal(t, "2025-01-01", to.String())

	from, to = Month{2024, time.February}.Bounds()
	assert.Equal(t, "2024-02-01", from.String())
	assert.Equal(t, "2024-03-01", to.String())
}

func TestMonthAddMonths(t *testing.T) {
	m := Month{2025, time.January}
	assert.Equal(t, Month{2024, time.December}, m.AddMonths(-1))
	assert.Equal(t, Month{2023, time.January}, m.AddMonths(-24))
	assert.Equal(t, Month{2026, time.February}, m.AddMonths(13))
	assert.Equal(t, "202501", m.Compact())
}
