package report

import "time"

const (
	// ReportWindow is the number of selectable months on the monthly report.
	ReportWindow = 24
	// ListWindow is the number of selectable months on the transaction list.
	ListWindow = 12
)

type MonthOption struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// MonthOptions lists the n months ending at the month containing now, most
// recent first. It depends only on the calendar.
func MonthOptions(now time.Time, n int) []MonthOption {
	if n <= 0 {
		return []MonthOption{}
	}
	cur := MonthOf(now)
	out := make([]MonthOption, 0, n)
	for i := 0; i < n; i++ {
		key := cur.AddMonths(-i).Key()
		out = append(out, MonthOption{Key: key, Label: key})
	}
	return out
}
