package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"bilancio/internal/report"
)

// ReportExportMessage asks the worker to write one user's monthly report
// to Google Sheets. The worker rebuilds the report from the database.
type ReportExportMessage struct {
	UserID      int64     `json:"user_id"`
	Month       string    `json:"month"`
	RequestedAt time.Time `json:"requested_at"`
}

var ErrInvalidMessage = errors.New("invalid report export message")

func NewReportExportMessage(userID int64, month string) *ReportExportMessage {
	return &ReportExportMessage{
		UserID:      userID,
		Month:       month,
		RequestedAt: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ReportExportMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ReportMonth parses Month strictly.
func (m *ReportExportMessage) ReportMonth() (report.Month, bool) {
	return report.ParseMonth(m.Month)
}

// ReportExportMessageFromJSON decodes and validates a message.
func ReportExportMessageFromJSON(data []byte) (*ReportExportMessage, error) {
	var msg ReportExportMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.UserID <= 0 {
		return nil, ErrInvalidMessage
	}
	if _, ok := msg.ReportMonth(); !ok {
		return nil, ErrInvalidMessage
	}
	return &msg, nil
}
