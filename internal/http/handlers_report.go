package http

import (
	"context"
	"net/http"

	applog "bilancio/internal/log"
	"bilancio/internal/report"
)

// monthlyReport serves m for the current user, through the cache when one
// is configured. The month window is recomputed on every hit so a cached
// report never offers a window from before a month rollover.
func (s *Server) monthlyReport(r *http.Request, m report.Month) (report.MonthlyReport, error) {
	u, scope := s.currentUser(r)
	build := func(ctx context.Context) (report.MonthlyReport, error) {
		return s.reports.MonthlyFor(ctx, scope, m)
	}
	if s.cache == nil {
		return build(r.Context())
	}
	rep, err := s.cache.Get(r.Context(), u.ID, m, build)
	if err != nil {
		return report.MonthlyReport{}, err
	}
	rep.MonthOptions = report.MonthOptions(s.reports.Now(), report.ReportWindow)
	return rep, nil
}

func (s *Server) handleMonthlyReport(w http.ResponseWriter, r *http.Request) {
	m := s.reports.Resolve(r.URL.Query().Get("month"))
	rep, err := s.monthlyReport(r, m)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReportJSON(rep))
}

// handleDashboard is the monthly report for the current month.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	rep, err := s.monthlyReport(r, report.MonthOf(s.reports.Now()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReportJSON(rep))
}

type exportQueuedJSON struct {
	Month  string `json:"month"`
	Status string `json:"status"`
}

func (s *Server) handleReportExport(w http.ResponseWriter, r *http.Request) {
	if s.exporter == nil {
		writeMessage(w, http.StatusServiceUnavailable, "report export is not configured")
		return
	}
	u, _ := s.currentUser(r)
	m := s.reports.Resolve(r.URL.Query().Get("month"))
	if err := s.exporter.PublishReportExport(r.Context(), u.ID, m.Key()); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Report export publish failed",
			applog.FieldComponent, applog.ComponentAMQP,
			applog.FieldMonth, m.Key(),
			applog.FieldError, err.Error())
		writeMessage(w, http.StatusServiceUnavailable, "report export is temporarily unavailable")
		return
	}
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Report export queued",
		applog.FieldComponent, applog.ComponentAMQP,
		applog.FieldMonth, m.Key(),
		applog.FieldOperation, applog.OpExport)
	writeJSON(w, http.StatusAccepted, exportQueuedJSON{Month: m.Key(), Status: "queued"})
}
