package http

import (
	"net/http"

	"bilancio/internal/core"
	"bilancio/internal/export"
	applog "bilancio/internal/log"
	"bilancio/internal/report"
	"bilancio/internal/storage"
)

// monthFilter applies ?month=, accepting YYYY-MM or YYYY-M. Invalid or
// missing values mean no filter.
func monthFilter(r *http.Request) (storage.TransactionFilter, report.Month, bool) {
	m, ok := report.ParseMonthLoose(r.URL.Query().Get("month"))
	if !ok {
		return storage.TransactionFilter{}, report.Month{}, false
	}
	from, to := m.Bounds()
	return storage.TransactionFilter{From: from, To: to}, m, true
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	_, scope := s.currentUser(r)
	filter, _, _ := monthFilter(r)

	txs, err := scope.Transactions(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}

	lo, hi, page := paginate(len(txs), pageParam(r))
	out := make([]transactionJSON, 0, hi-lo)
	for _, t := range txs[lo:hi] {
		out = append(out, toTransactionJSON(t))
	}
	writeJSON(w, http.StatusOK, transactionListJSON{
		Transactions:  out,
		MonthOptions:  report.MonthOptions(s.reports.Now(), report.ListWindow),
		SelectedMonth: r.URL.Query().Get("month"),
		pageJSON:      page,
	})
}

// parseTransaction builds a transaction from the request body. Type
// defaults to expense and date to today.
func (s *Server) parseTransaction(p *RequestBodyParser) (core.Transaction, error) {
	t := core.Transaction{Type: core.Expense, Date: s.reports.Today()}

	amount, err := core.ParseAmount(p.Get("amount"))
	if err != nil {
		return core.Transaction{}, err
	}
	t.Amount = amount

	if raw := p.Get("type"); raw != "" {
		if t.Type, err = core.ParseEntryType(raw); err != nil {
			return core.Transaction{}, err
		}
	}
	if t.CategoryID, err = parseOptionalID(p.Get("category_id")); err != nil {
		return core.Transaction{}, err
	}
	if raw := p.Get("date"); raw != "" {
		if t.Date, err = core.ParseDate(raw); err != nil {
			return core.Transaction{}, err
		}
	}
	t.Description = p.Get("description")
	return t, t.Validate()
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	u, scope := s.currentUser(r)
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		writeError(w, r, err)
		return
	}
	t, err := s.parseTransaction(p)
	if err != nil {
		writeError(w, r, err)
		return
	}

	created, err := scope.CreateTransaction(r.Context(), t)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidate(r.Context(), u.ID)

	fields := applog.NewFields().
		WithOperation(applog.OpCreate).
		WithTransaction(created.ID, string(created.Type), created.Amount.Cents)
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Transaction created", fields.ToSlice()...)
	writeJSON(w, http.StatusCreated, toTransactionJSON(created))
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	_, scope := s.currentUser(r)
	id, ok := pathID(r)
	if !ok {
		writeMessage(w, http.StatusNotFound, "not found")
		return
	}
	t, err := scope.Transaction(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionJSON(t))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	u, scope := s.currentUser(r)
	id, ok := pathID(r)
	if !ok {
		writeMessage(w, http.StatusNotFound, "not found")
		return
	}
	if err := scope.DeleteTransaction(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidate(r.Context(), u.ID)
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Transaction deleted",
		applog.FieldTransactionID, id,
		applog.FieldOperation, applog.OpDelete)
	w.WriteHeader(http.StatusNoContent)
}

// handleExportCSV streams the user's transactions, optionally for one month,
// newest first.
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	_, scope := s.currentUser(r)
	filter, m, ok := monthFilter(r)

	txs, err := scope.Transactions(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", export.ContentDisposition(export.Filename(m, ok)))
	if err := export.WriteCSV(w, txs); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "CSV export failed",
			applog.FieldOperation, applog.OpExport,
			applog.FieldError, err.Error())
	}
}
