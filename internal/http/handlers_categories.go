package http

import (
	"net/http"

	"bilancio/internal/core"
	applog "bilancio/internal/log"
)

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	_, scope := s.currentUser(r)
	cats, err := scope.VisibleCategories(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	lo, hi, page := paginate(len(cats), pageParam(r))
	out := make([]categoryJSON, 0, hi-lo)
	for _, c := range cats[lo:hi] {
		out = append(out, toCategoryJSON(c))
	}
	writeJSON(w, http.StatusOK, categoryListJSON{Categories: out, pageJSON: page})
}

// parseCategory reads name and kind. Kind defaults to expense.
func parseCategory(p *RequestBodyParser) (core.Category, error) {
	c := core.Category{Name: p.Get("name"), Kind: core.Expense}
	if raw := p.Get("kind"); raw != "" {
		kind, err := core.ParseEntryType(raw)
		if err != nil {
			return core.Category{}, err
		}
		c.Kind = kind
	}
	return c, c.Validate()
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	u, scope := s.currentUser(r)
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := parseCategory(p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	created, err := scope.CreateCategory(r.Context(), c)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidate(r.Context(), u.ID)
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Category created",
		applog.FieldCategoryID, created.ID,
		applog.FieldOperation, applog.OpCreate)
	writeJSON(w, http.StatusCreated, toCategoryJSON(created))
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	_, scope := s.currentUser(r)
	id, ok := pathID(r)
	if !ok {
		writeMessage(w, http.StatusNotFound, "not found")
		return
	}
	c, err := scope.Category(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryJSON(c))
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	u, scope := s.currentUser(r)
	id, ok := pathID(r)
	if !ok {
		writeMessage(w, http.StatusNotFound, "not found")
		return
	}
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := parseCategory(p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	c.ID = id
	updated, err := scope.UpdateCategory(r.Context(), c)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidate(r.Context(), u.ID)
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Category updated",
		applog.FieldCategoryID, updated.ID,
		applog.FieldOperation, applog.OpUpdate)
	writeJSON(w, http.StatusOK, toCategoryJSON(updated))
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	u, scope := s.currentUser(r)
	id, ok := pathID(r)
	if !ok {
		writeMessage(w, http.StatusNotFound, "not found")
		return
	}
	if err := scope.DeleteCategory(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidate(r.Context(), u.ID)
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Category deleted",
		applog.FieldCategoryID, id,
		applog.FieldOperation, applog.OpDelete)
	w.WriteHeader(http.StatusNoContent)
}
