package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"bilancio/internal/auth"
	"bilancio/internal/core"
	applog "bilancio/internal/log"
	"bilancio/internal/storage"
)

// CategoryInUseMessage is shown when a referenced category is deleted.
const CategoryInUseMessage = "Cannot delete this category because it is used by one or more transactions."

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// errorStatus maps domain errors to a status code and a client-safe
// message. ok is false for unexpected errors.
func errorStatus(err error) (status int, msg string, ok bool) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound, "not found", true
	case errors.Is(err, storage.ErrCategoryInUse):
		return http.StatusConflict, CategoryInUseMessage, true
	case errors.Is(err, storage.ErrDuplicateCategory):
		return http.StatusConflict, storage.ErrDuplicateCategory.Error(), true
	case errors.Is(err, storage.ErrDuplicateUser):
		return http.StatusConflict, storage.ErrDuplicateUser.Error(), true
	case errors.Is(err, storage.ErrInvalidCategory):
		return http.StatusUnprocessableEntity, storage.ErrInvalidCategory.Error(), true
	case errors.Is(err, core.ErrValidation):
		return http.StatusUnprocessableEntity, strings.TrimPrefix(err.Error(), core.ErrValidation.Error()+": "), true
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid username or password", true
	case errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized, "authentication required", true
	default:
		return http.StatusInternalServerError, "internal server error", false
	}
}

// writeError answers with the mapped status. Unexpected errors are logged
// and hidden from the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg, ok := errorStatus(err)
	if !ok {
		fields := applog.NewFields().
			WithHTTPRequest(r.Method, r.URL.Path, "", "").
			WithError(err)
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed", fields.ToSlice()...)
	}
	writeMessage(w, status, msg)
}

func unauthorized(w http.ResponseWriter, _ *http.Request) {
	writeMessage(w, http.StatusUnauthorized, "authentication required")
}
