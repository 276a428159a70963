package http

import (
	"context"
	"net/http"
	"time"

	"bilancio/internal/auth"
	"bilancio/internal/core"
	applog "bilancio/internal/log"
	"bilancio/internal/storage"
)

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

type readyJSON struct {
	Status             string `json:"status"`
	TotalRequests      int64  `json:"total_requests"`
	ServerErrors       int64  `json:"server_errors"`
	RateLimited        int64  `json:"rate_limited"`
	SuspiciousRequests int64  `json:"suspicious_requests"`
	ReportCacheSize    int    `json:"report_cache_size"`
	ReportCacheHits    int64  `json:"report_cache_hits"`
	ReportCacheMisses  int64  `json:"report_cache_misses"`
}

// handleReady pings the store and reports request counters.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.store.Ping(ctx); err != nil {
		applog.FromContext(ctx).WarnContext(ctx, "Readiness check failed",
			applog.FieldComponent, applog.ComponentStorage,
			applog.FieldError, err.Error())
		writeMessage(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}

	tm := s.tracer.GetMetrics()
	body := readyJSON{
		Status:             "ready",
		TotalRequests:      tm.TotalRequests,
		ServerErrors:       tm.ServerErrors,
		RateLimited:        s.limiter.GetMetrics().TotalHits,
		SuspiciousRequests: s.detector.SuspiciousRequests(),
	}
	if s.cache != nil {
		st := s.cache.Stats()
		body.ReportCacheSize, body.ReportCacheHits, body.ReportCacheMisses = st.Size, st.Hits, st.Misses
	}
	writeJSON(w, http.StatusOK, body)
}

// currentUser returns the authenticated user and their repository scope.
// Routes behind the auth middleware always have one.
func (s *Server) currentUser(r *http.Request) (core.User, storage.OwnerScope) {
	u, _ := auth.UserFrom(r.Context())
	return u, s.store.Scope(u.ID)
}
