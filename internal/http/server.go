// Package http exposes the JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"bilancio/internal/auth"
	"bilancio/internal/cache"
	applog "bilancio/internal/log"
	"bilancio/internal/middleware/ratelimit"
	"bilancio/internal/middleware/security"
	"bilancio/internal/middleware/trace"
	"bilancio/internal/report"
	"bilancio/internal/storage"
)

// ExportPublisher queues an asynchronous monthly report export.
type ExportPublisher interface {
	PublishReportExport(ctx context.Context, userID int64, month string) error
}

// Options wires the server's collaborators. Cache and Exporter are optional.
type Options struct {
	Addr               string
	Store              storage.Store
	Auth               *auth.Service
	Reports            *report.Service
	Cache              *cache.Reports
	Exporter           ExportPublisher
	Logger             *applog.Logger
	SecureCookies      bool
	RateLimitPerMinute int
}

type Server struct {
	http.Server

	store    storage.Store
	auth     *auth.Service
	reports  *report.Service
	cache    *cache.Reports
	exporter ExportPublisher
	logger   *applog.Logger
	secure   bool

	limiter      *ratelimit.Limiter
	tracer       *trace.Middleware
	detector     *security.Detector
	cacheManager *cache.Manager
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	s := &Server{
		Server: http.Server{
			Addr:              opts.Addr,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		store:    opts.Store,
		auth:     opts.Auth,
		reports:  opts.Reports,
		cache:    opts.Cache,
		exporter: opts.Exporter,
		logger:   logger,
		secure:   opts.SecureCookies,
		detector: security.NewDetector(),
	}
	if s.reports == nil {
		s.reports = report.NewService()
	}

	s.limiter = ratelimit.NewLimiter(ratelimit.Config{
		RequestsPerMinute: opts.RateLimitPerMinute,
		Skip:              ratelimit.SafeMethods,
	})
	s.tracer = trace.NewMiddleware(logger, s.detector.ClientIP)

	if s.cache != nil {
		s.cacheManager = cache.NewManager(logger.Logger)
		s.cacheManager.Register(s.cache.Cleaner())
		s.cacheManager.StartCleanup(10 * time.Minute)
	}

	s.Handler = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	private := s.auth.Middleware(unauthorized)
	handle := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, private(h))
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("POST /signup", s.handleSignup)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("POST /logout", s.handleLogout)
	handle("GET /me", s.handleMe)

	handle("GET /dashboard", s.handleDashboard)
	handle("GET /reports/month", s.handleMonthlyReport)
	handle("POST /reports/month/export", s.handleReportExport)

	handle("GET /transactions", s.handleListTransactions)
	handle("POST /transactions", s.handleCreateTransaction)
	handle("GET /transactions/export.csv", s.handleExportCSV)
	handle("GET /transactions/{id}", s.handleGetTransaction)
	handle("DELETE /transactions/{id}", s.handleDeleteTransaction)

	handle("GET /categories", s.handleListCategories)
	handle("POST /categories", s.handleCreateCategory)
	handle("GET /categories/{id}", s.handleGetCategory)
	handle("PUT /categories/{id}", s.handleUpdateCategory)
	handle("DELETE /categories/{id}", s.handleDeleteCategory)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusNotFound, "not found")
	})

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limit := s.limiter.Middleware(s.detector.ClientIP, func(w http.ResponseWriter, r *http.Request) {
		s.logger.WarnContext(r.Context(), "Rate limit exceeded",
			applog.FieldComponent, applog.ComponentRateLimit,
			applog.FieldClientIP, s.detector.ClientIP(r),
			applog.FieldPath, r.URL.Path)
		writeMessage(w, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
	})

	var h http.Handler = mux
	h = limit(h)
	h = s.detector.Middleware(h)
	h = headers.Middleware(h)
	h = s.tracer.Middleware(h)
	return h
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		if s.cacheManager != nil {
			s.cacheManager.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// invalidate drops cached reports after a write by userID.
func (s *Server) invalidate(ctx context.Context, userID int64) {
	if s.cache == nil {
		return
	}
	if n := s.cache.Invalidate(userID); n > 0 {
		s.logger.DebugContext(ctx, "Report cache invalidated",
			applog.FieldComponent, applog.ComponentCache,
			applog.FieldUserID, userID,
			"entries", n)
	}
}
