package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"fintrack/internal/adapters"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/middleware/owner"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/services"
	"fintrack/internal/view"
	appweb "fintrack/web"
)

// Options configures NewServer.
type Options struct {
	Addr           string
	Service        *services.TransactionService
	Owner          owner.Resolver
	RateLimit      ratelimit.Config
	TrustedProxies []string
	RequestTimeout time.Duration
	Logger         *applog.Logger

	// Now is the clock used for the UI's default month and form date.
	Now func() time.Time
}

// Server serves the JSON API and the tracker UI.
type Server struct {
	http.Server
	templates *template.Template
	service   *services.TransactionService
	logger    *applog.Logger
	now       func() time.Time

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware
	appMetrics       *appMetrics

	mu       sync.Mutex
	sessions map[string]*view.Session

	shutdownOnce sync.Once
}

type appMetrics struct {
	uptime  time.Time
	created atomic.Int64
	updated atomic.Int64
	deleted atomic.Int64
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(opts Options) (*Server, error) {
	if opts.Service == nil {
		return nil, fmt.Errorf("new server: service is required")
	}
	if opts.Owner == nil {
		return nil, fmt.Errorf("new server: owner resolver is required")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.DefaultConfig())
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 10 * time.Second
	}

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	detector := security.NewDetector()
	for _, proxy := range opts.TrustedProxies {
		if err := detector.AddTrustedProxy(proxy); err != nil {
			return nil, fmt.Errorf("new server: %w", err)
		}
	}
	s := &Server{
		templates:        t,
		service:          opts.Service,
		logger:           opts.Logger.WithComponent(applog.ComponentHTTP),
		now:              opts.Now,
		rateLimiter:      ratelimit.NewLimiter(opts.RateLimit),
		securityDetector: detector,
		traceMiddleware:  trace.NewMiddleware(detector.ExtractClientIP),
		appMetrics:       &appMetrics{uptime: time.Now()},
		sessions:         make(map[string]*view.Session),
	}
	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           s.routes(opts),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       opts.RequestTimeout,
		WriteTimeout:      opts.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16,
	}
	return s, nil
}

func (s *Server) routes(opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(s.traceMiddleware.Middleware)
	r.Use(applog.Middleware(s.logger))
	r.Use(applog.RequestIDMiddleware(trace.FromRequest))
	r.Use(s.securityDetector.Middleware)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", s.handleMetrics)

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		r.With(security.StaticAssetMiddleware(3600)).Handle("/static/*", static)
	} else {
		s.logger.Warn("Failed to mount embedded static FS", "error", err)
	}

	apiLimit := s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, nil)
	uiLimit := s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, s.uiRateLimited)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(opts.RequestTimeout))
		r.Use(owner.Middleware(opts.Owner))

		r.Get("/catalog", s.handleCatalog)

		r.Route("/transactions", func(r chi.Router) {
			r.Use(applog.ComponentMiddleware(applog.ComponentHTTP))
			r.Get("/", s.handleListTransactions)
			r.With(apiLimit).Post("/", s.handleCreateTransaction)
			r.With(apiLimit).Put("/{id}", s.handleUpdateTransaction)
			r.With(apiLimit).Delete("/{id}", s.handleDeleteTransaction)
		})

		r.With(applog.ComponentMiddleware(applog.ComponentUI)).Get("/", s.handleIndex)
		r.Route("/ui", func(r chi.Router) {
			r.Use(applog.ComponentMiddleware(applog.ComponentUI))
			r.Get("/tracker", s.handleTracker)
			r.Get("/month", s.handleSelectMonth)
			r.Post("/draft", s.handleDraft)
			r.Post("/edit/cancel", s.handleCancelEdit)
			r.Post("/banner/dismiss", s.handleDismissBanner)
			r.With(uiLimit).Post("/submit", s.handleSubmit)
			r.With(uiLimit).Post("/transactions/{id}/edit", s.handleEdit)
			r.With(uiLimit).Post("/transactions/{id}/delete", s.handleDeleteFromUI)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	return r
}

// session returns the UI state of the request's owner, creating it on
// first use.
func (s *Server) session(ctx context.Context) *view.Session {
	id := owner.FromContext(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		sess = view.NewSession(adapters.NewServiceAPI(s.service, id), s.now)
		s.sessions[id] = sess
	}
	return sess
}

func (s *Server) countMutation(op string) {
	switch op {
	case core.OpCreate:
		s.appMetrics.created.Add(1)
	case core.OpUpdate:
		s.appMetrics.updated.Add(1)
	case core.OpDelete:
		s.appMetrics.deleted.Add(1)
	}
}

// Shutdown stops background goroutines and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
