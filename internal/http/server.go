package http

import (
	"context"
	"errors"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"chatledger/internal/cache"
	"chatledger/internal/chat"
	"chatledger/internal/core"
	"chatledger/internal/log"
	appweb "chatledger/web"
)

const (
	defaultStatsTTL   = 5 * time.Minute
	statsCacheEntries = 64
)

// ReadinessCheck reports whether the server's dependencies can serve traffic.
type ReadinessCheck func(ctx context.Context) error

type Server struct {
	http.Server
	ctrl        *chat.Controller
	templates   *template.Template
	rateLimiter *rateLimiter
	metrics     *securityMetrics
	logger      *log.Logger
	events      *log.StructuredLogger
	ready       ReadinessCheck

	statsTTL     time.Duration
	statsCache   *cache.LRUCache[statisticsView]
	statsGen     atomic.Uint64
	cacheManager *cache.Manager

	shutdownOnce sync.Once
}

type ServerOption func(*Server)

// WithStatsCacheTTL sets how long statistics stay cached between appends.
func WithStatsCacheTTL(ttl time.Duration) ServerOption {
	return func(s *Server) { s.statsTTL = ttl }
}

func WithReadiness(check ReadinessCheck) ServerOption {
	return func(s *Server) { s.ready = check }
}

func WithLogger(l *log.Logger) ServerOption {
	return func(s *Server) { s.logger = l }
}

// WithRateLimit caps mutating requests per client per minute.
func WithRateLimit(perMinute int) ServerOption {
	return func(s *Server) {
		s.rateLimiter.stop()
		s.rateLimiter = newRateLimiter(perMinute)
	}
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(addr string, ctrl *chat.Controller, opts ...ServerOption) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       60 * time.Second,
			WriteTimeout:      90 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		ctrl:        ctrl,
		rateLimiter: newRateLimiter(rateLimitRequests),
		metrics:     &securityMetrics{},
		statsTTL:    defaultStatsTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.New(log.DefaultConfig())
	}
	s.logger = s.logger.WithComponent(log.ComponentHTTP)
	s.events = log.NewStructuredLogger(s.logger)

	s.statsCache = cache.NewLRUCache[statisticsView](statsCacheEntries, s.statsTTL)
	s.cacheManager = cache.NewManager(s.logger)
	s.cacheManager.Register(s.statsCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	// Every append can change any month's figures. Bumping the generation
	// orphans views computed from snapshots taken before the append.
	ctrl.OnRecorded(func(core.Transaction) {
		s.statsGen.Add(1)
		s.statsCache.Purge()
	})

	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		s.logger.Warn("Failed parsing templates", log.FieldError, err)
	}
	s.templates = t

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
			static.ServeHTTP(w, r)
		}))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/statistics", s.withMiddleware(s.handleStatisticsPage))
	mux.HandleFunc("/api/summary", s.withMiddleware(s.handleSummary))
	mux.HandleFunc("/api/statistics", s.withMiddleware(s.handleStatistics))
	mux.HandleFunc("/api/messages", s.withMiddleware(s.handleMessages))
	mux.HandleFunc("/api/voice", s.withMiddleware(s.handleVoice))
	mux.HandleFunc("/api/transactions", s.withMiddleware(s.handleTransactions))
	mux.HandleFunc("/api/month", s.withMiddleware(s.handleMonth))

	return s
}

// Shutdown stops background goroutines and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// ListenAndServe runs until the server is shut down; a clean shutdown returns nil.
func (s *Server) ListenAndServe() error {
	s.logger.Info("HTTP server listening", "addr", s.Addr)
	if err := s.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
