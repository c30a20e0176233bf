package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"golang.org/x/sync/semaphore"

	"github.com/mattjoyce/crewtool/internal/crew"
	"github.com/mattjoyce/crewtool/internal/history"
)

//go:generate mockgen -destination=mocks/mock_api.go -package=mocks github.com/mattjoyce/crewtool/internal/api Invoker,Journal

// Invoker runs crews. *crew.Tool satisfies it.
type Invoker interface {
	Invoke(ctx context.Context, req crew.Request) crew.Result
	ListCrews(ctx context.Context) ([]crew.Info, error)
	CrewInfo(ctx context.Context, packageName, crewName string) (crew.Info, error)
}

// Journal records and reads past invocations. *history.Store satisfies it.
type Journal interface {
	Record(ctx context.Context, req crew.Request, res crew.Result) (history.Entry, error)
	Recent(ctx context.Context, limit int) ([]history.Entry, error)
	Get(ctx context.Context, id string) (history.Entry, error)
}

// Config holds API server configuration
type Config struct {
	Listen string
	// Token is the bearer token required on every route except /healthz.
	// Empty disables auth.
	Token         string
	MaxConcurrent int
	CORSOrigins   []string
	// MaxTimeout caps the timeout_ms a caller may request.
	MaxTimeout time.Duration
	// WriteTimeout bounds responses on non-streaming routes. Invoke and
	// /events clear it per request; their duration is bounded elsewhere.
	WriteTimeout time.Duration
}

// DefaultMaxTimeout is the largest per-request timeout accepted when
// Config.MaxTimeout is unset.
const DefaultMaxTimeout = time.Hour

// Server represents the HTTP API server
type Server struct {
	config    Config
	invoker   Invoker
	journal   Journal
	logger    *slog.Logger
	server    *http.Server
	startedAt time.Time
	events    *feed
	slots     *semaphore.Weighted
}

// New creates a new API server. journal may be nil when history is disabled.
func New(config Config, invoker Invoker, journal Journal, logger *slog.Logger) *Server {
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = 4
	}
	if config.MaxTimeout <= 0 {
		config.MaxTimeout = DefaultMaxTimeout
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = 10 * time.Minute
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{
		config:    config,
		invoker:   invoker,
		journal:   journal,
		logger:    logger,
		startedAt: time.Now(),
		events:    newFeed(256),
		slots:     semaphore.NewWeighted(int64(config.MaxConcurrent)),
	}
}

// Start starts the HTTP server (blocking)
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         s.config.Listen,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("API server starting", "listen", s.config.Listen, "auth", s.config.Token != "")

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("API server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return ctx.Err()
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	r := s.setupRoutes()
	if len(s.config.CORSOrigins) == 0 {
		return r
	}
	return cors.New(cors.Options{
		AllowedOrigins: s.config.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		ExposedHeaders: []string{invocationHeader},
	}).Handler(r)
}

func (s *Server) setupRoutes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealthz)

	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Get("/openapi.json", s.handleOpenAPI)
		r.Get("/crews", s.handleListCrews)
		r.Get("/crews/{package}/{crew}", s.handleCrewInfo)
		r.Post("/crews/{package}/{crew}/invoke", s.handleInvoke)
		r.Get("/history", s.handleListHistory)
		r.Get("/history/{id}", s.handleGetHistory)
		r.Get("/events", s.handleEvents)
	})

	return r
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
