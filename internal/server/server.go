package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/Malikxolo/Customer-Support-agent/internal/agent"
	"github.com/Malikxolo/Customer-Support-agent/internal/cache"
	"github.com/Malikxolo/Customer-Support-agent/internal/history"
	supportotel "github.com/Malikxolo/Customer-Support-agent/internal/otel"
	"github.com/Malikxolo/Customer-Support-agent/internal/requestctx"
)

const defaultTimeout = 90 * time.Second

// Server holds the HTTP API dependencies.
type Server struct {
	router       *chi.Mux
	orchestrator *agent.Orchestrator
	store        *cache.Store
	historyStore *history.Store
	apiKeys      map[string]string
	limiter      *RateLimiter
	logger       zerolog.Logger
	startTime    time.Time

	httpServer *http.Server
}

// Option configures the Server.
type Option func(*Server)

// WithHistoryStore enables the history endpoints.
func WithHistoryStore(hs *history.Store) Option {
	return func(s *Server) { s.historyStore = hs }
}

// WithRateLimiter sets the request rate limiter.
func WithRateLimiter(rl *RateLimiter) Option {
	return func(s *Server) { s.limiter = rl }
}

// NewServer builds the API server.
func NewServer(orchestrator *agent.Orchestrator, store *cache.Store, apiKeys map[string]string, logger zerolog.Logger, opts ...Option) *Server {
	s := &Server{
		router:       chi.NewRouter(),
		orchestrator: orchestrator,
		store:        store,
		apiKeys:      apiKeys,
		logger:       logger,
		startTime:    time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.apiKeys == nil {
		s.apiKeys = make(map[string]string)
	}
	return s
}

// Routes returns the configured handler.
func (s *Server) Routes() http.Handler {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(supportotel.MiddlewareWithStatus())

	// Unauthenticated
	r.Get("/health", s.handleHealth)
	r.Get("/v1/health", s.handleHealth)

	// Authenticated API group
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.apiKeys))
		r.Use(s.rateLimitMiddleware)
		r.Use(middleware.Timeout(defaultTimeout))

		r.Post("/v1/turns", s.handleTurn)

		r.Get("/v1/cache/stats", s.handleCacheStats)
		r.Delete("/v1/cache", s.handleCacheClear)

		if s.historyStore != nil {
			r.Get("/v1/history/{owner}", s.handleHistory)
		}
	})

	return r
}

// rateLimitMiddleware budgets by authenticated caller, falling back to the
// client address when auth is disabled.
func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	if s.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller := requestctx.Owner(r.Context())
		if caller == "" {
			caller = r.RemoteAddr
		}
		if !s.limiter.Allow(caller) {
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, "rate_limit_exceeded", "Too many requests, slow down")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Start serves the API on addr until ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.ListenAndServe()
	}()
	s.logger.Info().Str("event", "server_started").Str("addr", addr).Msg("http api listening")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}
