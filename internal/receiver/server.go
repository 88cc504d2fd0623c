package receiver

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

const (
	// HTTP server timeouts
	HTTPReadTimeout  = 10 * time.Second
	HTTPWriteTimeout = 10 * time.Second
	HTTPIdleTimeout  = 60 * time.Second

	// Request timeout for middleware
	RequestTimeout = 30 * time.Second

	// Requests per minute allowed for each client IP
	SubmitRateLimit = 30
)

// Server represents the reference receiver
type Server struct {
	Secret   string
	Logger   zerolog.Logger
	TestMode bool
	received atomic.Int64

	mu     sync.Mutex
	http   *http.Server
	closed bool
}

// NewServer creates a receiver that verifies submissions with secret
func NewServer(secret string, logger zerolog.Logger, testMode bool) *Server {
	return &Server{
		Secret:   secret,
		Logger:   logger,
		TestMode: testMode,
	}
}

// Received returns the number of accepted submissions
func (s *Server) Received() int64 {
	return s.received.Load()
}

// Router creates and configures the HTTP router
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(RequestTimeout))

	// Logging middleware
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				s.Logger.Info().
					Str("request_id", middleware.GetReqID(r.Context())).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Int("status", ww.Status()).
					Int64("duration_ms", time.Since(start).Milliseconds()).
					Msg("http_request")
			}()

			next.ServeHTTP(ww, r)
		})
	})

	// Rate limiting middleware (only if not in test mode)
	if !s.TestMode {
		r.Use(NewRateLimitMiddleware(SubmitRateLimit, s.Logger))
	}

	r.Get("/health", s.HandleHealth)
	r.Post("/submit", s.HandleSubmit)

	return r
}

// Start listens on host:port until Shutdown is called
func (s *Server) Start(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	s.Logger.Info().Str("addr", addr).Msg("Starting receiver")

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	server := &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  HTTPReadTimeout,
		WriteTimeout: HTTPWriteTimeout,
		IdleTimeout:  HTTPIdleTimeout,
	}
	s.http = server
	s.mu.Unlock()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	server := s.http
	s.mu.Unlock()

	if server == nil {
		return nil
	}
	return server.Shutdown(ctx)
}
