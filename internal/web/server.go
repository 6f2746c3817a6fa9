// Package web provides the HTTP server for the file ingestion API.
package web

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/parserpotato/ingest/internal/ingest"
)

// UploadRunner processes one uploaded file end to end.
type UploadRunner interface {
	Run(ctx context.Context, filename string, r io.Reader) (*ingest.Report, error)
}

// Options holds the server's tunable settings.
type Options struct {
	// MaxUploadBytes caps the upload request body.
	MaxUploadBytes int64

	// RequestTimeout is the per-request middleware timeout. Uploads are
	// synchronous, so this bounds the largest accepted file indirectly.
	RequestTimeout time.Duration

	// AllowedOrigins configures CORS for browser clients.
	AllowedOrigins []string
}

// Server is the HTTP server for the ingestion API.
type Server struct {
	runner UploadRunner
	opts   Options
	router *chi.Mux
	server *http.Server
}

// NewServer creates a Server around runner.
func NewServer(runner UploadRunner, opts Options) *Server {
	if opts.MaxUploadBytes < 1 {
		opts.MaxUploadBytes = 1 << 30
	}
	if opts.RequestTimeout < 1 {
		opts.RequestTimeout = 10 * time.Minute
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}

	s := &Server{
		runner: runner,
		opts:   opts,
		router: chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(middleware.Timeout(s.opts.RequestTimeout))

	s.router.Use(cors.New(cors.Options{
		AllowedOrigins:   s.opts.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: false,
	}).Handler)

	s.router.Use(securityHeaders)
	s.router.Use(metricsMiddleware)
}

func (s *Server) setupRoutes() {
	s.router.Get("/", s.handleRoot)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/upload", s.handleUpload)
		r.Get("/health", s.handleHealth)
	})

	s.router.Get("/docs", s.handleOpenAPI)
	s.router.Get("/docs/static/", s.handleDocIndex)
	s.router.Get("/docs/static/{filename}", s.handleDocPage)

	s.router.Handle("/metrics", promhttp.Handler())
}

// Start begins listening for HTTP requests.
func (s *Server) Start(addr string, readTimeout, writeTimeout, idleTimeout time.Duration) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds baseline hardening headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}
