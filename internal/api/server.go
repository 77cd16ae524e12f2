// Package api provides the HTTP API server and handlers for Tagmark.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/tagmark/tagmark-server/internal/http/response"
	"github.com/tagmark/tagmark-server/internal/metrics"
	"github.com/tagmark/tagmark-server/internal/store"
)

// Auth endpoints allow 20 requests per minute per client IP.
const (
	authRequestsPerMinute = 20
	authBurst             = 10
)

// Options holds the server settings that come from configuration.
type Options struct {
	Version     string
	CORSOrigins []string
	// TrustProxy rewrites the client address from forwarding headers.
	// Rate limiting keys on that address.
	TrustProxy bool
	// AuthRateLimiter overrides the default limiter on /auth routes.
	AuthRateLimiter *RateLimiter
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store           store.Store
	services        *Services
	router          *chi.Mux
	api             huma.API
	metrics         *metrics.Metrics
	authRateLimiter *RateLimiter
	logger          *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
// m may be nil, in which case /metrics is not served.
func NewServer(st store.Store, services *Services, m *metrics.Metrics, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}

	limiter := opts.AuthRateLimiter
	if limiter == nil {
		limiter = NewRateLimiter(authRequestsPerMinute, time.Minute, authBurst)
	}

	s := &Server{
		store:           st,
		services:        services,
		router:          chi.NewRouter(),
		metrics:         m,
		authRateLimiter: limiter,
		logger:          logger,
	}

	// Middleware must be in place before huma mounts its first route.
	s.setupMiddleware(opts.CORSOrigins, opts.TrustProxy)

	humaConfig := huma.DefaultConfig("Tagmark API", opts.Version)
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)

	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler()

	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API returns the huma API, for OpenAPI generation and tests.
func (s *Server) API() huma.API {
	return s.api
}

// Shutdown stops background work owned by the server.
func (s *Server) Shutdown() {
	s.authRateLimiter.Stop()
}

func (s *Server) setupMiddleware(origins []string, trustProxy bool) {
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	s.router.Use(middleware.RequestID)
	if trustProxy {
		s.router.Use(middleware.RealIP)
	}
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))
	s.router.Use(s.metrics.Middleware)
	s.router.Use(s.limitAuthRoutes)
}

func (s *Server) setupRoutes() {
	s.router.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.MethodNotAllowed(w, s.logger)
	})
	s.router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.NotFound(w, "not found", s.logger)
	})

	s.registerHealthRoutes()
	s.registerAuthRoutes()
	s.registerUserRoutes()
	s.registerBookmarkRoutes()
	s.registerTaggedRoutes()
	s.registerTransferRoutes()
	s.registerTagRoutes()
	s.registerSearchRoutes()

	if s.metrics != nil {
		s.router.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}
}
