// Package api provides the HTTP server: HTML pages for browsing and editing
// the catalog, huma JSON operations and the login flow.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/awbooks/awbooks-server/internal/ratelimit"
	"github.com/awbooks/awbooks-server/internal/session"
	"github.com/awbooks/awbooks-server/internal/store"
	"github.com/awbooks/awbooks-server/internal/view"
)

// Options holds server settings that are not dependencies.
type Options struct {
	GoogleClientID string
	// AllowedOrigins for the JSON endpoints. Empty allows any origin.
	AllowedOrigins []string
	Version        string
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store        store.Store
	services     *Services
	sessions     *session.Manager
	views        *view.Renderer
	loginLimiter *ratelimit.KeyedRateLimiter
	opts         Options
	router       *chi.Mux
	api          huma.API
	logger       *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(
	st store.Store,
	services *Services,
	sessions *session.Manager,
	views *view.Renderer,
	loginLimiter *ratelimit.KeyedRateLimiter,
	opts Options,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Version == "" {
		opts.Version = "1.0.0"
	}

	s := &Server{
		store:        st,
		services:     services,
		sessions:     sessions,
		views:        views,
		loginLimiter: loginLimiter,
		opts:         opts,
		router:       chi.NewRouter(),
		logger:       logger,
	}

	s.setupMiddleware()

	humaConfig := huma.DefaultConfig("AWBooks API", opts.Version)
	humaConfig.Info.Description = "Read-only JSON views of the tech book catalog."
	// Keep response bodies exactly as documented, without a $schema link.
	humaConfig.CreateHooks = nil
	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler()

	s.setupRoutes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API returns the huma API, mainly for tests.
func (s *Server) API() huma.API {
	return s.api
}

// setupMiddleware configures the middleware stack. It must run before any
// route is registered.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(jsonCORS(s.opts.AllowedOrigins))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.registerHealthRoutes()
	s.registerJSONRoutes()

	s.router.Group(func(r chi.Router) {
		r.Use(s.sessions.Middleware)

		r.Get("/", s.handleHome)
		r.Get("/tech/{categorySlug}", s.handleCategory)
		r.Get("/tech/{categorySlug}/{titleSlug}", s.handleBook)

		r.Get("/new", s.handleNewForm)
		r.Post("/new", s.handleCreate)
		r.Get("/tech/{categorySlug}/{titleSlug}/edit", s.handleEditForm)
		r.Post("/tech/{categorySlug}/{titleSlug}/edit", s.handleEdit)
		r.Get("/tech/{categorySlug}/{titleSlug}/delete", s.handleDeleteConfirm)
		r.Post("/tech/{categorySlug}/{titleSlug}/delete", s.handleDelete)

		r.Group(func(r chi.Router) {
			r.Use(s.rateLimitLogin)
			r.Get("/login", s.handleLogin)
			r.Post("/gconnect", s.handleConnect)
		})
		r.Get("/disconnect", s.handleDisconnect)
	})

	s.router.NotFound(s.handleNotFound)
}
