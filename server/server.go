// Package server provides HTTP server management and lifecycle handling for the drug catalog API.
// It includes server setup, middleware configuration, route management, and graceful shutdown
// capabilities with proper error handling and logging.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/giygas/drugcatalog-api/config"
	"github.com/giygas/drugcatalog-api/interfaces"
	"github.com/giygas/drugcatalog-api/logging"
	"github.com/giygas/drugcatalog-api/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server represents the HTTP server
type Server struct {
	server     *http.Server
	router     chi.Router
	config     *config.Config
	handler    interfaces.HTTPHandler
	limiter    *RateLimiter
	mcpHandler http.Handler
}

// NewServer creates a new server instance. mcpHandler may be nil, in which case
// /mcp is not mounted.
func NewServer(cfg *config.Config, handler interfaces.HTTPHandler, limiter *RateLimiter, mcpHandler http.Handler) *Server {
	router := chi.NewRouter()

	if limiter == nil {
		limiter = NewRateLimiter(cfg.RateLimitRate, cfg.RateLimitCap)
	}

	server := &Server{
		server: &http.Server{
			Handler:      router,
			Addr:         cfg.Address + ":" + cfg.Port,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		router:     router,
		config:     cfg,
		handler:    handler,
		limiter:    limiter,
		mcpHandler: mcpHandler,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures all middleware
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	if s.config.RequireProxy {
		s.router.Use(BlockDirectAccessMiddleware) // Put BEFORE RealIPMiddleware to see original RemoteAddr
	}
	s.router.Use(RealIPMiddleware)
	s.router.Use(logging.LoggingMiddleware(logging.Logger()))
	s.router.Use(middleware.RedirectSlashes)
	s.router.Use(middleware.Recoverer)

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "If-None-Match", "Mcp-Session-Id"},
		ExposedHeaders:   []string{"ETag", "Retry-After", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	s.router.Use(RequestSizeMiddleware(s.config))
	s.router.Use(s.limiter.Middleware)
	s.router.Use(metrics.Metrics)
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/", s.handler.Root)

	// Lookup routes; /get_drug_info is the historical name of /drug_info
	s.router.Get("/drug_info", s.handler.GetDrugInfo)
	s.router.Get("/get_drug_info", s.handler.GetDrugInfo)
	s.router.Post("/check_interactions", s.handler.CheckInteractions)
	s.router.Get("/suggest_alternatives", s.handler.SuggestAlternatives)
	s.router.Get("/dosage_duration", s.handler.DosageDuration)
	s.router.Get("/recommended_by_condition", s.handler.RecommendedByCondition)
	s.router.Post(uploadPath, s.handler.IdentifyMedicineImage)

	// Listing and operations
	s.router.Get("/drugs/{pageNumber}", s.handler.ServePagedDrugs)
	s.router.Get("/health", s.handler.HealthCheck)
	s.router.Handle("/metrics", promhttp.Handler())

	if s.mcpHandler != nil {
		s.router.Handle("/mcp", s.mcpHandler)
	}
}

// Handler returns the router with its middleware chain
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the server
func (s *Server) Start() error {
	logging.Info(fmt.Sprintf("Starting server at: %s:%s", s.config.Address, s.config.Port),
		"env", s.config.Env.String(), "mcp", s.mcpHandler != nil)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down server...")

	if err := s.server.Shutdown(ctx); err != nil {
		logging.Error("Server forced to shutdown", "error", err)
		// If graceful shutdown fails, force close
		if err := s.server.Close(); err != nil {
			logging.Error("Server close error", "error", err)
			return err
		}
	}

	logging.Info("Server shutdown complete")
	return nil
}
