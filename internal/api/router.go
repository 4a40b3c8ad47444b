// Package api provides the HTTP API for the weather dashboard.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/jacobhausler/weather-app-sub000/internal/api/handler"
	"github.com/jacobhausler/weather-app-sub000/internal/api/middleware"
	"github.com/jacobhausler/weather-app-sub000/internal/dashboard"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version        string
	BuildTime      string
	Logger         zerolog.Logger
	ServiceName    string
	RequireTLS     bool
	Metrics        *middleware.Metrics
	Sessions       *dashboard.Manager
	Ops            handler.OpsConfig
	MetricsHandler http.Handler
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "weatherdash-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))   // Structured logging
	r.Use(middleware.Recovery(cfg.Logger)) // Panic recovery
	r.Use(chimiddleware.RealIP)            // Real IP extraction
	r.Use(middleware.SecurityHeaders)      // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS(cfg.RequireTLS)) // TLS enforcement behind a proxy
	r.Use(middleware.ContentTypeJSON)            // JSON content type

	opsHandler := handler.NewOpsHandler(cfg.Ops)
	dashboardHandler := handler.NewDashboardHandler(cfg.Sessions)

	fetchRateLimit := middleware.RateLimitBySession(middleware.FetchRateLimit)       // 30 req/min
	standardRateLimit := middleware.RateLimitBySession(middleware.StandardRateLimit) // 100 req/min

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.Get("/status", opsHandler.SystemStatus)
		})

		// Dashboard session endpoints
		r.Route("/dashboard/{sessionID}", func(r chi.Router) {
			// Fetch and refresh fan out to the upstream weather
			// services, so they carry the tighter budget.
			r.Use(middleware.RequireJSON)
			r.With(fetchRateLimit).Post("/fetch", dashboardHandler.Fetch)
			r.With(fetchRateLimit).Post("/refresh", dashboardHandler.Refresh)

			r.With(standardRateLimit).Post("/visibility", dashboardHandler.Visibility)
			r.With(standardRateLimit).Get("/", dashboardHandler.Get)
			r.With(standardRateLimit).Delete("/", dashboardHandler.Delete)
		})
	})

	// Prometheus scrape endpoint, outside /v1 and the rate limiters.
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	return r
}
