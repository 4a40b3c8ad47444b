// Package main provides the entrypoint for the weather dashboard API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/jacobhausler/weather-app-sub000/internal/api"
	"github.com/jacobhausler/weather-app-sub000/internal/api/handler"
	"github.com/jacobhausler/weather-app-sub000/internal/api/middleware"
	"github.com/jacobhausler/weather-app-sub000/internal/cache"
	"github.com/jacobhausler/weather-app-sub000/internal/config"
	"github.com/jacobhausler/weather-app-sub000/internal/dashboard"
	"github.com/jacobhausler/weather-app-sub000/internal/geocode"
	"github.com/jacobhausler/weather-app-sub000/internal/nws"
	"github.com/jacobhausler/weather-app-sub000/internal/observability"
	"github.com/jacobhausler/weather-app-sub000/internal/refresh"
	"github.com/jacobhausler/weather-app-sub000/internal/telemetry"
	"github.com/jacobhausler/weather-app-sub000/internal/upstream"
	"github.com/jacobhausler/weather-app-sub000/internal/uvindex"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "weatherdash-api"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting weather dashboard API")

	cfg := config.Load()

	// Initialize OpenTelemetry
	ctx := context.Background()
	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if cfg.OTELEnabled {
		log.Info().
			Str("otlp_endpoint", cfg.OTLPEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// HTTP metrics (OpenTelemetry)
	httpMetrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	// Domain metrics (Prometheus)
	metrics := observability.NewMetrics()

	// Upstream executors, one per external service
	nwsExecutor := upstream.NewExecutor(upstream.ExecutorConfig{
		Policy:   upstream.NWSPolicy(),
		Logger:   log,
		Observer: metrics,
	})
	uvExecutor := upstream.NewExecutor(upstream.ExecutorConfig{
		Policy:   upstream.UVPolicy(),
		Logger:   log,
		Observer: metrics,
	})
	geocodeExecutor := upstream.NewExecutor(upstream.ExecutorConfig{
		Policy:   upstream.GeocodePolicy(),
		Logger:   log,
		Observer: metrics,
	})

	// Gateway clients
	pointsCache := cache.New[nws.GridReference](cfg.PointsCacheTTL)
	nwsClient := nws.NewClient(nws.ClientConfig{
		BaseURL:     cfg.NWSBaseURL,
		UserAgent:   cfg.NWSUserAgent,
		Executor:    nwsExecutor,
		PointsCache: pointsCache,
		Logger:      log,
	})

	uvCache := cache.New[uvindex.Reading](cfg.UVCacheTTL)
	uvClient := uvindex.NewClient(uvindex.ClientConfig{
		BaseURL:  cfg.UVBaseURL,
		APIKey:   cfg.UVAPIKey,
		Executor: uvExecutor,
		Cache:    uvCache,
		Logger:   log,
	})

	zipCache := cache.New[geocode.Location](24 * time.Hour)
	geocoder := geocode.NewClient(geocode.ClientConfig{
		BaseURL:   cfg.GeocodeBaseURL,
		UserAgent: cfg.NWSUserAgent,
		Executor:  geocodeExecutor,
		Cache:     zipCache,
		Logger:    log,
	})

	metrics.RegisterCacheStats("points", pointsCache.Stats)
	metrics.RegisterCacheStats("uv", uvCache.Stats)
	metrics.RegisterCacheStats("zip", zipCache.Stats)

	// Dashboard service and sessions
	service := dashboard.NewService(dashboard.ServiceConfig{
		Resolver: geocoder,
		Weather:  nwsClient,
		UV:       uvClient,
		Logger:   log,
	})
	sessions := dashboard.NewManager(service, refresh.Config{
		Interval:    cfg.RefreshInterval,
		BackoffBase: cfg.RefreshBackoffBase,
		BackoffCap:  cfg.RefreshBackoffCap,
		MaxFailures: cfg.RefreshMaxFailures,
	}, refresh.WithObserver(metrics))
	defer sessions.Close()
	metrics.RegisterSessionCount(sessions.Count)

	log.Info().
		Bool("uv_enabled", uvClient.Enabled()).
		Dur("refresh_interval", cfg.RefreshInterval).
		Msg("dashboard service initialized")

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:     Version,
		BuildTime:   BuildTime,
		Logger:      log,
		ServiceName: serviceName,
		RequireTLS:  cfg.RequireTLS,
		Metrics:     httpMetrics,
		Sessions:    sessions,
		Ops: handler.OpsConfig{
			Version:      Version,
			BuildTime:    BuildTime,
			SessionCount: sessions.Count,
			Caches: []handler.NamedCacheStats{
				{Name: "points", Stats: pointsCache.Stats},
				{Name: "uv", Stats: uvCache.Stats},
				{Name: "zip", Stats: zipCache.Stats},
			},
			UVEnabled: uvClient.Enabled(),
		},
		MetricsHandler: metrics.Handler(),
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}
