// Package handler provides HTTP handlers for the weather dashboard API.
package handler

import (
	"net/http"
	"time"

	"github.com/jacobhausler/weather-app-sub000/internal/api/models"
	"github.com/jacobhausler/weather-app-sub000/internal/api/response"
	"github.com/jacobhausler/weather-app-sub000/internal/cache"
)

// NamedCacheStats pairs a cache with a name for status reporting.
type NamedCacheStats struct {
	Name  string
	Stats func() cache.Stats
}

// OpsConfig wires the operational endpoints to the running subsystems.
type OpsConfig struct {
	Version      string
	BuildTime    string
	SessionCount func() int
	Caches       []NamedCacheStats
	UVEnabled    bool
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	cfg OpsConfig
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(cfg OpsConfig) *OpsHandler {
	return &OpsHandler{cfg: cfg}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]interface{}{
			"version":   h.cfg.Version,
			"buildTime": h.cfg.BuildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready - readiness check. The service
// holds no connections at startup, so readiness follows liveness.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
	}
	response.JSON(w, r, http.StatusOK, health)
}

// SystemStatus handles GET /v1/ops/status - cache, session, and provider
// status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	caches := make([]models.CacheStatus, 0, len(h.cfg.Caches))
	for _, c := range h.cfg.Caches {
		stats := c.Stats()
		caches = append(caches, models.CacheStatus{
			Name:   c.Name,
			Keys:   stats.Keys,
			Hits:   stats.Hits,
			Misses: stats.Misses,
		})
	}

	uvStatus := models.HealthStatusOK
	var uvMessage *string
	if !h.cfg.UVEnabled {
		uvStatus = models.HealthStatusDegraded
		msg := "no API key configured; UV index omitted from dashboards"
		uvMessage = &msg
	}

	live := 0
	if h.cfg.SessionCount != nil {
		live = h.cfg.SessionCount()
	}

	status := models.SystemStatus{
		Status:   models.HealthStatusOK,
		Time:     models.Timestamp(time.Now()),
		Sessions: models.SessionsStatus{Live: live},
		Caches:   caches,
		Providers: []models.ProviderStatus{
			{Provider: "nws", Status: models.HealthStatusOK, Enabled: true},
			{Provider: "uv-index", Status: uvStatus, Enabled: h.cfg.UVEnabled, Message: uvMessage},
			{Provider: "geocoder", Status: models.HealthStatusOK, Enabled: true},
		},
	}
	response.JSON(w, r, http.StatusOK, status)
}
