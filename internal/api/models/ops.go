package models

// Health represents the health status of the service.
type Health struct {
	Status  HealthStatus           `json:"status"`
	Time    Timestamp              `json:"time"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// SystemStatus represents the overall system status.
type SystemStatus struct {
	Status    HealthStatus     `json:"status"`
	Time      Timestamp        `json:"time"`
	Sessions  SessionsStatus   `json:"sessions"`
	Caches    []CacheStatus    `json:"caches"`
	Providers []ProviderStatus `json:"providers"`
}

// SessionsStatus reports on the live dashboard sessions.
type SessionsStatus struct {
	Live int `json:"live"`
}

// CacheStatus reports one cache's effectiveness.
type CacheStatus struct {
	Name   string `json:"name"`
	Keys   int    `json:"keys"`
	Hits   uint64 `json:"hits"`
	Misses uint64 `json:"misses"`
}

// ProviderStatus represents the status of an external provider.
type ProviderStatus struct {
	Provider string       `json:"provider"`
	Status   HealthStatus `json:"status"`
	Enabled  bool         `json:"enabled"`
	Message  *string      `json:"message,omitempty"`
}
