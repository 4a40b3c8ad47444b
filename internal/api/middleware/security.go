package middleware

import (
	"net/http"

	"github.com/jacobhausler/weather-app-sub000/internal/api/models"
)

// SecurityHeaders adds browser hardening headers to every response. The
// API serves JSON to a single-page dashboard, so the policy can be fully
// locked down: nothing embeds it, nothing scripts against it directly,
// and dashboard payloads go stale within a refresh interval anyway.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Permissions-Policy", "geolocation=(), camera=(), microphone=()")
		h.Set("Cache-Control", "no-store")

		next.ServeHTTP(w, r)
	})
}

// RequireTLS rejects plaintext requests when enabled, using the
// X-Forwarded-Proto header a reverse proxy or load balancer sets.
// Requests without the header pass through so direct local connections
// keep working in development.
func RequireTLS(enabled bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if enabled {
				proto := r.Header.Get("X-Forwarded-Proto")
				if proto != "" && proto != "https" {
					problem := models.NewProblem(
						"https://api.weatherdash.dev/problems/tls-required",
						"TLS required",
						http.StatusForbidden,
						GetRequestID(r.Context()),
					)
					problem.Detail = "This endpoint requires HTTPS"
					problem.Instance = r.URL.Path
					problem.Write(w)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}
