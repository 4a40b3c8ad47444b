package middleware

import (
	"net/http"
	"strings"

	"github.com/jacobhausler/weather-app-sub000/internal/api/models"
)

// ContentTypeJSON defaults the response Content-Type to application/json.
// Handlers that write something else (the Prometheus exposition format,
// for one) set their own header first and win.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if w.Header().Get("Content-Type") == "" {
			w.Header().Set("Content-Type", "application/json")
		}
		next.ServeHTTP(w, r)
	})
}

// RequireJSON rejects POST bodies that are not JSON with a 415 problem.
// The dashboard API's only body is the fetch request's ZIP payload;
// a missing Content-Type is tolerated for bare POSTs like refresh and
// visibility.
func RequireJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			contentType := r.Header.Get("Content-Type")
			if contentType != "" && !strings.HasPrefix(contentType, "application/json") {
				problem := models.NewProblem(
					"https://api.weatherdash.dev/problems/unsupported-media-type",
					"Unsupported media type",
					http.StatusUnsupportedMediaType,
					GetRequestID(r.Context()),
				)
				problem.Detail = "Request bodies must be application/json"
				problem.Instance = r.URL.Path
				problem.Write(w)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
