package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/jacobhausler/weather-app-sub000/internal/api/models"
	"github.com/jacobhausler/weather-app-sub000/internal/api/response"
	"github.com/jacobhausler/weather-app-sub000/internal/dashboard"
	"github.com/jacobhausler/weather-app-sub000/internal/refresh"
	"github.com/jacobhausler/weather-app-sub000/internal/upstream"
)

// DashboardHandler handles session-scoped dashboard endpoints.
type DashboardHandler struct {
	sessions *dashboard.Manager
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(sessions *dashboard.Manager) *DashboardHandler {
	return &DashboardHandler{sessions: sessions}
}

// Fetch handles POST /v1/dashboard/{sessionID}/fetch - load the dashboard
// for a new ZIP code. The session is created on first use.
func (h *DashboardHandler) Fetch(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	var req models.FetchDashboardRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&req); err != nil {
		response.BadRequest(w, r, "request body must be valid JSON", nil)
		return
	}

	session := h.sessions.GetOrCreate(sessionID)
	if _, err := session.Fetch(r.Context(), req.Zip); err != nil {
		h.writeFetchError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, session.Snapshot())
}

// Refresh handles POST /v1/dashboard/{sessionID}/refresh - re-fetch the
// current location on user request.
func (h *DashboardHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	session, ok := h.existingSession(w, r)
	if !ok {
		return
	}

	if _, err := session.Refresh(r.Context()); err != nil {
		h.writeFetchError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, session.Snapshot())
}

// Visibility handles POST /v1/dashboard/{sessionID}/visibility - the
// client became visible again and wants fresh data soon.
func (h *DashboardHandler) Visibility(w http.ResponseWriter, r *http.Request) {
	session, ok := h.existingSession(w, r)
	if !ok {
		return
	}
	session.OnVisible()
	response.NoContent(w, r)
}

// Get handles GET /v1/dashboard/{sessionID} - return the session view.
func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	session, ok := h.existingSession(w, r)
	if !ok {
		return
	}
	response.JSON(w, r, http.StatusOK, session.Snapshot())
}

// Delete handles DELETE /v1/dashboard/{sessionID} - tear the session
// down, stopping its refresh loop.
func (h *DashboardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	if !h.sessions.Delete(sessionID) {
		response.NotFound(w, r, "session not found")
		return
	}
	response.NoContent(w, r)
}

// sessionID extracts and validates the sessionID route parameter.
// Session IDs are client-generated UUIDs.
func (h *DashboardHandler) sessionID(w http.ResponseWriter, r *http.Request) (string, bool) {
	sessionID := chi.URLParam(r, "sessionID")
	if err := uuid.Validate(sessionID); err != nil {
		response.BadRequest(w, r, "sessionID must be a UUID", []models.FieldError{
			{Field: "sessionID", Message: "must be a valid UUID", Code: "invalid_format"},
		})
		return "", false
	}
	return sessionID, true
}

func (h *DashboardHandler) existingSession(w http.ResponseWriter, r *http.Request) (*dashboard.Session, bool) {
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return nil, false
	}
	session, ok := h.sessions.Get(sessionID)
	if !ok {
		response.NotFound(w, r, "session not found")
		return nil, false
	}
	return session, true
}

// writeFetchError maps fetch failures to problem responses. The detail is
// the same user-facing message the session records.
func (h *DashboardHandler) writeFetchError(w http.ResponseWriter, r *http.Request, err error) {
	detail := dashboard.Humanize(err)

	var (
		notFound  *upstream.NotFoundError
		rateLimit *upstream.RateLimitError
		server    *upstream.ServerError
		transport *upstream.TransportError
	)
	switch {
	case errors.Is(err, dashboard.ErrInvalidZIP):
		response.BadRequest(w, r, detail, []models.FieldError{
			{Field: "zip", Message: "must be exactly five digits", Code: "invalid_format"},
		})
	case errors.Is(err, dashboard.ErrNoLocation):
		response.Conflict(w, r, "No location has been fetched for this session yet.")
	case errors.Is(err, refresh.ErrBusy):
		response.Conflict(w, r, "A refresh is already in progress.")
	case errors.As(err, &notFound):
		response.NotFound(w, r, detail)
	case errors.As(err, &rateLimit):
		response.TooManyRequests(w, r, detail)
	case errors.As(err, &server), errors.As(err, &transport):
		response.ServiceUnavailable(w, r, detail)
	default:
		response.InternalError(w, r, detail)
	}
}
