package dashboard

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/jacobhausler/weather-app-sub000/internal/refresh"
)

// maxRecentZIPs bounds the recent-location list.
const maxRecentZIPs = 5

// Session is the per-client dashboard state: the current dashboard, the
// recent ZIP list, the last user-visible error, and the background
// refresh loop keeping the dashboard current.
type Session struct {
	id      string
	service *Service
	logger  zerolog.Logger

	controller *refresh.Controller

	mu         sync.Mutex
	current    *Dashboard
	currentZIP string
	recent     []string
	lastError  string
}

// View is a read-only snapshot of a Session for API responses.
type View struct {
	SessionID  string        `json:"sessionId"`
	Dashboard  *Dashboard    `json:"dashboard,omitempty"`
	RecentZIPs []string      `json:"recentZips"`
	LastError  string        `json:"lastError,omitempty"`
	Refresh    refresh.State `json:"refresh"`
}

// NewSession creates a session with a stopped refresh loop. The loop
// starts after the first successful fetch.
func NewSession(id string, service *Service, cfg refresh.Config, opts ...refresh.Option) *Session {
	s := &Session{
		id:      id,
		service: service,
		logger:  service.logger.With().Str("session_id", id).Logger(),
	}
	cfg.Logger = s.logger
	s.controller = refresh.New(cfg, s.backgroundRefresh, opts...)
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Fetch loads the dashboard for a new ZIP code on behalf of the user.
// On success the dashboard is replaced, the ZIP moves to the front of
// the recent list, and the refresh loop (re)starts with a clean slate.
// On failure the previous dashboard is kept and the error is recorded
// in user-visible form.
func (s *Session) Fetch(ctx context.Context, zip string) (*Dashboard, error) {
	d, err := s.service.Fetch(ctx, zip)

	s.mu.Lock()
	if err != nil {
		s.lastError = Humanize(err)
		s.mu.Unlock()
		return nil, err
	}
	s.current = d
	s.currentZIP = zip
	s.touchRecent(zip)
	s.lastError = ""
	s.mu.Unlock()

	s.controller.Start()
	s.controller.Reset()
	return d, nil
}

// Refresh re-fetches the current location on behalf of the user. Unlike
// the background loop, a manual refresh surfaces its error and records
// it for the session.
func (s *Session) Refresh(ctx context.Context) (*Dashboard, error) {
	s.mu.Lock()
	zip := s.currentZIP
	s.mu.Unlock()
	if zip == "" {
		return nil, ErrNoLocation
	}

	err := s.controller.Refresh(ctx)
	if errors.Is(err, refresh.ErrBusy) || errors.Is(err, refresh.ErrClosed) {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.lastError = Humanize(err)
		return nil, err
	}
	s.lastError = ""
	return s.current, nil
}

// ErrNoLocation is returned when a refresh is requested before any
// successful fetch.
var ErrNoLocation = errors.New("dashboard: no location fetched yet")

// OnVisible reports that the client became visible again and wants fresh
// data without waiting for the next tick.
func (s *Session) OnVisible() {
	s.controller.OnVisible()
}

// Snapshot returns the session's current view.
func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	recent := make([]string, len(s.recent))
	copy(recent, s.recent)
	return View{
		SessionID:  s.id,
		Dashboard:  s.current,
		RecentZIPs: recent,
		LastError:  s.lastError,
		Refresh:    s.controller.Snapshot(),
	}
}

// Close tears the session down. The refresh timer stops and no further
// background work runs.
func (s *Session) Close() {
	s.controller.Close()
}

// backgroundRefresh is the refresh loop's target: re-fetch the current
// ZIP and replace the dashboard wholesale on success. Failures leave the
// previous dashboard untouched and stay out of the user-visible error;
// the controller's backoff handles them.
func (s *Session) backgroundRefresh(ctx context.Context) error {
	s.mu.Lock()
	zip := s.currentZIP
	s.mu.Unlock()
	if zip == "" {
		return nil
	}

	d, err := s.service.Fetch(ctx, zip)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.currentZIP != zip {
		// The user fetched a new location while this refresh was in
		// flight. The result describes the old one; drop it.
		return nil
	}
	s.current = d
	s.lastError = ""
	return nil
}

// touchRecent moves zip to the front of the recent list, deduplicating
// and trimming to maxRecentZIPs. Caller holds the lock.
func (s *Session) touchRecent(zip string) {
	out := make([]string, 0, len(s.recent)+1)
	out = append(out, zip)
	for _, z := range s.recent {
		if z != zip {
			out = append(out, z)
		}
	}
	if len(out) > maxRecentZIPs {
		out = out[:maxRecentZIPs]
	}
	s.recent = out
}

// Manager owns the live sessions.
type Manager struct {
	service    *Service
	refreshCfg refresh.Config
	opts       []refresh.Option

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a session manager. cfg applies to every session's
// refresh loop.
func NewManager(service *Service, cfg refresh.Config, opts ...refresh.Option) *Manager {
	return &Manager{
		service:    service,
		refreshCfg: cfg,
		opts:       opts,
		sessions:   make(map[string]*Session),
	}
}

// Get returns the session with the given ID, if it exists.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// GetOrCreate returns the session with the given ID, creating it on
// first use.
func (m *Manager) GetOrCreate(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		return s
	}
	s := NewSession(id, m.service, m.refreshCfg, m.opts...)
	m.sessions[id] = s
	return s
}

// Delete closes and removes a session. It reports whether the session
// existed.
func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok {
		s.Close()
	}
	return ok
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Close closes every session.
func (m *Manager) Close() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()
	for _, s := range sessions {
		s.Close()
	}
}
