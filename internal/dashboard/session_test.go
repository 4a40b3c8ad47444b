package dashboard

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacobhausler/weather-app-sub000/internal/geocode"
	"github.com/jacobhausler/weather-app-sub000/internal/nws"
	"github.com/jacobhausler/weather-app-sub000/internal/refresh"
	"github.com/jacobhausler/weather-app-sub000/internal/suntimes"
	"github.com/jacobhausler/weather-app-sub000/internal/upstream"
)

func newTestSession(t *testing.T, svc *Service) (*Session, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClock()
	s := NewSession("sess-1", svc, refresh.Config{Clock: clock})
	t.Cleanup(s.Close)
	return s, clock
}

func TestSessionRecentListDeduplicates(t *testing.T) {
	svc := testService(topekaResolver(), &fakeWeather{}, &fakeUV{})
	s, _ := newTestSession(t, svc)
	ctx := context.Background()

	_, err := s.Fetch(ctx, "66603")
	require.NoError(t, err)
	_, err = s.Fetch(ctx, "10001")
	require.NoError(t, err)
	_, err = s.Fetch(ctx, "66603")
	require.NoError(t, err)

	view := s.Snapshot()
	assert.Equal(t, []string{"66603", "10001"}, view.RecentZIPs)
}

func TestSessionRecentListCapped(t *testing.T) {
	resolver := &fakeResolver{locs: map[string]geocode.Location{}}
	for i := 0; i < 7; i++ {
		zip := fmt.Sprintf("1000%d", i)
		resolver.locs[zip] = geocode.Location{ZIP: zip, Latitude: 40, Longitude: -74}
	}
	svc := testService(resolver, &fakeWeather{}, &fakeUV{})
	s, _ := newTestSession(t, svc)
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		_, err := s.Fetch(ctx, fmt.Sprintf("1000%d", i))
		require.NoError(t, err)
	}

	view := s.Snapshot()
	assert.Equal(t, []string{"10006", "10005", "10004", "10003", "10002"}, view.RecentZIPs)
}

func TestSessionFetchFailureKeepsDashboard(t *testing.T) {
	weather := &fakeWeather{}
	svc := testService(topekaResolver(), weather, &fakeUV{})
	s, _ := newTestSession(t, svc)
	ctx := context.Background()

	_, err := s.Fetch(ctx, "66603")
	require.NoError(t, err)
	before := s.Snapshot()
	require.NotNil(t, before.Dashboard)

	weather.err = &upstream.TransportError{Endpoint: "/points", Attempts: 3}
	_, err = s.Fetch(ctx, "10001")
	require.Error(t, err)

	view := s.Snapshot()
	require.NotNil(t, view.Dashboard)
	assert.Equal(t, "Topeka", view.Dashboard.Location.City)
	assert.Equal(t, "We could not reach the weather service. Check your connection and try again.", view.LastError)
	assert.Equal(t, []string{"66603"}, view.RecentZIPs, "failed fetch must not enter the recent list")
}

func TestSessionRefreshWithoutLocation(t *testing.T) {
	svc := testService(topekaResolver(), &fakeWeather{}, &fakeUV{})
	s, _ := newTestSession(t, svc)

	_, err := s.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrNoLocation)
}

func TestSessionManualRefreshClearsError(t *testing.T) {
	weather := &fakeWeather{}
	svc := testService(topekaResolver(), weather, &fakeUV{})
	s, _ := newTestSession(t, svc)
	ctx := context.Background()

	_, err := s.Fetch(ctx, "66603")
	require.NoError(t, err)

	weather.err = &upstream.ServerError{StatusCode: 500}
	_, err = s.Refresh(ctx)
	require.Error(t, err)
	assert.NotEmpty(t, s.Snapshot().LastError)

	weather.err = nil
	d, err := s.Refresh(ctx)
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Empty(t, s.Snapshot().LastError)
}

func TestSessionBackgroundRefreshReplacesDashboard(t *testing.T) {
	weather := &fakeWeather{}
	svc := testService(topekaResolver(), weather, &fakeUV{})
	s, clock := newTestSession(t, svc)
	ctx := context.Background()

	_, err := s.Fetch(ctx, "66603")
	require.NoError(t, err)
	first := s.Snapshot().Dashboard.Weather.FetchedAt

	clock.Advance(refresh.DefaultInterval)
	require.Eventually(t, func() bool {
		d := s.Snapshot().Dashboard
		return d != nil && d.Weather.FetchedAt.After(first)
	}, 2*time.Second, time.Millisecond)
}

func TestSessionBackgroundFailureIsSilent(t *testing.T) {
	weather := &fakeWeather{}
	svc := testService(topekaResolver(), weather, &fakeUV{})
	s, clock := newTestSession(t, svc)
	ctx := context.Background()

	_, err := s.Fetch(ctx, "66603")
	require.NoError(t, err)

	weather.err = &upstream.ServerError{StatusCode: 502}
	clock.Advance(refresh.DefaultInterval)
	require.Eventually(t, func() bool {
		return s.Snapshot().Refresh.ConsecutiveFailures == 1
	}, 2*time.Second, time.Millisecond)

	view := s.Snapshot()
	assert.Empty(t, view.LastError, "background failures stay out of the user-visible error")
	require.NotNil(t, view.Dashboard)
	assert.Equal(t, "Topeka", view.Dashboard.Location.City)
}

// gatedWeather parks calls for one latitude until released, so tests can
// hold a refresh in flight while the session moves on.
type gatedWeather struct {
	mu      sync.Mutex
	calls   int
	holdLat float64
	entered chan struct{}
	release chan struct{}
}

func (f *gatedWeather) GetWeatherSnapshot(ctx context.Context, lat, lon float64) (*nws.WeatherSnapshot, error) {
	f.mu.Lock()
	f.calls++
	hold := f.holdLat != 0 && f.holdLat == lat
	f.mu.Unlock()
	if hold {
		f.entered <- struct{}{}
		<-f.release
	}
	return &nws.WeatherSnapshot{
		GridReference: nws.GridReference{GridX: int(lat)},
		FetchedAt:     time.Now().UTC(),
	}, nil
}

func (f *gatedWeather) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestSessionStaleBackgroundRefreshDiscarded(t *testing.T) {
	weather := &gatedWeather{entered: make(chan struct{}, 1), release: make(chan struct{})}
	svc := NewService(ServiceConfig{
		Resolver: topekaResolver(),
		Weather:  weather,
		UV:       &fakeUV{},
		SunTimes: func(lat, lon float64, date time.Time) (suntimes.SunTimes, bool) {
			return suntimes.SunTimes{}, false
		},
		Logger: zerolog.Nop(),
	})
	s, clock := newTestSession(t, svc)
	ctx := context.Background()

	_, err := s.Fetch(ctx, "66603")
	require.NoError(t, err)

	// Park the next background refresh of Topeka inside the provider.
	weather.mu.Lock()
	weather.holdLat = 39.0473
	weather.mu.Unlock()
	clock.Advance(refresh.DefaultInterval)
	<-weather.entered

	// The user moves on while the old refresh is still in flight.
	_, err = s.Fetch(ctx, "10001")
	require.NoError(t, err)
	assert.Equal(t, 40, s.Snapshot().Dashboard.Weather.GridReference.GridX)

	// The stale Topeka result must not overwrite the New York dashboard.
	close(weather.release)
	time.Sleep(50 * time.Millisecond)

	require.Equal(t, 3, weather.count())
	view := s.Snapshot()
	assert.Equal(t, "New York", view.Dashboard.Location.City)
	assert.Equal(t, 40, view.Dashboard.Weather.GridReference.GridX)
	assert.Equal(t, "10001", view.RecentZIPs[0])
}

func TestManagerLifecycle(t *testing.T) {
	svc := testService(topekaResolver(), &fakeWeather{}, &fakeUV{})
	m := NewManager(svc, refresh.Config{Clock: clockwork.NewFakeClock()})
	defer m.Close()

	_, ok := m.Get("a")
	assert.False(t, ok)

	s1 := m.GetOrCreate("a")
	s2 := m.GetOrCreate("a")
	assert.Same(t, s1, s2)
	assert.Equal(t, 1, m.Count())

	assert.True(t, m.Delete("a"))
	assert.False(t, m.Delete("a"))
	assert.Equal(t, 0, m.Count())
}
