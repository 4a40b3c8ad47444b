package uvindex_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacobhausler/weather-app-sub000/internal/upstream"
	"github.com/jacobhausler/weather-app-sub000/internal/uvindex"
)

func fastUVExecutor() *upstream.Executor {
	return upstream.NewExecutor(upstream.ExecutorConfig{
		Policy: upstream.Policy{
			Name:                "uvindex-test",
			Timeout:             2 * time.Second,
			RateLimitDelays:     nil, // 429 never retried, like UVPolicy
			ServerErrorBase:     time.Millisecond,
			ServerErrorAttempts: 2,
			TransportBase:       time.Millisecond,
			TransportAttempts:   2,
		},
	})
}

func TestClient_DisabledWithoutAPIKey(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := uvindex.NewClient(uvindex.ClientConfig{
		BaseURL: server.URL,
		Logger:  zerolog.Nop(),
	})

	assert.False(t, client.Enabled())

	_, ok := client.GetUVIndex(context.Background(), 40.7128, -74.006)
	assert.False(t, ok)
	assert.Equal(t, int32(0), requests.Load(), "disabled client must not touch the network")
}

func TestClient_FetchConvertsEpochToRFC3339(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.URL.Query().Get("appid"))
		assert.Equal(t, "40.7128", r.URL.Query().Get("lat"))
		assert.Equal(t, "-74.0060", r.URL.Query().Get("lon"))
		fmt.Fprint(w, `{"lat":40.71,"lon":-74.01,"date_iso":"2026-08-30T12:00:00Z","date":1787140800,"value":6.24}`)
	}))
	defer server.Close()

	client := uvindex.NewClient(uvindex.ClientConfig{
		APIKey:   "secret",
		BaseURL:  server.URL,
		Executor: fastUVExecutor(),
		Logger:   zerolog.Nop(),
	})

	reading, ok := client.GetUVIndex(context.Background(), 40.712772, -74.005974)
	require.True(t, ok)
	assert.InDelta(t, 6.24, reading.Value, 0.001)
	assert.Equal(t, time.Unix(1787140800, 0).UTC().Format(time.RFC3339), reading.Timestamp)
	assert.InDelta(t, 40.7128, reading.Latitude, 1e-9)
	assert.InDelta(t, -74.006, reading.Longitude, 1e-9)
}

func TestClient_CachesByRoundedCoordinates(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests.Add(1)
		fmt.Fprint(w, `{"date":1787140800,"value":3.1}`)
	}))
	defer server.Close()

	client := uvindex.NewClient(uvindex.ClientConfig{
		APIKey:   "secret",
		BaseURL:  server.URL,
		Executor: fastUVExecutor(),
		Logger:   zerolog.Nop(),
	})
	ctx := context.Background()

	_, ok := client.GetUVIndex(ctx, 90.00004, 0.00004)
	require.True(t, ok)
	_, ok = client.GetUVIndex(ctx, 89.99996, 0.00002)
	require.True(t, ok)

	assert.Equal(t, int32(1), requests.Load(), "both coordinates round to 90.0000,0.0000")

	stats := client.CacheStats()
	assert.Equal(t, 1, stats.Keys)
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
}

func TestClient_SoftFailOn401And429(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusTooManyRequests} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			var requests atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				requests.Add(1)
				w.WriteHeader(status)
			}))
			defer server.Close()

			client := uvindex.NewClient(uvindex.ClientConfig{
				APIKey:   "secret",
				BaseURL:  server.URL,
				Executor: fastUVExecutor(),
				Logger:   zerolog.Nop(),
			})

			_, ok := client.GetUVIndex(context.Background(), 40.7128, -74.006)
			assert.False(t, ok)
			assert.Equal(t, int32(1), requests.Load(), "no retry on %d", status)
		})
	}
}

func TestClient_SoftFailAfterExhaustedRetries(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := uvindex.NewClient(uvindex.ClientConfig{
		APIKey:   "secret",
		BaseURL:  server.URL,
		Executor: fastUVExecutor(),
		Logger:   zerolog.Nop(),
	})

	_, ok := client.GetUVIndex(context.Background(), 40.7128, -74.006)
	assert.False(t, ok, "exhausted retries degrade to absent, never an error")
	assert.Equal(t, int32(2), requests.Load(), "two attempts per UV policy")
}

func TestClient_ClearLocationCache(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests.Add(1)
		fmt.Fprint(w, `{"date":1787140800,"value":3.1}`)
	}))
	defer server.Close()

	client := uvindex.NewClient(uvindex.ClientConfig{
		APIKey:   "secret",
		BaseURL:  server.URL,
		Executor: fastUVExecutor(),
		Logger:   zerolog.Nop(),
	})
	ctx := context.Background()

	client.GetUVIndex(ctx, 40.7128, -74.006)
	client.ClearLocationCache(40.7128, -74.006)
	client.GetUVIndex(ctx, 40.7128, -74.006)

	assert.Equal(t, int32(2), requests.Load(), "invalidated entry forces a refetch")
}
