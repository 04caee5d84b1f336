package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/amirphl/trip-to-travel/config"
	"github.com/amirphl/trip-to-travel/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGeocoder(t *testing.T, cache PlaceCache, handler http.HandlerFunc) *NominatimGeocoder {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewNominatimGeocoder(&config.GeocoderConfig{
		BaseURL:   server.URL,
		UserAgent: "trip-to-travel-test",
		Language:  "en",
		Timeout:   5 * time.Second,
	}, cache, logger.NewNop())
}

func TestNominatimGeocoder_Reverse(t *testing.T) {
	var hits atomic.Int32
	g := newTestGeocoder(t, NewMemoryPlaceCache(time.Hour), func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "/reverse", r.URL.Path)
		assert.Equal(t, "jsonv2", r.URL.Query().Get("format"))
		assert.Equal(t, "35.6892", r.URL.Query().Get("lat"))
		assert.Equal(t, "en", r.URL.Query().Get("accept-language"))
		assert.Equal(t, "trip-to-travel-test", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`{"display_name":"Tehran, Iran"}`))
	})

	assert.Equal(t, "Tehran, Iran", g.Reverse(context.Background(), 35.6892, 51.389))
	assert.Equal(t, "Tehran, Iran", g.Reverse(context.Background(), 35.6892, 51.389))
	assert.Equal(t, int32(1), hits.Load(), "second lookup is served from the cache")
}

func TestNominatimGeocoder_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
			},
		},
		{
			name: "unable to geocode",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"error":"Unable to geocode"}`))
			},
		},
		{
			name: "empty display name",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"display_name":"  "}`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := NewMemoryPlaceCache(time.Hour)
			g := newTestGeocoder(t, cache, tt.handler)
			assert.Equal(t, NoAddress, g.Reverse(context.Background(), 0, 0))

			_, ok, err := cache.Get(context.Background(), 0, 0)
			assert.NoError(t, err)
			assert.False(t, ok, "failures are not cached")
		})
	}
}

func TestMemoryPlaceCache_Expiry(t *testing.T) {
	cache := NewMemoryPlaceCache(time.Millisecond)
	ctx := context.Background()

	assert.NoError(t, cache.Set(ctx, 1.23456, 2.34567, "Somewhere"))
	time.Sleep(5 * time.Millisecond)
	_, ok, err := cache.Get(ctx, 1.23456, 2.34567)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryPlaceCache_Bounded(t *testing.T) {
	ctx := context.Background()

	t.Run("expired entries are swept when full", func(t *testing.T) {
		cache := NewMemoryPlaceCache(time.Millisecond)
		cache.maxEntries = 2
		require.NoError(t, cache.Set(ctx, 1, 1, "a"))
		require.NoError(t, cache.Set(ctx, 2, 2, "b"))
		time.Sleep(5 * time.Millisecond)

		require.NoError(t, cache.Set(ctx, 3, 3, "c"))
		assert.Equal(t, 1, cache.Len())
	})

	t.Run("closest to expiry is evicted", func(t *testing.T) {
		cache := NewMemoryPlaceCache(time.Hour)
		cache.maxEntries = 2
		for i, place := range []string{"a", "b", "c"} {
			require.NoError(t, cache.Set(ctx, float64(i), float64(i), place))
			time.Sleep(time.Millisecond)
		}
		assert.Equal(t, 2, cache.Len())

		_, ok, err := cache.Get(ctx, 0, 0)
		require.NoError(t, err)
		assert.False(t, ok)
		place, ok, err := cache.Get(ctx, 2, 2)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "c", place)
	})

	t.Run("overwriting an existing key never evicts", func(t *testing.T) {
		cache := NewMemoryPlaceCache(time.Hour)
		cache.maxEntries = 1
		require.NoError(t, cache.Set(ctx, 5, 5, "first"))
		require.NoError(t, cache.Set(ctx, 5, 5, "second"))
		place, ok, err := cache.Get(ctx, 5, 5)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "second", place)
	})
}

func TestMemoryPlaceCache_RoundsCoordinates(t *testing.T) {
	cache := NewMemoryPlaceCache(time.Hour)
	ctx := context.Background()

	assert.NoError(t, cache.Set(ctx, 48.858370, 2.294481, "Paris"))
	place, ok, err := cache.Get(ctx, 48.858371, 2.294479)
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Paris", place)
}

func TestMockGeocoder(t *testing.T) {
	g := NewMockGeocoder()
	g.SetPlace(10, 20, "Here")
	assert.Equal(t, "Here", g.Reverse(context.Background(), 10, 20))
	assert.Equal(t, NoAddress, g.Reverse(context.Background(), 11, 20))
	assert.Equal(t, 2, g.Calls)
}
