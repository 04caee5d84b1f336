package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/amirphl/trip-to-travel/config"
	"github.com/amirphl/trip-to-travel/logger"
)

// NoAddress is returned by Reverse whenever no place could be resolved
const NoAddress = "no address"

// Geocoder resolves coordinates to a human readable place. It never fails.
type Geocoder interface {
	Reverse(ctx context.Context, lat, lon float64) string
}

type nominatimResponse struct {
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
}

// NominatimGeocoder implements Geocoder against the OpenStreetMap Nominatim API
type NominatimGeocoder struct {
	config *config.GeocoderConfig
	client *http.Client
	cache  PlaceCache
	log    *logger.Logger

	mu       sync.Mutex
	lastCall time.Time
}

// NewNominatimGeocoder creates a new geocoder. cache may be nil.
func NewNominatimGeocoder(cfg *config.GeocoderConfig, cache PlaceCache, log *logger.Logger) *NominatimGeocoder {
	return &NominatimGeocoder{
		config: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		cache: cache,
		log:   log,
	}
}

func (g *NominatimGeocoder) Reverse(ctx context.Context, lat, lon float64) string {
	if g.cache != nil {
		place, ok, err := g.cache.Get(ctx, lat, lon)
		if err != nil {
			g.log.Warn("place cache read failed", "error", err)
		} else if ok {
			return place
		}
	}

	place, err := g.lookup(ctx, lat, lon)
	if err != nil {
		g.log.Warn("reverse geocoding failed", "lat", lat, "lon", lon, "error", err)
		return NoAddress
	}

	if g.cache != nil {
		if err := g.cache.Set(ctx, lat, lon, place); err != nil {
			g.log.Warn("place cache write failed", "error", err)
		}
	}
	return place
}

func (g *NominatimGeocoder) lookup(ctx context.Context, lat, lon float64) (place string, err error) {
	if err := g.wait(ctx); err != nil {
		return "", err
	}

	start := time.Now()
	defer func() { observeCall(collaboratorGeocoder, "reverse", start, err) }()

	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	if g.config.Language != "" {
		q.Set("accept-language", g.config.Language)
	}
	endpoint := strings.TrimRight(g.config.BaseURL, "/") + "/reverse?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("User-Agent", g.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send reverse request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("reverse request failed with status %d", resp.StatusCode)
	}

	var body nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode reverse response: %w", err)
	}
	if body.Error != "" {
		return "", fmt.Errorf("nominatim: %s", body.Error)
	}
	if strings.TrimSpace(body.DisplayName) == "" {
		return "", fmt.Errorf("nominatim returned no display name")
	}
	return body.DisplayName, nil
}

// wait spaces consecutive calls at least MinInterval apart
func (g *NominatimGeocoder) wait(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.config.MinInterval > 0 && !g.lastCall.IsZero() {
		if delay := g.config.MinInterval - time.Since(g.lastCall); delay > 0 {
			timer := time.NewTimer(delay)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timer.C:
			}
		}
	}
	g.lastCall = time.Now()
	return nil
}

// MockGeocoder implements Geocoder for testing
type MockGeocoder struct {
	mu     sync.Mutex
	Places map[string]string
	Calls  int
}

func NewMockGeocoder() *MockGeocoder {
	return &MockGeocoder{Places: make(map[string]string)}
}

// SetPlace registers the answer for a coordinate
func (m *MockGeocoder) SetPlace(lat, lon float64, place string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Places[placeKey(lat, lon)] = place
}

func (m *MockGeocoder) Reverse(ctx context.Context, lat, lon float64) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if place, ok := m.Places[placeKey(lat, lon)]; ok {
		return place
	}
	return NoAddress
}
