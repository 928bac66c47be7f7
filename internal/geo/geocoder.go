// internal/geo/geocoder.go
package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/javajoker/commerce-jobs/internal/config"
)

// ErrGeocodingFailed covers both transport errors and empty result sets.
// Callers decide whether to treat it as fatal or degrade.
var ErrGeocodingFailed = errors.New("geocoding failed")

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Geocoder resolves free-text city names against a Nominatim-style search
// endpoint, scoped to one country. Results are memoized per client so a job
// run never asks for the same city twice, and outbound calls are rate
// limited (public Nominatim allows one request per second).
type Geocoder struct {
	baseURL string
	country string
	client  *http.Client
	limiter *rate.Limiter

	mu    sync.Mutex
	cache map[string]Coordinates
}

func NewGeocoder(cfg config.GeoConfig) *Geocoder {
	return &Geocoder{
		baseURL: strings.TrimRight(cfg.GeocodeBaseURL, "/"),
		country: cfg.CountryCode,
		client: &http.Client{
			Timeout: time.Duration(cfg.RequestTimeout) * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1),
		cache:   make(map[string]Coordinates),
	}
}

type geocodeResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Resolve returns the coordinates of a city, hitting the external service at
// most once per distinct city for the lifetime of the client.
func (g *Geocoder) Resolve(ctx context.Context, city string) (Coordinates, error) {
	key := strings.ToLower(strings.TrimSpace(city))
	if key == "" {
		return Coordinates{}, fmt.Errorf("%w: empty city name", ErrGeocodingFailed)
	}

	g.mu.Lock()
	if coords, ok := g.cache[key]; ok {
		g.mu.Unlock()
		return coords, nil
	}
	g.mu.Unlock()

	if err := g.limiter.Wait(ctx); err != nil {
		return Coordinates{}, fmt.Errorf("%w: %v", ErrGeocodingFailed, err)
	}

	params := url.Values{}
	params.Set("q", city)
	params.Set("countrycodes", g.country)
	params.Set("format", "json")
	params.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return Coordinates{}, fmt.Errorf("%w: %v", ErrGeocodingFailed, err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return Coordinates{}, fmt.Errorf("%w: %v", ErrGeocodingFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Coordinates{}, fmt.Errorf("%w: unexpected status %d", ErrGeocodingFailed, resp.StatusCode)
	}

	var results []geocodeResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return Coordinates{}, fmt.Errorf("%w: %v", ErrGeocodingFailed, err)
	}

	if len(results) == 0 {
		return Coordinates{}, fmt.Errorf("%w: no results for %q", ErrGeocodingFailed, city)
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return Coordinates{}, fmt.Errorf("%w: %v", ErrGeocodingFailed, err)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return Coordinates{}, fmt.Errorf("%w: %v", ErrGeocodingFailed, err)
	}

	coords := Coordinates{Latitude: lat, Longitude: lon}

	g.mu.Lock()
	g.cache[key] = coords
	g.mu.Unlock()

	return coords, nil
}
