// Package geo wraps the external mapping providers: Nominatim geocoding,
// OSRM routing, Overpass points of interest and Open-Meteo forecasts.
// Every call is fallible best-effort I/O: network, HTTP and parse failures
// are mapped to ordinary negative results, never propagated as fatal.
package geo

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/wayfarer-bot/wayfarer/config"
)

type Coordinates struct {
	Lat float64
	Lon float64
}

type ResolutionStatus int

const (
	// PlaceResolved means the geocoder returned at least one match; the
	// first ranked result is taken, there is no disambiguation.
	PlaceResolved ResolutionStatus = iota
	// PlaceNotFound means the geocoder answered with an empty result set.
	PlaceNotFound
	// PlaceLookupFailed means the call itself failed (network, non-2xx,
	// malformed body). Callers treat it like PlaceNotFound but metrics
	// keep the two apart.
	PlaceLookupFailed
)

// Resolution is the outcome of a place-name lookup.
type Resolution struct {
	Status      ResolutionStatus
	DisplayName string
	Lat         float64
	Lon         float64
}

// Geocoder resolves free-text place names.
type Geocoder interface {
	Resolve(ctx context.Context, query string) Resolution
}

// RoutePlanner returns driving waypoints between two coordinates.
type RoutePlanner interface {
	Route(ctx context.Context, from, to Coordinates) ([]Coordinates, error)
}

// POIFinder looks up named points of interest around a coordinate.
type POIFinder interface {
	Restaurants(ctx context.Context, at Coordinates, radiusMeters int) ([]string, error)
	Sights(ctx context.Context, at Coordinates, radiusMeters int) ([]string, error)
	Hotels(ctx context.Context, at Coordinates, radiusMeters int) ([]string, error)
}

// DailyTemperature is one calendar day's averaged forecast.
type DailyTemperature struct {
	Day        string
	AvgCelsius float64
}

// Forecaster returns per-day averaged temperatures for a date range.
type Forecaster interface {
	DailyTemperatures(ctx context.Context, at Coordinates, start, end time.Time) ([]DailyTemperature, error)
}

var (
	_ Geocoder     = (*Client)(nil)
	_ RoutePlanner = (*Client)(nil)
	_ POIFinder    = (*Client)(nil)
	_ Forecaster   = (*Client)(nil)
)

// Client implements all provider interfaces over plain HTTP.
type Client struct {
	logger *slog.Logger
	http   *http.Client
	// Geocode responses are cached; the upstream service rate-limits
	// aggressively and place names repeat across a conversation.
	geocodeCache *cache.Cache

	nominatimURL string
	overpassURL  string
	osrmURL      string
	openMeteoURL string
	userAgent    string
	language     string
}

func NewClient(cfg *config.Config, logger *slog.Logger) *Client {
	timeout := cfg.Providers.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	cacheTTL := cfg.Conversation.GeocodeCacheTTL
	if cacheTTL <= 0 {
		cacheTTL = time.Hour
	}
	return &Client{
		logger:       logger,
		http:         &http.Client{Timeout: timeout},
		geocodeCache: cache.New(cacheTTL, 2*cacheTTL),
		nominatimURL: cfg.Providers.NominatimURL,
		overpassURL:  cfg.Providers.OverpassURL,
		osrmURL:      cfg.Providers.OSRMURL,
		openMeteoURL: cfg.Providers.OpenMeteoURL,
		userAgent:    cfg.Providers.UserAgent,
		language:     cfg.Providers.Language,
	}
}

// get performs a GET with the provider headers set and returns the body on 200.
func (c *Client) get(ctx context.Context, url string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept-Language", c.language)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}
