package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"unicode"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wayfarer-bot/wayfarer/app/observability/metrics"
)

type nominatimResult struct {
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
}

// Resolve geocodes a free-text place name through Nominatim. The query is
// capitalized before lookup and the first ranked result wins. Failures of any
// kind come back as a Resolution, never as an error.
func (c *Client) Resolve(ctx context.Context, query string) Resolution {
	ctx, span := otel.Tracer("GeoClient").Start(ctx, "Resolve")
	defer span.End()

	query = capitalize(strings.TrimSpace(query))
	span.SetAttributes(attribute.String("geo.query", query))
	metrics.Get().OracleRequestsTotal.Add(ctx, 1)

	if cached, ok := c.geocodeCache.Get(query); ok {
		return cached.(Resolution)
	}

	reqURL := fmt.Sprintf("%s/search?%s", c.nominatimURL, url.Values{
		"q":      {query},
		"format": {"json"},
	}.Encode())

	body, status, err := c.get(ctx, reqURL)
	if err != nil || status != http.StatusOK {
		c.logger.WarnContext(ctx, "Geocoding request failed",
			slog.String("query", query),
			slog.Int("status", status),
			slog.Any("error", err))
		metrics.Get().ProviderErrorsTotal.Add(ctx, 1)
		return Resolution{Status: PlaceLookupFailed}
	}

	var results []nominatimResult
	if err := json.Unmarshal(body, &results); err != nil {
		c.logger.WarnContext(ctx, "Geocoding response unparseable", slog.Any("error", err))
		metrics.Get().ProviderErrorsTotal.Add(ctx, 1)
		return Resolution{Status: PlaceLookupFailed}
	}
	if len(results) == 0 {
		res := Resolution{Status: PlaceNotFound}
		c.geocodeCache.SetDefault(query, res)
		return res
	}

	lat, latErr := strconv.ParseFloat(results[0].Lat, 64)
	lon, lonErr := strconv.ParseFloat(results[0].Lon, 64)
	if latErr != nil || lonErr != nil {
		return Resolution{Status: PlaceLookupFailed}
	}

	res := Resolution{
		Status:      PlaceResolved,
		DisplayName: results[0].DisplayName,
		Lat:         lat,
		Lon:         lon,
	}
	c.geocodeCache.SetDefault(query, res)
	return res
}

// capitalize upper-cases the first rune and lower-cases the rest, matching
// how queries are normalized before hitting the geocoder.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(strings.ToLower(s))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
