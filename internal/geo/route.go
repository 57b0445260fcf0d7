package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"

	"github.com/wayfarer-bot/wayfarer/app/observability/metrics"
)

type osrmResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Legs []struct {
			Steps []struct {
				Maneuver struct {
					Location []float64 `json:"location"` // [lon, lat]
				} `json:"maneuver"`
			} `json:"steps"`
		} `json:"legs"`
	} `json:"routes"`
}

// Route asks OSRM for a driving route between two points and returns the
// waypoints from..to inclusive. The caller is expected to fall back to the
// straight from-to segment on error.
func (c *Client) Route(ctx context.Context, from, to Coordinates) ([]Coordinates, error) {
	ctx, span := otel.Tracer("GeoClient").Start(ctx, "Route")
	defer span.End()

	reqURL := fmt.Sprintf("%s/route/v1/driving/%f,%f;%f,%f?steps=true&overview=false",
		c.osrmURL, from.Lon, from.Lat, to.Lon, to.Lat)

	body, status, err := c.get(ctx, reqURL)
	if err != nil || status != http.StatusOK {
		metrics.Get().ProviderErrorsTotal.Add(ctx, 1)
		return nil, fmt.Errorf("routing request failed (status %d): %w", status, err)
	}

	var parsed osrmResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		metrics.Get().ProviderErrorsTotal.Add(ctx, 1)
		return nil, fmt.Errorf("routing response unparseable: %w", err)
	}
	if parsed.Code != "Ok" || len(parsed.Routes) == 0 || len(parsed.Routes[0].Legs) == 0 {
		c.logger.WarnContext(ctx, "Routing returned no usable route", slog.String("code", parsed.Code))
		return nil, fmt.Errorf("routing returned code %q", parsed.Code)
	}

	waypoints := []Coordinates{from}
	for _, step := range parsed.Routes[0].Legs[0].Steps {
		if len(step.Maneuver.Location) == 2 {
			waypoints = append(waypoints, Coordinates{
				Lat: step.Maneuver.Location[1],
				Lon: step.Maneuver.Location[0],
			})
		}
	}
	return append(waypoints, to), nil
}
