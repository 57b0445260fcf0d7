package geo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wayfarer-bot/wayfarer/app/observability/metrics"
)

const poiLimit = 5

type overpassResponse struct {
	Elements []struct {
		Tags map[string]string `json:"tags"`
	} `json:"elements"`
}

// Restaurants returns up to five restaurant names around the coordinate,
// alphabetically, preferring the localized name tag.
func (c *Client) Restaurants(ctx context.Context, at Coordinates, radiusMeters int) ([]string, error) {
	query := fmt.Sprintf(`
        [out:json][timeout:25];
        (
            node["amenity"="restaurant"](around:%d,%f,%f);
            way["amenity"="restaurant"](around:%d,%f,%f);
            relation["amenity"="restaurant"](around:%d,%f,%f);
        );
        out tags;`,
		radiusMeters, at.Lat, at.Lon,
		radiusMeters, at.Lat, at.Lon,
		radiusMeters, at.Lat, at.Lon)
	return c.poiNames(ctx, "Restaurants", query, true)
}

// Sights returns up to five tourist attractions around the coordinate.
func (c *Client) Sights(ctx context.Context, at Coordinates, radiusMeters int) ([]string, error) {
	query := fmt.Sprintf(`
        [out:json][timeout:25];
        (
            node["tourism"="attraction"](around:%d,%f,%f);
            way["tourism"="attraction"](around:%d,%f,%f);
            relation["tourism"="attraction"](around:%d,%f,%f);
        );
        out tags;`,
		radiusMeters, at.Lat, at.Lon,
		radiusMeters, at.Lat, at.Lon,
		radiusMeters, at.Lat, at.Lon)
	return c.poiNames(ctx, "Sights", query, false)
}

// Hotels returns up to five hotels around the coordinate.
func (c *Client) Hotels(ctx context.Context, at Coordinates, radiusMeters int) ([]string, error) {
	query := fmt.Sprintf(`
        [out:json][timeout:25];
        node["tourism"="hotel"](around:%d,%f,%f);
        out tags;`,
		radiusMeters, at.Lat, at.Lon)
	return c.poiNames(ctx, "Hotels", query, false)
}

func (c *Client) poiNames(ctx context.Context, op, query string, localized bool) ([]string, error) {
	ctx, span := otel.Tracer("GeoClient").Start(ctx, op)
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.overpassURL, bytes.NewBufferString(query))
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.Get().ProviderErrorsTotal.Add(ctx, 1)
		return nil, fmt.Errorf("overpass request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.Get().ProviderErrorsTotal.Add(ctx, 1)
		return nil, fmt.Errorf("overpass returned status %d", resp.StatusCode)
	}

	var parsed overpassResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		metrics.Get().ProviderErrorsTotal.Add(ctx, 1)
		return nil, fmt.Errorf("overpass response unparseable: %w", err)
	}

	var names []string
	for _, el := range parsed.Elements {
		name, ok := el.Tags["name"]
		if !ok {
			continue
		}
		if localized {
			if local, ok := el.Tags["name:"+c.language]; ok {
				name = local
			}
		}
		names = append(names, name)
	}
	sort.Strings(names)
	if len(names) > poiLimit {
		names = names[:poiLimit]
	}

	span.SetAttributes(attribute.Int("geo.poi_count", len(names)))
	return names, nil
}
