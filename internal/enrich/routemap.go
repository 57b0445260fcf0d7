package enrich

import (
	"bytes"
	"context"
	"fmt"
	"image/color"
	"image/png"
	"log/slog"

	sm "github.com/flopp/go-staticmaps"
	"github.com/golang/geo/s2"

	"github.com/wayfarer-bot/wayfarer/internal/geo"
	"github.com/wayfarer-bot/wayfarer/internal/models"
)

const (
	mapSizePixels   = 1000
	markerSize      = 12.0
	routeLineWeight = 3.0
)

// RouteMap renders a PNG with one marker per location (in date order) plus
// the user's home coordinate, connected by a driving route. Each consecutive
// pair costs one routing call; a failed call degrades that segment to a
// straight line.
func (s *Service) RouteMap(ctx context.Context, home geo.Coordinates, locations []models.Location) ([]byte, error) {
	points := []geo.Coordinates{home}
	for _, loc := range locations {
		points = append(points, geo.Coordinates{Lat: loc.Lat, Lon: loc.Lon})
	}

	mapCtx := sm.NewContext()
	mapCtx.SetSize(mapSizePixels, mapSizePixels)
	for _, p := range points {
		mapCtx.AddObject(sm.NewMarker(
			s2.LatLngFromDegrees(p.Lat, p.Lon),
			color.RGBA{R: 0x2b, G: 0x5c, B: 0xff, A: 0xff},
			markerSize,
		))
	}

	route := s.fetchRoute(ctx, points)
	positions := make([]s2.LatLng, 0, len(route))
	for _, p := range route {
		positions = append(positions, s2.LatLngFromDegrees(p.Lat, p.Lon))
	}
	mapCtx.AddObject(sm.NewPath(positions, color.Black, routeLineWeight))

	img, err := mapCtx.Render()
	if err != nil {
		return nil, fmt.Errorf("rendering route map: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding route map: %w", err)
	}
	return buf.Bytes(), nil
}

// fetchRoute stitches routed waypoints between each consecutive pair.
func (s *Service) fetchRoute(ctx context.Context, points []geo.Coordinates) []geo.Coordinates {
	if len(points) == 0 {
		return nil
	}
	route := []geo.Coordinates{points[0]}
	for i := 1; i < len(points); i++ {
		segment, err := s.routes.Route(ctx, points[i-1], points[i])
		if err != nil {
			s.logger.WarnContext(ctx, "Routing segment failed, using straight line",
				slog.Int("segment", i), slog.Any("error", err))
			segment = []geo.Coordinates{points[i-1], points[i]}
		}
		route = append(route, segment[1:]...)
	}
	return route
}
