// Package enrich computes best-effort extras for committed locations:
// nearby restaurants, sights and hotels, an averaged temperature forecast
// and a rendered route map. Every lookup degrades to "no results" on
// provider failure; nothing here ever aborts a journey-info request.
package enrich

import (
	"context"
	"log/slog"

	"github.com/wayfarer-bot/wayfarer/internal/geo"
	"github.com/wayfarer-bot/wayfarer/internal/models"
)

const (
	restaurantRadiusMeters = 5000
	sightRadiusMeters      = 15000
)

type Service struct {
	logger  *slog.Logger
	pois    geo.POIFinder
	weather geo.Forecaster
	routes  geo.RoutePlanner

	hotelRadiusMeters int
}

func NewService(pois geo.POIFinder, weather geo.Forecaster, routes geo.RoutePlanner, hotelRadiusMeters int, logger *slog.Logger) *Service {
	if hotelRadiusMeters <= 0 {
		hotelRadiusMeters = 7000
	}
	return &Service{
		logger:            logger,
		pois:              pois,
		weather:           weather,
		routes:            routes,
		hotelRadiusMeters: hotelRadiusMeters,
	}
}

// Restaurants returns up to five restaurants near the location, alphabetically.
func (s *Service) Restaurants(ctx context.Context, loc models.Location) ([]string, error) {
	return s.pois.Restaurants(ctx, coords(loc), restaurantRadiusMeters)
}

// Sights returns up to five tourist attractions near the location.
func (s *Service) Sights(ctx context.Context, loc models.Location) ([]string, error) {
	return s.pois.Sights(ctx, coords(loc), sightRadiusMeters)
}

// Hotels returns up to five hotels near the location.
func (s *Service) Hotels(ctx context.Context, loc models.Location) ([]string, error) {
	return s.pois.Hotels(ctx, coords(loc), s.hotelRadiusMeters)
}

// DailyWeather returns one averaged temperature per stay day.
func (s *Service) DailyWeather(ctx context.Context, loc models.Location) ([]geo.DailyTemperature, error) {
	start := loc.DateStart
	end := loc.DateEnd
	// Open-Meteo rejects ranges entirely in the past relative to its
	// forecast horizon; the caller already guarantees future dates.
	if end.Before(start) {
		end = start
	}
	return s.weather.DailyTemperatures(ctx, coords(loc), start, end)
}

func coords(loc models.Location) geo.Coordinates {
	return geo.Coordinates{Lat: loc.Lat, Lon: loc.Lon}
}
