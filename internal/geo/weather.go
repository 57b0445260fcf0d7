package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/wayfarer-bot/wayfarer/app/observability/metrics"
)

type openMeteoResponse struct {
	Hourly struct {
		Time          []string  `json:"time"`
		Temperature2M []float64 `json:"temperature_2m"`
	} `json:"hourly"`
}

// DailyTemperatures fetches the hourly temperature forecast for [start, end]
// and collapses it to one averaged value per calendar day, rounded to one
// decimal place.
func (c *Client) DailyTemperatures(ctx context.Context, at Coordinates, start, end time.Time) ([]DailyTemperature, error) {
	ctx, span := otel.Tracer("GeoClient").Start(ctx, "DailyTemperatures")
	defer span.End()

	reqURL := fmt.Sprintf("%s/v1/forecast?%s", c.openMeteoURL, url.Values{
		"latitude":   {strconv.FormatFloat(at.Lat, 'f', -1, 64)},
		"longitude":  {strconv.FormatFloat(at.Lon, 'f', -1, 64)},
		"hourly":     {"temperature_2m"},
		"start_date": {start.Format(time.DateOnly)},
		"end_date":   {end.Format(time.DateOnly)},
	}.Encode())

	body, status, err := c.get(ctx, reqURL)
	if err != nil || status != http.StatusOK {
		metrics.Get().ProviderErrorsTotal.Add(ctx, 1)
		return nil, fmt.Errorf("weather request failed (status %d): %w", status, err)
	}

	var parsed openMeteoResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		metrics.Get().ProviderErrorsTotal.Add(ctx, 1)
		return nil, fmt.Errorf("weather response unparseable: %w", err)
	}
	if len(parsed.Hourly.Time) == 0 || len(parsed.Hourly.Time) != len(parsed.Hourly.Temperature2M) {
		return nil, fmt.Errorf("weather response has no usable hourly series")
	}

	sums := make(map[string]float64)
	counts := make(map[string]int)
	for i, ts := range parsed.Hourly.Time {
		if len(ts) < 10 {
			continue
		}
		day := ts[:10]
		sums[day] += parsed.Hourly.Temperature2M[i]
		counts[day]++
	}

	days := make([]string, 0, len(sums))
	for day := range sums {
		days = append(days, day)
	}
	sort.Strings(days)

	result := make([]DailyTemperature, 0, len(days))
	for _, day := range days {
		avg := sums[day] / float64(counts[day])
		result = append(result, DailyTemperature{
			Day:        day,
			AvgCelsius: math.Round(avg*10) / 10,
		})
	}
	return result, nil
}
