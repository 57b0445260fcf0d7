package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	MessagesTotal          metric.Int64Counter
	FormCommitsTotal       metric.Int64Counter
	FormRejectsTotal       metric.Int64Counter
	OracleRequestsTotal    metric.Int64Counter
	ProviderErrorsTotal    metric.Int64Counter
	MessageDurationSeconds metric.Float64Histogram
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// Get returns the process-wide metric instruments, creating them on first
// use from the global MeterProvider. Before the SDK provider is installed in
// main the instruments are no-ops, which keeps library code and tests free
// of initialization ordering concerns.
func Get() *AppMetrics {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("wayfarer")
		var err error
		m := &AppMetrics{}

		m.MessagesTotal, err = meter.Int64Counter(
			"messages_total",
			metric.WithDescription("Total number of inbound conversation messages handled"),
			metric.WithUnit("{message}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create messages_total: %v", err)
		}

		m.FormCommitsTotal, err = meter.Int64Counter(
			"form_commits_total",
			metric.WithDescription("Total number of completed forms committed to storage"),
			metric.WithUnit("{form}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create form_commits_total: %v", err)
		}

		m.FormRejectsTotal, err = meter.Int64Counter(
			"form_rejects_total",
			metric.WithDescription("Total number of step inputs rejected by validation"),
			metric.WithUnit("{input}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create form_rejects_total: %v", err)
		}

		m.OracleRequestsTotal, err = meter.Int64Counter(
			"oracle_requests_total",
			metric.WithDescription("Total number of geocoding oracle lookups"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create oracle_requests_total: %v", err)
		}

		m.ProviderErrorsTotal, err = meter.Int64Counter(
			"provider_errors_total",
			metric.WithDescription("Total number of failed external provider calls"),
			metric.WithUnit("{error}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create provider_errors_total: %v", err)
		}

		m.MessageDurationSeconds, err = meter.Float64Histogram(
			"message_duration_seconds",
			metric.WithDescription("Duration of inbound message handling in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create message_duration_seconds: %v", err)
		}

		appMetrics = m
	})
	return appMetrics
}
