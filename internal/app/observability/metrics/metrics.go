package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	HTTPRequestsTotal      metric.Int64Counter
	HTTPRequestDuration    metric.Float64Histogram
	AuthRequestsTotal      metric.Int64Counter
	CatalogRequestsTotal   metric.Int64Counter
	SnapshotFallbacksTotal metric.Int64Counter
	ToggleRequestsTotal    metric.Int64Counter
	DBQueryDurationSeconds metric.Float64Histogram
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics initializes the global metric instruments only once, using
// the globally configured MeterProvider.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("littletrip-api")
		var err error
		m := &AppMetrics{}

		m.HTTPRequestsTotal, err = meter.Int64Counter(
			"http_requests_total",
			metric.WithDescription("Total number of HTTP requests completed"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create http_requests_total: %v", err)
		}

		m.HTTPRequestDuration, err = meter.Float64Histogram(
			"http_request_duration_seconds",
			metric.WithDescription("Duration of HTTP requests in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create http_request_duration_seconds: %v", err)
		}

		m.AuthRequestsTotal, err = meter.Int64Counter(
			"auth_requests_total",
			metric.WithDescription("Total number of authentication requests"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create auth_requests_total: %v", err)
		}

		m.CatalogRequestsTotal, err = meter.Int64Counter(
			"catalog_requests_total",
			metric.WithDescription("Total number of catalog list/detail reads"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create catalog_requests_total: %v", err)
		}

		m.SnapshotFallbacksTotal, err = meter.Int64Counter(
			"snapshot_fallbacks_total",
			metric.WithDescription("Catalog reads served from the embedded snapshot after a storage failure"),
			metric.WithUnit("{read}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create snapshot_fallbacks_total: %v", err)
		}

		m.ToggleRequestsTotal, err = meter.Int64Counter(
			"preference_toggles_total",
			metric.WithDescription("Total number of preference toggle requests"),
			metric.WithUnit("{toggle}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create preference_toggles_total: %v", err)
		}

		m.DBQueryDurationSeconds, err = meter.Float64Histogram(
			"db_query_duration_seconds",
			metric.WithDescription("Duration of database queries in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create db_query_duration_seconds: %v", err)
		}

		appMetrics = m
	})
}

// Get returns the initialized metrics instance, or nil when observability was
// never set up (tests).
func Get() *AppMetrics {
	return appMetrics
}
