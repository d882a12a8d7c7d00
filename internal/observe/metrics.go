// Package observe provides application-wide observability primitives for
// diary-quest: OpenTelemetry metrics, distributed tracing, structured
// logging, and HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can still be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all diary-quest metrics.
const meterName = "github.com/meteoright00/diary-quest-sub001"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use; the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms ---

	// ConversionDuration tracks diary-to-narrative conversion latency,
	// including all model calls of the conversion.
	ConversionDuration metric.Float64Histogram

	// ReportDuration tracks report generation latency, including the
	// summary model call.
	ReportDuration metric.Float64Histogram

	// --- Counters ---

	// Conversions counts diary conversions. Use with attribute:
	//   attribute.String("status", ...)
	Conversions metric.Int64Counter

	// LevelUps counts character levels gained. Use with attribute:
	//   attribute.String("character_id", ...)
	LevelUps metric.Int64Counter

	// Reports counts generated reports. Use with attributes:
	//   attribute.String("type", ...), attribute.String("status", ...)
	Reports metric.Int64Counter

	// ProviderRequests counts provider API calls. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("kind", ...), attribute.String("status", ...)
	ProviderRequests metric.Int64Counter

	// --- Error counters ---

	// ProviderErrors counts provider errors. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("kind", ...)
	ProviderErrors metric.Int64Counter

	// --- Gauges ---

	// ActiveStreams tracks the number of live conversion streams.
	ActiveStreams metric.Int64UpDownCounter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) sized for
// model-call latencies, which run from sub-second to minutes.
var latencyBuckets = []float64{
	0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60, 120,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.ConversionDuration, err = m.Float64Histogram("diaryquest.conversion.duration",
		metric.WithDescription("Latency of diary-to-narrative conversion."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ReportDuration, err = m.Float64Histogram("diaryquest.report.duration",
		metric.WithDescription("Latency of report generation."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.Conversions, err = m.Int64Counter("diaryquest.conversions",
		metric.WithDescription("Total diary conversions by status."),
	); err != nil {
		return nil, err
	}
	if met.LevelUps, err = m.Int64Counter("diaryquest.level_ups",
		metric.WithDescription("Total character levels gained by character ID."),
	); err != nil {
		return nil, err
	}
	if met.Reports, err = m.Int64Counter("diaryquest.reports",
		metric.WithDescription("Total generated reports by type and status."),
	); err != nil {
		return nil, err
	}
	if met.ProviderRequests, err = m.Int64Counter("diaryquest.provider.requests",
		metric.WithDescription("Total provider API requests by provider, kind, and status."),
	); err != nil {
		return nil, err
	}

	// Error counters.
	if met.ProviderErrors, err = m.Int64Counter("diaryquest.provider.errors",
		metric.WithDescription("Total provider errors by provider and kind."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.ActiveStreams, err = m.Int64UpDownCounter("diaryquest.active_streams",
		metric.WithDescription("Number of live conversion streams."),
	); err != nil {
		return nil, err
	}

	// HTTP middleware histogram.
	if met.HTTPRequestDuration, err = m.Float64Histogram("diaryquest.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordConversion is a convenience method that records a conversion counter
// increment.
func (m *Metrics) RecordConversion(ctx context.Context, status string) {
	m.Conversions.Add(ctx, 1,
		metric.WithAttributes(attribute.String("status", status)),
	)
}

// RecordLevelUps is a convenience method that adds the levels gained by a
// character in one progression application. Calls with levels <= 0 record
// nothing.
func (m *Metrics) RecordLevelUps(ctx context.Context, characterID string, levels int64) {
	if levels <= 0 {
		return
	}
	m.LevelUps.Add(ctx, levels,
		metric.WithAttributes(attribute.String("character_id", characterID)),
	)
}

// RecordReport is a convenience method that records a report counter
// increment with the standard attribute set.
func (m *Metrics) RecordReport(ctx context.Context, reportType, status string) {
	m.Reports.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("type", reportType),
			attribute.String("status", status),
		),
	)
}

// RecordProviderRequest is a convenience method that records a provider
// request counter increment with the standard attribute set.
func (m *Metrics) RecordProviderRequest(ctx context.Context, provider, kind, status string) {
	m.ProviderRequests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("kind", kind),
			attribute.String("status", status),
		),
	)
}

// RecordProviderError is a convenience method that records a provider error
// counter increment.
func (m *Metrics) RecordProviderError(ctx context.Context, provider, kind string) {
	m.ProviderErrors.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("kind", kind),
		),
	)
}
