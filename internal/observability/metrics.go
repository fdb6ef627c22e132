// Package observability provides the run-time metrics, tracing, and health
// check primitives shared by the monitoring core and its services. It
// replaces the donor's hand-rolled internal/monitoring package (a
// self-contained Span/Counter implementation duplicated behind gin and
// Telegram bot middleware) with thin wrappers over the OpenTelemetry SDK
// provider already configured in internal/telemetry.
package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/tradewatch/monitor/internal/observability"

// Metrics holds the counters and histograms the monitoring core emits
// during a run. All instruments are registered against the global
// MeterProvider installed by telemetry.NewProvider; when telemetry is
// disabled the global meter is a no-op and these calls are cheap.
type Metrics struct {
	bookmarksMonitored metric.Int64Counter
	updatesFound       metric.Int64Counter
	persistFailures    metric.Int64Counter
	enqueueFailures    metric.Int64Counter
	detectorLatency    metric.Float64Histogram
	runDuration        metric.Float64Histogram
}

// NewMetrics creates the monitoring core's instrument set against the
// global OTel meter.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(instrumentationName)

	bookmarksMonitored, err := meter.Int64Counter(
		"monitoring.bookmarks_monitored",
		metric.WithDescription("Active bookmarks visited in a monitoring run"),
	)
	if err != nil {
		return nil, err
	}

	updatesFound, err := meter.Int64Counter(
		"monitoring.updates_found",
		metric.WithDescription("Bookmarks for which a new update was persisted"),
	)
	if err != nil {
		return nil, err
	}

	persistFailures, err := meter.Int64Counter(
		"monitoring.persist_failures",
		metric.WithDescription("Findings that failed to persist after a detector hit"),
	)
	if err != nil {
		return nil, err
	}

	enqueueFailures, err := meter.Int64Counter(
		"monitoring.enqueue_failures",
		metric.WithDescription("Persisted findings that failed to enqueue for notification"),
	)
	if err != nil {
		return nil, err
	}

	detectorLatency, err := meter.Float64Histogram(
		"monitoring.detector_call_duration",
		metric.WithDescription("Latency of a single detector invocation, including retries"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	runDuration, err := meter.Float64Histogram(
		"monitoring.run_duration",
		metric.WithDescription("Wall-clock duration of a full monitoring run"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		bookmarksMonitored: bookmarksMonitored,
		updatesFound:       updatesFound,
		persistFailures:    persistFailures,
		enqueueFailures:    enqueueFailures,
		detectorLatency:    detectorLatency,
		runDuration:        runDuration,
	}, nil
}

func (m *Metrics) RecordBookmarksMonitored(ctx context.Context, n int64) {
	m.bookmarksMonitored.Add(ctx, n)
}

func (m *Metrics) RecordUpdateFound(ctx context.Context) {
	m.updatesFound.Add(ctx, 1)
}

func (m *Metrics) RecordPersistFailure(ctx context.Context) {
	m.persistFailures.Add(ctx, 1)
}

func (m *Metrics) RecordEnqueueFailure(ctx context.Context) {
	m.enqueueFailures.Add(ctx, 1)
}

func (m *Metrics) RecordDetectorLatency(ctx context.Context, seconds float64) {
	m.detectorLatency.Record(ctx, seconds)
}

func (m *Metrics) RecordRunDuration(ctx context.Context, seconds float64) {
	m.runDuration.Record(ctx, seconds)
}
