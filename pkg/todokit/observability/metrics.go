package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records todokit metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordMutation records a mutation with its duration and error status.
	RecordMutation(ctx context.Context, op string, duration time.Duration, err error)

	// RecordFailOpen records a validation call that failed open.
	RecordFailOpen(ctx context.Context)

	// RecordPublishDrop records a change event dropped after a failed publish.
	RecordPublishDrop(ctx context.Context, eventType string)

	// RecordConsumerOutcome records the outcome of handling a delivered event.
	RecordConsumerOutcome(ctx context.Context, outcome string)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	mutations        metric.Int64Counter
	mutationLatency  metric.Float64Histogram
	mutationErrors   metric.Int64Counter
	failOpens        metric.Int64Counter
	publishDrops     metric.Int64Counter
	consumerOutcomes metric.Int64Counter
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics returns the default OTel metrics instance.
// Lazily initializes the metrics on first call.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

// newOtelMetrics creates a new OTel metrics instance.
func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("todokit")

	mutations, err := meter.Int64Counter("todokit.mutations",
		metric.WithDescription("Number of mutation requests"),
	)
	if err != nil {
		return nil, err
	}

	mutationLatency, err := meter.Float64Histogram("todokit.mutation.latency_ms",
		metric.WithDescription("Mutation latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	mutationErrors, err := meter.Int64Counter("todokit.mutation.errors",
		metric.WithDescription("Number of failed mutations"),
	)
	if err != nil {
		return nil, err
	}

	failOpens, err := meter.Int64Counter("todokit.validation.fail_open",
		metric.WithDescription("Number of validation calls that failed open"),
	)
	if err != nil {
		return nil, err
	}

	publishDrops, err := meter.Int64Counter("todokit.publish.dropped",
		metric.WithDescription("Number of change events dropped after failed publish"),
	)
	if err != nil {
		return nil, err
	}

	consumerOutcomes, err := meter.Int64Counter("todokit.consumer.outcomes",
		metric.WithDescription("Consumer outcomes by type"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		mutations:        mutations,
		mutationLatency:  mutationLatency,
		mutationErrors:   mutationErrors,
		failOpens:        failOpens,
		publishDrops:     publishDrops,
		consumerOutcomes: consumerOutcomes,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordMutation records a mutation request.
func (m *otelMetrics) RecordMutation(ctx context.Context, op string, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("op", op),
	}

	m.mutations.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.mutationLatency.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))

	if err != nil {
		m.mutationErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

// RecordFailOpen records a fail-open validation call.
func (m *otelMetrics) RecordFailOpen(ctx context.Context) {
	m.failOpens.Add(ctx, 1)
}

// RecordPublishDrop records a dropped change event.
func (m *otelMetrics) RecordPublishDrop(ctx context.Context, eventType string) {
	m.publishDrops.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event_type", eventType),
	))
}

// RecordConsumerOutcome records a consumer outcome.
func (m *otelMetrics) RecordConsumerOutcome(ctx context.Context, outcome string) {
	m.consumerOutcomes.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
	))
}
