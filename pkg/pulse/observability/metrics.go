package observability

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Outcome labels for traversals.
const (
	OutcomeSuccess   = "success"
	OutcomeFailed    = "failed"
	OutcomeCancelled = "cancelled"
)

// OutcomeOf classifies a traversal error.
func OutcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeCancelled
	default:
		return OutcomeFailed
	}
}

// MetricsRecorder records engine metrics.
// Use NewMetricsRecorder() for OTel metrics, NewPrometheusRecorder for
// Prometheus, or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordNodeProcess records one Process call of a node kind.
	RecordNodeProcess(ctx context.Context, kind string, duration time.Duration, err error)

	// RecordPulse records a finished traversal started by source.
	RecordPulse(ctx context.Context, source string, duration time.Duration, err error)

	// RecordParameter records an avatar parameter crossing the OSC boundary.
	// direction is "in" or "out".
	RecordParameter(ctx context.Context, direction string)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	nodeProcesses metric.Int64Counter
	nodeLatency   metric.Float64Histogram
	nodeErrors    metric.Int64Counter
	pulses        metric.Int64Counter
	pulseLatency  metric.Float64Histogram
	parameters    metric.Int64Counter
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics lazily creates the instruments on the global meter provider.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("pulse")

	nodeProcesses, err := meter.Int64Counter("pulse.node.processes",
		metric.WithDescription("Number of node Process calls"),
	)
	if err != nil {
		return nil, err
	}

	nodeLatency, err := meter.Float64Histogram("pulse.node.latency_ms",
		metric.WithDescription("Node Process latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	nodeErrors, err := meter.Int64Counter("pulse.node.errors",
		metric.WithDescription("Number of failed node Process calls"),
	)
	if err != nil {
		return nil, err
	}

	pulses, err := meter.Int64Counter("pulse.traversals",
		metric.WithDescription("Number of traversals by source and outcome"),
	)
	if err != nil {
		return nil, err
	}

	pulseLatency, err := meter.Float64Histogram("pulse.traversal.latency_ms",
		metric.WithDescription("Traversal latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	parameters, err := meter.Int64Counter("pulse.parameters",
		metric.WithDescription("Avatar parameters sent and received"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		nodeProcesses: nodeProcesses,
		nodeLatency:   nodeLatency,
		nodeErrors:    nodeErrors,
		pulses:        pulses,
		pulseLatency:  pulseLatency,
		parameters:    parameters,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If instrument creation fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function.
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordNodeProcess records a node Process call.
func (m *otelMetrics) RecordNodeProcess(ctx context.Context, kind string, duration time.Duration, err error) {
	attrs := metric.WithAttributes(attribute.String("node_kind", kind))
	m.nodeProcesses.Add(ctx, 1, attrs)
	m.nodeLatency.Record(ctx, float64(duration.Microseconds())/1000, attrs)
	if err != nil && OutcomeOf(err) == OutcomeFailed {
		m.nodeErrors.Add(ctx, 1, attrs)
	}
}

// RecordPulse records a traversal.
func (m *otelMetrics) RecordPulse(ctx context.Context, source string, duration time.Duration, err error) {
	attrs := metric.WithAttributes(
		attribute.String("source", source),
		attribute.String("outcome", OutcomeOf(err)),
	)
	m.pulses.Add(ctx, 1, attrs)
	m.pulseLatency.Record(ctx, float64(duration.Microseconds())/1000, attrs)
}

// RecordParameter records a parameter send or receipt.
func (m *otelMetrics) RecordParameter(ctx context.Context, direction string) {
	m.parameters.Add(ctx, 1, metric.WithAttributes(attribute.String("direction", direction)))
}
