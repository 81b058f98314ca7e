package observability

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// setupMetricsTest creates a test meter provider and returns a function to collect metrics.
func setupMetricsTest(t *testing.T) (*sdkmetric.ManualReader, func()) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	// Save the original provider
	originalProvider := otel.GetMeterProvider()

	// Set test provider
	otel.SetMeterProvider(provider)

	// Return cleanup function
	cleanup := func() {
		otel.SetMeterProvider(originalProvider)
		if err := provider.Shutdown(context.Background()); err != nil {
			t.Logf("Error shutting down meter provider: %v", err)
		}
	}

	return reader, cleanup
}

// collectMetrics collects all metrics from the reader.
func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) *metricdata.ResourceMetrics {
	var rm metricdata.ResourceMetrics
	err := reader.Collect(context.Background(), &rm)
	require.NoError(t, err)
	return &rm
}

// findMetric finds a metric by name in the collected data.
func findMetric(rm *metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

// sumFor returns the counter value for datapoints carrying key=value.
func sumFor(t *testing.T, m *metricdata.Metrics, key, value string) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "Expected Sum type")
	var total int64
	for _, dp := range sum.DataPoints {
		if v, ok := dp.Attributes.Value(attribute.Key(key)); ok && v.AsString() == value {
			total += dp.Value
		}
	}
	return total
}

func TestNewMetricsRecorder(t *testing.T) {
	_, cleanup := setupMetricsTest(t)
	defer cleanup()

	recorder := NewMetricsRecorder()
	require.NotNil(t, recorder)

	_, isNoop := recorder.(NoopMetrics)
	assert.False(t, isNoop, "Expected real metrics recorder, got noop")
}

func TestRecordNodeProcess(t *testing.T) {
	reader, cleanup := setupMetricsTest(t)
	defer cleanup()

	m, err := newOtelMetrics()
	require.NoError(t, err)
	ctx := context.Background()

	m.RecordNodeProcess(ctx, "math.remap", 50*time.Microsecond, nil)
	m.RecordNodeProcess(ctx, "math.remap", 70*time.Microsecond, nil)
	m.RecordNodeProcess(ctx, "cast.float.int", time.Microsecond, errors.New("bad cast"))
	m.RecordNodeProcess(ctx, "flow.delay", time.Microsecond, context.Canceled)

	rm := collectMetrics(t, reader)

	processes := findMetric(rm, "pulse.node.processes")
	require.NotNil(t, processes)
	assert.Equal(t, int64(2), sumFor(t, processes, "node_kind", "math.remap"))

	latency := findMetric(rm, "pulse.node.latency_ms")
	require.NotNil(t, latency)
	hist, ok := latency.Data.(metricdata.Histogram[float64])
	require.True(t, ok, "Expected Histogram type")
	assert.NotEmpty(t, hist.DataPoints)

	errs := findMetric(rm, "pulse.node.errors")
	require.NotNil(t, errs)
	assert.Equal(t, int64(1), sumFor(t, errs, "node_kind", "cast.float.int"))
	assert.Equal(t, int64(0), sumFor(t, errs, "node_kind", "flow.delay"), "cancellation is not an error")
}

func TestRecordPulse(t *testing.T) {
	reader, cleanup := setupMetricsTest(t)
	defer cleanup()

	m, err := newOtelMetrics()
	require.NoError(t, err)
	ctx := context.Background()

	m.RecordPulse(ctx, "timer", time.Millisecond, nil)
	m.RecordPulse(ctx, "timer", time.Millisecond, errors.New("failed"))
	m.RecordPulse(ctx, "timer", time.Millisecond, context.Canceled)

	rm := collectMetrics(t, reader)
	pulses := findMetric(rm, "pulse.traversals")
	require.NotNil(t, pulses)
	assert.Equal(t, int64(1), sumFor(t, pulses, "outcome", OutcomeSuccess))
	assert.Equal(t, int64(1), sumFor(t, pulses, "outcome", OutcomeFailed))
	assert.Equal(t, int64(1), sumFor(t, pulses, "outcome", OutcomeCancelled))
	assert.Equal(t, int64(3), sumFor(t, pulses, "source", "timer"))
}

func TestRecordParameter(t *testing.T) {
	reader, cleanup := setupMetricsTest(t)
	defer cleanup()

	m, err := newOtelMetrics()
	require.NoError(t, err)

	m.RecordParameter(context.Background(), "out")
	m.RecordParameter(context.Background(), "out")
	m.RecordParameter(context.Background(), "in")

	rm := collectMetrics(t, reader)
	params := findMetric(rm, "pulse.parameters")
	require.NotNil(t, params)
	assert.Equal(t, int64(2), sumFor(t, params, "direction", "out"))
	assert.Equal(t, int64(1), sumFor(t, params, "direction", "in"))
}

func TestOutcomeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, OutcomeSuccess},
		{"canceled", context.Canceled, OutcomeCancelled},
		{"deadline", context.DeadlineExceeded, OutcomeCancelled},
		{"wrapped cancel", fmt.Errorf("node: %w", context.Canceled), OutcomeCancelled},
		{"plain error", errors.New("x"), OutcomeFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, OutcomeOf(tt.err))
		})
	}
}
