package observability

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder is a MetricsRecorder backed by Prometheus collectors.
type PrometheusRecorder struct {
	nodeProcesses *prometheus.CounterVec
	nodeDuration  *prometheus.HistogramVec
	nodeErrors    *prometheus.CounterVec
	pulses        *prometheus.CounterVec
	pulseDuration *prometheus.HistogramVec
	parameters    *prometheus.CounterVec
}

var _ MetricsRecorder = (*PrometheusRecorder)(nil)

// NewPrometheusRecorder creates the pulse collectors and registers them with reg.
// A nil reg uses prometheus.DefaultRegisterer.
func NewPrometheusRecorder(reg prometheus.Registerer) (*PrometheusRecorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	r := &PrometheusRecorder{
		nodeProcesses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pulse_node_processes_total",
				Help: "Total number of node Process calls",
			},
			[]string{"node_kind"},
		),
		nodeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pulse_node_duration_seconds",
				Help:    "Duration of node Process calls",
				Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
			},
			[]string{"node_kind"},
		),
		nodeErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pulse_node_errors_total",
				Help: "Total number of failed node Process calls",
			},
			[]string{"node_kind"},
		),
		pulses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pulse_traversals_total",
				Help: "Total number of traversals by source and outcome",
			},
			[]string{"source", "outcome"},
		),
		pulseDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pulse_traversal_duration_seconds",
				Help:    "Duration of traversals",
				Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
			},
			[]string{"source"},
		),
		parameters: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pulse_parameters_total",
				Help: "Avatar parameters sent and received",
			},
			[]string{"direction"},
		),
	}
	for _, c := range []prometheus.Collector{
		r.nodeProcesses, r.nodeDuration, r.nodeErrors,
		r.pulses, r.pulseDuration, r.parameters,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// RecordNodeProcess implements MetricsRecorder.
func (r *PrometheusRecorder) RecordNodeProcess(_ context.Context, kind string, duration time.Duration, err error) {
	r.nodeProcesses.WithLabelValues(kind).Inc()
	r.nodeDuration.WithLabelValues(kind).Observe(duration.Seconds())
	if OutcomeOf(err) == OutcomeFailed {
		r.nodeErrors.WithLabelValues(kind).Inc()
	}
}

// RecordPulse implements MetricsRecorder.
func (r *PrometheusRecorder) RecordPulse(_ context.Context, source string, duration time.Duration, err error) {
	r.pulses.WithLabelValues(source, OutcomeOf(err)).Inc()
	r.pulseDuration.WithLabelValues(source).Observe(duration.Seconds())
}

// RecordParameter implements MetricsRecorder.
func (r *PrometheusRecorder) RecordParameter(_ context.Context, direction string) {
	r.parameters.WithLabelValues(direction).Inc()
}
