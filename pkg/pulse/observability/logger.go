// Package observability provides logging, metrics and tracing for the pulse
// engine.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry or Prometheus
//   - Tracing via OpenTelemetry
//
// All features have no-op implementations for when they are disabled.
package observability

import (
	"log/slog"
	"time"
)

// EnrichLogger adds traversal context to a logger.
// Returns a new logger with pulse_id, node_id and node_kind fields.
func EnrichLogger(logger *slog.Logger, pulseID, nodeID, kind string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("pulse_id", pulseID),
		slog.String("node_id", nodeID),
		slog.String("node_kind", kind),
	)
}

// LogPulseStart logs the start of a traversal. Pulses fire at frame rate,
// so this is a debug record.
func LogPulseStart(logger *slog.Logger, pulseID, source, rootID string) {
	if logger == nil {
		return
	}
	logger.Debug("pulse starting",
		slog.String("pulse_id", pulseID),
		slog.String("source", source),
		slog.String("root_id", rootID),
	)
}

// LogPulseComplete logs a traversal that finished without error.
func LogPulseComplete(logger *slog.Logger, pulseID string, durationMs float64, nodesProcessed int) {
	if logger == nil {
		return
	}
	logger.Debug("pulse completed",
		slog.String("pulse_id", pulseID),
		slog.Float64("duration_ms", durationMs),
		slog.Int("nodes_processed", nodesProcessed),
	)
}

// LogPulseCancelled logs a traversal that unwound because its token was cancelled.
func LogPulseCancelled(logger *slog.Logger, pulseID, rootID string) {
	if logger == nil {
		return
	}
	logger.Debug("pulse cancelled",
		slog.String("pulse_id", pulseID),
		slog.String("root_id", rootID),
	)
}

// LogPulseError logs a failed traversal.
func LogPulseError(logger *slog.Logger, pulseID string, err error, durationMs float64, rootID string) {
	if logger == nil {
		return
	}
	logger.Error("pulse failed",
		slog.String("pulse_id", pulseID),
		slog.String("error", err.Error()),
		slog.Float64("duration_ms", durationMs),
		slog.String("root_id", rootID),
	)
}

// LogNodeError logs the node where a failure originated.
func LogNodeError(logger *slog.Logger, nodeID, kind string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("node failed",
		slog.String("node_id", nodeID),
		slog.String("node_kind", kind),
		slog.String("error", err.Error()),
	)
}

// LogEngineStart logs the trigger sources an engine is about to drive.
func LogEngineStart(logger *slog.Logger, nodes, sources, updaters int, tick time.Duration) {
	if logger == nil {
		return
	}
	logger.Info("engine starting",
		slog.Int("nodes", nodes),
		slog.Int("sources", sources),
		slog.Int("updaters", updaters),
		slog.Duration("tick", tick),
	)
}

// LogEngineStop logs engine shutdown.
func LogEngineStop(logger *slog.Logger, uptime time.Duration) {
	if logger == nil {
		return
	}
	logger.Info("engine stopped",
		slog.Duration("uptime", uptime),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in milliseconds.
//
// Example:
//
//	done := TimedOperation()
//	// ... do work ...
//	durationMs := done()
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Microseconds()) / 1000
	}
}
