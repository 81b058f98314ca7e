package config

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/randalmurphal/pulse/pkg/pulse"
	"github.com/randalmurphal/pulse/pkg/pulse/observability"
	"github.com/randalmurphal/pulse/pkg/pulse/variable"
)

// LogLevel parses Log.Level ("debug", "info", "warn", "error", or "info+2").
func (c Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo, err
	}
	return level, nil
}

// Logger builds the process logger writing to w.
// It standardizes common keys (e.g., "error" -> "err").
func (c Config) Logger(w io.Writer) *slog.Logger {
	level, err := c.LogLevel()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == "error" {
				a.Key = "err"
			}
			return a
		},
	}
	if strings.EqualFold(c.Log.Format, FormatJSON) {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// OpenVariables opens the configured variable store. The caller closes it.
func (c Config) OpenVariables() (variable.Store, error) {
	v := c.Variables
	switch v.Backend {
	case BackendMemory, "":
		return variable.NewMemoryStore(), nil
	case BackendSQLite:
		store, err := variable.NewSQLiteStore(v.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite variables: %w", err)
		}
		return store, nil
	case BackendRedis:
		var opts []variable.RedisOption
		if v.Prefix != "" {
			opts = append(opts, variable.WithPrefix(v.Prefix))
		}
		if v.TTL != "" {
			ttl, err := time.ParseDuration(v.TTL)
			if err != nil {
				return nil, fmt.Errorf("%w: variables.ttl: %v", ErrInvalidConfig, err)
			}
			opts = append(opts, variable.WithTTL(ttl))
		}
		return variable.NewRedisStore(v.Addr, v.Password, v.DB, opts...), nil
	default:
		return nil, fmt.Errorf("%w: variables.backend %q", ErrInvalidConfig, v.Backend)
	}
}

// MetricsRecorder returns the configured recorder, or NoopMetrics when
// metrics are disabled. Prometheus collectors are registered with reg.
func (c Config) MetricsRecorder(reg prometheus.Registerer) (observability.MetricsRecorder, error) {
	if !c.Metrics.Enabled {
		return observability.NoopMetrics{}, nil
	}
	switch c.Metrics.Backend {
	case MetricsOTel:
		return observability.NewMetricsRecorder(), nil
	case MetricsPrometheus:
		rec, err := observability.NewPrometheusRecorder(reg)
		if err != nil {
			return nil, fmt.Errorf("register prometheus metrics: %w", err)
		}
		return rec, nil
	default:
		return nil, fmt.Errorf("%w: metrics.backend %q", ErrInvalidConfig, c.Metrics.Backend)
	}
}

// EngineOptions translates c into engine options. Services are left to the
// caller since they depend on the transport in use.
func (c Config) EngineOptions(logger *slog.Logger, reg prometheus.Registerer) ([]pulse.Option, error) {
	metrics, err := c.MetricsRecorder(reg)
	if err != nil {
		return nil, err
	}
	opts := []pulse.Option{
		pulse.WithLogger(logger),
		pulse.WithTickRate(c.TickRate),
		pulse.WithMaxFlowDepth(c.MaxFlowDepth),
		pulse.WithMetrics(metrics),
	}
	if c.Seed != nil {
		opts = append(opts, pulse.WithSeed(*c.Seed))
	}
	if c.Tracing {
		opts = append(opts, pulse.WithTracing(observability.NewSpanManager()))
	}
	return opts, nil
}
