package pulse

import (
	"log/slog"
	"time"

	"github.com/randalmurphal/pulse/pkg/pulse/observability"
)

// DefaultTickRate is how often Updaters are re-evaluated, in Hz.
const DefaultTickRate = 60

// engineConfig holds configuration for an Engine.
type engineConfig struct {
	logger   *slog.Logger
	services Services
	random   *Random
	metrics  observability.MetricsRecorder
	spans    observability.SpanManager
	tick     time.Duration
	maxDepth int
}

// defaultEngineConfig returns the default engine configuration.
func defaultEngineConfig() engineConfig {
	return engineConfig{
		logger:   slog.Default(),
		random:   DefaultRandom(),
		metrics:  observability.NoopMetrics{},
		spans:    observability.NoopSpanManager{},
		tick:     time.Second / DefaultTickRate,
		maxDepth: DefaultMaxFlowDepth,
	}
}

// Option configures an Engine.
type Option func(*engineConfig)

// WithLogger sets the engine logger. Traversal and node loggers derive from it.
func WithLogger(logger *slog.Logger) Option {
	return func(c *engineConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithServices sets the collaborators (OSC sender, client state, key
// simulator, variable store) available to nodes.
func WithServices(s Services) Option {
	return func(c *engineConfig) {
		c.services = s
	}
}

// WithSeed makes random nodes reproducible by seeding a dedicated generator.
func WithSeed(seed uint64) Option {
	return func(c *engineConfig) {
		c.random = NewRandom(seed)
	}
}

// WithRandom shares an existing generator.
func WithRandom(r *Random) Option {
	return func(c *engineConfig) {
		if r != nil {
			c.random = r
		}
	}
}

// WithTickRate sets how many times per second Updaters are re-evaluated.
// Default: 60. Values <= 0 are ignored.
func WithTickRate(hz float64) Option {
	return func(c *engineConfig) {
		if hz > 0 {
			c.tick = time.Duration(float64(time.Second) / hz)
		}
	}
}

// WithMaxFlowDepth sets the nested flow limit of each traversal.
// Default: 1000
//
// This stops flow loops that never terminate from exhausting the stack. A
// traversal that exceeds the limit fails with a *MaxFlowDepthError.
func WithMaxFlowDepth(n int) Option {
	return func(c *engineConfig) {
		if n > 0 {
			c.maxDepth = n
		}
	}
}

// WithMetrics enables metrics recording.
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(c *engineConfig) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithTracing enables span creation for traversals and nodes.
func WithTracing(spans observability.SpanManager) Option {
	return func(c *engineConfig) {
		if spans != nil {
			c.spans = spans
		}
	}
}
