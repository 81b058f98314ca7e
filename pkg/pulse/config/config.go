// Package config holds the settings of a pulse engine process.
//
// A Config is loaded from YAML or JSON over Default, so files only need the
// keys they change:
//
//	tick_rate: 30
//	log:
//	  level: debug
//	variables:
//	  backend: sqlite
//	  path: pulse.db
//	metrics:
//	  enabled: true
//	  addr: ":9090"
//
// Validate reports every invalid field at once. The helpers Logger,
// OpenVariables and EngineOptions turn a validated Config into the values
// NewEngine takes.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/randalmurphal/pulse/pkg/pulse"
)

// ErrInvalidConfig indicates a field holds an unusable value.
var ErrInvalidConfig = errors.New("invalid config")

// Variable store backends.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Metrics backends.
const (
	MetricsOTel       = "otel"
	MetricsPrometheus = "prometheus"
)

// Log formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config is the process configuration.
type Config struct {
	// TickRate is how many times per second Updaters are evaluated.
	TickRate float64 `yaml:"tick_rate" json:"tick_rate"`
	// Seed makes random nodes deterministic. Nil seeds from the OS.
	Seed         *uint64 `yaml:"seed,omitempty" json:"seed,omitempty"`
	MaxFlowDepth int     `yaml:"max_flow_depth" json:"max_flow_depth"`

	Log       LogConfig       `yaml:"log" json:"log"`
	Variables VariablesConfig `yaml:"variables" json:"variables"`
	Metrics   MetricsConfig   `yaml:"metrics" json:"metrics"`
	Tracing   bool            `yaml:"tracing" json:"tracing"`
}

// LogConfig selects the log level and handler.
type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// VariablesConfig selects where graph variables persist.
type VariablesConfig struct {
	Backend string `yaml:"backend" json:"backend"`
	// Path is the SQLite database file.
	Path string `yaml:"path,omitempty" json:"path,omitempty"`
	// Addr, Password and DB address a Redis server.
	Addr     string `yaml:"addr,omitempty" json:"addr,omitempty"`
	Password string `yaml:"password,omitempty" json:"password,omitempty"`
	DB       int    `yaml:"db,omitempty" json:"db,omitempty"`
	Prefix   string `yaml:"prefix,omitempty" json:"prefix,omitempty"`
	// TTL expires Redis variables, as a duration string ("24h"). Empty keeps them.
	TTL string `yaml:"ttl,omitempty" json:"ttl,omitempty"`
}

// MetricsConfig enables metrics recording.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Backend string `yaml:"backend" json:"backend"`
	// Addr is where the CLI serves /metrics for the prometheus backend.
	Addr string `yaml:"addr" json:"addr"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		TickRate:     60,
		MaxFlowDepth: pulse.DefaultMaxFlowDepth,
		Log:          LogConfig{Level: "info", Format: FormatText},
		Variables:    VariablesConfig{Backend: BackendMemory},
		Metrics:      MetricsConfig{Backend: MetricsPrometheus, Addr: ":9090"},
	}
}

// Validate checks every field and joins all problems into one error.
func (c Config) Validate() error {
	var errs []error
	invalid := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	if c.TickRate <= 0 {
		invalid("tick_rate must be positive, got %v", c.TickRate)
	}
	if c.MaxFlowDepth <= 0 {
		invalid("max_flow_depth must be positive, got %d", c.MaxFlowDepth)
	}

	if _, err := c.LogLevel(); err != nil {
		invalid("log.level %q", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case FormatText, FormatJSON:
	default:
		invalid("log.format %q (want text or json)", c.Log.Format)
	}

	switch c.Variables.Backend {
	case BackendMemory:
	case BackendSQLite:
		if c.Variables.Path == "" {
			invalid("variables.path is required for the sqlite backend")
		}
	case BackendRedis:
		if c.Variables.Addr == "" {
			invalid("variables.addr is required for the redis backend")
		}
	default:
		invalid("variables.backend %q (want memory, sqlite or redis)", c.Variables.Backend)
	}
	if c.Variables.TTL != "" {
		if d, err := time.ParseDuration(c.Variables.TTL); err != nil || d < 0 {
			invalid("variables.ttl %q", c.Variables.TTL)
		}
	}

	if c.Metrics.Enabled {
		switch c.Metrics.Backend {
		case MetricsOTel, MetricsPrometheus:
		default:
			invalid("metrics.backend %q (want otel or prometheus)", c.Metrics.Backend)
		}
	}

	return errors.Join(errs...)
}

// TickInterval converts TickRate to the period between Updater ticks.
func (c Config) TickInterval() time.Duration {
	if c.TickRate <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / c.TickRate)
}
