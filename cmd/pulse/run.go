package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/randalmurphal/pulse/pkg/pulse"
	"github.com/randalmurphal/pulse/pkg/pulse/config"
	"github.com/randalmurphal/pulse/pkg/pulse/definition"
	"github.com/randalmurphal/pulse/pkg/pulse/nodes"
)

const shutdownTimeout = 5 * time.Second

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <graph>",
		Short: "Run a graph until interrupted",
		Long: `Builds the graph definition and starts the engine. Avatar parameters the
graph sends are written to the log. Stops on SIGINT or SIGTERM.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runGraph(ctx, cfg, args[0])
		},
	}
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		return config.Default(), nil
	}
	return config.FromFile(path)
}

// runGraph blocks until ctx is done.
func runGraph(ctx context.Context, cfg config.Config, path string) error {
	logger := cfg.Logger(os.Stderr)

	g, err := definition.LoadGraph(path, nodes.Default())
	if err != nil {
		return fmt.Errorf("load graph: %w", err)
	}

	vars, err := cfg.OpenVariables()
	if err != nil {
		return err
	}
	defer func() {
		if err := vars.Close(); err != nil {
			logger.Warn("close variable store", "error", err)
		}
	}()

	reg := prometheus.NewRegistry()
	opts, err := cfg.EngineOptions(logger, reg)
	if err != nil {
		return err
	}
	opts = append(opts, pulse.WithServices(pulse.Services{
		Parameters: &logSender{logger: logger},
		Variables:  vars,
	}))

	if cfg.Metrics.Enabled && cfg.Metrics.Backend == config.MetricsPrometheus {
		srv := serveMetrics(cfg.Metrics.Addr, reg, logger)
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(sctx); err != nil {
				logger.Warn("metrics server shutdown", "error", err)
			}
		}()
	}

	e := pulse.NewEngine(g, opts...)
	if err := e.Start(ctx); err != nil {
		return err
	}
	logger.Info("graph running", "graph", path, "nodes", g.Len())

	<-ctx.Done()
	logger.Info("shutting down")
	e.Stop()
	return nil
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: shutdownTimeout}

	go func() {
		logger.Info("serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()
	return srv
}

// logSender stands in for the OSC transport: it validates and logs every
// parameter the graph sends.
type logSender struct {
	logger *slog.Logger
}

func (s *logSender) SendParameter(address string, value any) error {
	if err := pulse.CheckParameterValue(value); err != nil {
		return err
	}
	s.logger.Info("send parameter", "address", address, "value", value)
	return nil
}
