package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/liunian321/local-mcp-servers/pkg/config"
	"github.com/liunian321/local-mcp-servers/pkg/logging"
	"github.com/liunian321/local-mcp-servers/pkg/netprobe"
	"github.com/liunian321/local-mcp-servers/pkg/observability"
	"github.com/liunian321/local-mcp-servers/pkg/server"
	"github.com/liunian321/local-mcp-servers/pkg/tools"
)

// flag name to config key
var flagKeys = map[string]string{
	"port":      "listen_port",
	"host":      "listen_host",
	"log-level": "log.level",
}

// RootCmd builds the server command
func RootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "local-mcp-servers",
		Short:         "Serve local system and network tools over MCP JSON-RPC",
		Version:       server.DefaultVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			v := config.New(configPath)
			if err := bindFlags(v, cmd.Flags()); err != nil {
				return err
			}

			cfg, err := config.LoadFrom(v)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg, os.Stdout)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to the YAML config file (default ./config.yaml)")
	cmd.Flags().Int("port", 0, "listen port, overrides listen_port")
	cmd.Flags().String("host", "", "listen host, overrides listen_host")
	cmd.Flags().String("log-level", "", "log level: debug, info, warn or error")
	return cmd
}

// bindFlags lets explicitly set flags override the file and environment
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for flag, key := range flagKeys {
		f := flags.Lookup(flag)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", flag, err)
		}
	}
	return nil
}

// app holds everything run wires together
type app struct {
	server  *server.Server
	tracing *observability.TracingProvider
	logger  logging.Logger
}

func newApp(cfg *config.Config, logOutput io.Writer) (*app, error) {
	logger, err := logging.NewWithOptions(logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: logOutput,
	})
	if err != nil {
		return nil, err
	}

	tracing, err := observability.NewTracingProvider(cfg.TracingProviderConfig(server.DefaultName, server.DefaultVersion))
	if err != nil {
		return nil, fmt.Errorf("failed to start tracing: %w", err)
	}

	var metrics observability.MetricsProvider = observability.NoopMetricsProvider{}
	var serverOpts []server.ServerOption
	if cfg.Metrics.Enabled {
		prom, err := observability.NewMetricsProvider(observability.MetricsConfig{
			ServiceName:    server.DefaultName,
			ServiceVersion: server.DefaultVersion,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create metrics: %w", err)
		}
		metrics = prom
		serverOpts = append(serverOpts, server.WithMetrics(prom))
	}

	probeOpts := append(cfg.ProbeOptions(),
		netprobe.WithMetrics(metrics),
		netprobe.WithTracing(tracing),
		netprobe.WithLogger(logger),
	)

	registry := tools.Default(
		tools.Options{
			Prober:      netprobe.New(probeOpts...),
			MaxFileSize: cfg.Tools.MaxFileSize,
		},
		tools.WithMetrics(metrics),
		tools.WithTracing(tracing),
		tools.WithLogger(logger),
	)

	serverOpts = append(serverOpts,
		server.WithTracing(tracing),
		server.WithLogger(logger),
		server.WithShutdownTimeout(cfg.ShutdownTimeout),
	)

	return &app{
		server:  server.New(registry, serverOpts...),
		tracing: tracing,
		logger:  logger,
	}, nil
}

func run(ctx context.Context, cfg *config.Config, logOutput io.Writer) error {
	a, err := newApp(cfg, logOutput)
	if err != nil {
		return err
	}

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.tracing.Shutdown(shutdownCtx); err != nil {
			a.logger.Warn("Tracing shutdown failed", logging.ErrorField(err))
		}
	}()

	return a.server.ListenAndServe(ctx, cfg.Addr())
}
