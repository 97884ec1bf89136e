package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"workerd/internal/config"
	"workerd/internal/jobmanager"
	"workerd/internal/jobmanager/cgroups"
	"workerd/internal/logging"
	"workerd/internal/observability"
	"workerd/internal/server"
)

func rootCmd() *cobra.Command {
	var configPath string

	c := &cobra.Command{
		Use:     "workerd",
		Short:   "gRPC server for executing arbitrary Linux commands in isolated workers",
		Example: "workerd --config /etc/workerd/config.yaml",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			applyFlagOverrides(cmd, cfg)

			if err := cfg.Sanitize(); err != nil {
				return err
			}

			return runServer(cmd.Context(), cfg)
		},
	}

	c.Flags().StringVar(&configPath, "config", "", "Path to YAML config file")
	c.Flags().String("host", "", "Host to bind")
	c.Flags().Int("port", 8443, "gRPC server port")
	c.Flags().String("cert-path", "certs/server.crt", "Path to server certificate")
	c.Flags().String("key-path", "certs/server.key", "Path to server private key")
	c.Flags().String("ca-cert-path", "certs/ca.crt", "Path to CA certificate for mTLS")
	c.Flags().String("init-path", "", "Path to the workerd-init helper binary")
	c.Flags().String("metrics-addr", "", "Prometheus listen address, empty to disable")
	c.Flags().Bool("debug", false, "Enable debug logs")

	return c
}

// applyFlagOverrides layers explicitly-set flags on top of the loaded
// config, so flags win over environment and file.
func applyFlagOverrides(cmd *cobra.Command, cfg *config.Server) {
	flags := cmd.Flags()

	if flags.Changed("host") {
		cfg.Host, _ = flags.GetString("host")
	}

	if flags.Changed("port") {
		cfg.Port, _ = flags.GetInt("port")
	}

	if flags.Changed("cert-path") {
		cfg.CertPath, _ = flags.GetString("cert-path")
	}

	if flags.Changed("key-path") {
		cfg.KeyPath, _ = flags.GetString("key-path")
	}

	if flags.Changed("ca-cert-path") {
		cfg.CACertPath, _ = flags.GetString("ca-cert-path")
	}

	if flags.Changed("init-path") {
		cfg.InitPath, _ = flags.GetString("init-path")
	}

	if flags.Changed("metrics-addr") {
		cfg.MetricsAddr, _ = flags.GetString("metrics-addr")
	}

	if debug, _ := flags.GetBool("debug"); debug {
		cfg.LogLevel = "debug"
	}
}

func runServer(ctx context.Context, cfg *config.Server) error {
	logger, err := logging.New(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})
	if err != nil {
		return err
	}
	defer logger.Sync()

	var metrics *observability.Metrics
	var registry *prometheus.Registry

	if cfg.MetricsAddr != "" {
		registry = prometheus.NewRegistry()
		metrics = observability.NewMetrics(registry)
	}

	manager, err := jobmanager.NewManager(jobmanager.Config{
		HelperPath: cfg.InitPath,
		CgroupRoot: cfg.CgroupRoot,
		Limits: cgroups.Limits{
			CPUMaxPercent:    cfg.CPUMaxPercent,
			MemoryMaxBytes:   cfg.MemoryMaxBytes,
			IOMaxBytesPerSec: cfg.IOMaxBytesPerSec,
		},
		StopGrace: cfg.StopGrace,
	}, logger, metrics)
	if err != nil {
		return err
	}

	srv := server.New(manager, logger, cfg)

	listener, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGTERM, os.Interrupt)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("serving", zap.String("addr", listener.Addr().String()))
		return srv.Serve(listener)
	})

	var metricsServer *http.Server
	if registry != nil {
		metricsServer = &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: observability.Handler(registry),
		}

		g.Go(func() error {
			logger.Info("serving metrics", zap.String("addr", cfg.MetricsAddr))

			if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
				return err
			}

			return nil
		})
	}

	g.Go(func() error {
		<-ctx.Done()

		logger.Info("shutting down")

		srv.Shutdown()
		manager.Shutdown()

		if metricsServer != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			metricsServer.Shutdown(shutdownCtx)
		}

		return nil
	})

	return g.Wait()
}
