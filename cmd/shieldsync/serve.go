package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/shieldsync/shieldsync/internal/config"
	httpapp "github.com/shieldsync/shieldsync/internal/http"
	"github.com/shieldsync/shieldsync/internal/importer"
	"github.com/shieldsync/shieldsync/internal/logging"
	"github.com/shieldsync/shieldsync/internal/metrics"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, metrics endpoint, and background auto-import loop.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func runServe() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := logging.BootstrapFromEnv(logging.BootstrapOptions{Command: "serve"})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := buildServices(cfg)
	if err != nil {
		return err
	}

	scheduler := importer.Scheduler{Runner: deps.importer, Interval: cfg.AutoImportInterval}
	go scheduler.Run(ctx)

	_, metricsErrCh := metrics.StartServer(ctx, cfg.MetricsAddr)

	srv, err := httpapp.NewEchoServer(cfg, deps.cache, deps.importer, deps.registry)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.HTTPAddr)
		errCh <- srv.StartServer(httpServer)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-metricsErrCh:
		return err
	}
}
