package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/elfiee/elfiee/internal/log"
	"github.com/elfiee/elfiee/internal/metrics"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Keep an archive's engine running and serve Prometheus metrics",
	Long: `serve opens (or creates) the archive, keeps its engine actor
running, and blocks until interrupted. The archive is saved back to disk
on a clean shutdown (SIGINT or SIGTERM).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireArchiveFlag(); err != nil {
			return err
		}
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		s, err := openSession(archivePath)
		if err != nil {
			return err
		}

		metrics.EnginesRunning.Inc()
		defer metrics.EnginesRunning.Dec()

		serveLog := log.WithComponent("serve")

		var srv *http.Server
		if cfg.Metrics.Enabled {
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			srv = &http.Server{Addr: cfg.Metrics.Addr, Handler: mux}
			go func() {
				serveLog.Info().Str("addr", cfg.Metrics.Addr).Msg("metrics endpoint listening")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serveLog.Error().Err(err).Msg("metrics server exited")
				}
			}()
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		serveLog.Info().Str("archive", archivePath).Msg("engine running, waiting for shutdown signal")
		<-ctx.Done()

		serveLog.Info().Msg("shutdown signal received, saving archive")
		if srv != nil {
			_ = srv.Shutdown(context.Background())
		}
		return s.saveAndClose(archivePath)
	},
}
