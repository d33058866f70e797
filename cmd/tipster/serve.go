package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/riskibarqy/matchday-tipster/internal/app"
	"github.com/riskibarqy/matchday-tipster/internal/config"
	"github.com/riskibarqy/matchday-tipster/internal/observability"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the scheduler and the admin HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := newLogger(cfg)
			defer func() { _ = logger.Sync() }()

			shutdownTracing, err := observability.InitUptrace(cfg, logger)
			if err != nil {
				return fmt.Errorf("init uptrace: %w", err)
			}
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdownTracing(ctx); err != nil {
					logger.Warn("uptrace shutdown failed", "error", err)
				}
			}()

			stopProfiling, err := observability.InitPyroscope(cfg, logger)
			if err != nil {
				return fmt.Errorf("init pyroscope: %w", err)
			}
			defer func() {
				if err := stopProfiling(); err != nil {
					logger.Warn("pyroscope stop failed", "error", err)
				}
			}()

			pprofServer, err := observability.StartPprofServer(cfg, logger)
			if err != nil {
				return fmt.Errorf("start pprof: %w", err)
			}
			defer func() {
				if err := observability.StopPprofServer(pprofServer, logger, 5*time.Second); err != nil {
					logger.Warn("pprof stop failed", "error", err)
				}
			}()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := app.New(ctx, cfg, logger)
			if err != nil {
				return fmt.Errorf("build app: %w", err)
			}
			return a.Serve(ctx)
		},
	}
}
