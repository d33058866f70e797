// Command tipster posts football predictions, results and promos to a
// Telegram channel on a cron grid.
//
// Usage:
//
//	tipster serve
//	tipster run predictions
//	tipster run promo --slot evening
//	tipster run bonus --text "Double points this weekend"
//	tipster webhook set --url https://tips.example.com/telegram
//	tipster timings
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bytedance/sonic"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/riskibarqy/matchday-tipster/internal/app"
	"github.com/riskibarqy/matchday-tipster/internal/config"
	"github.com/riskibarqy/matchday-tipster/internal/platform/logging"
)

func main() {
	_ = godotenv.Load(".env")

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "tipster",
		Short:         "Matchday tipster channel poster",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(serveCmd())
	root.AddCommand(runCmd())
	root.AddCommand(webhookCmd())
	root.AddCommand(timingsCmd())
	return root
}

func newLogger(cfg config.Config) *logging.Logger {
	var logger *logging.Logger
	if cfg.AppEnv == config.EnvDev {
		logger = logging.NewConsole(cfg.LogLevel)
	} else {
		logger = logging.NewJSON(cfg.LogLevel)
	}
	logger = logger.With("service", cfg.ServiceName, "env", cfg.AppEnv)
	logging.SetDefault(logger)
	return logger
}

// withApp loads config, wires the app and hands it to fn. The app is closed
// once fn returns.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App, logger *logging.Logger) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("build app: %w", err)
	}
	defer func() {
		if err := a.Close(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("close app failed", "error", err)
		}
	}()

	return fn(ctx, a, logger)
}

func printJSON(cmd *cobra.Command, value any) error {
	body, err := sonic.ConfigStd.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(body))
	return err
}
