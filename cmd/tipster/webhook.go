package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/riskibarqy/matchday-tipster/internal/app"
	"github.com/riskibarqy/matchday-tipster/internal/platform/logging"
)

func webhookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webhook",
		Short: "Manage the bot webhook registration",
	}
	cmd.AddCommand(webhookSetCmd())
	cmd.AddCommand(webhookDeleteCmd())
	cmd.AddCommand(webhookInfoCmd())
	return cmd
}

func webhookSetCmd() *cobra.Command {
	var url string
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Register the webhook URL (defaults to TELEGRAM_WEBHOOK_URL)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App, logger *logging.Logger) error {
				target := strings.TrimSpace(url)
				if target == "" {
					target = a.Config().TelegramWebhookURL
				}
				if target == "" {
					return fmt.Errorf("webhook url is required (--url or TELEGRAM_WEBHOOK_URL)")
				}
				if err := a.Sender.SetWebhook(ctx, target); err != nil {
					return err
				}
				logger.Info("webhook registered", "url", target)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&url, "url", "", "Webhook URL")
	return cmd
}

func webhookDeleteCmd() *cobra.Command {
	var dropPending bool
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Remove the webhook registration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App, logger *logging.Logger) error {
				if err := a.Sender.DeleteWebhook(ctx, dropPending); err != nil {
					return err
				}
				logger.Info("webhook removed", "drop_pending", dropPending)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&dropPending, "drop-pending", false, "Drop pending updates")
	return cmd
}

func webhookInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Print the current webhook registration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App, _ *logging.Logger) error {
				info, err := a.Sender.WebhookInfo(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd, info)
			})
		},
	}
}
