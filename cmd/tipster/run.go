package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/riskibarqy/matchday-tipster/internal/app"
	"github.com/riskibarqy/matchday-tipster/internal/domain/content"
	"github.com/riskibarqy/matchday-tipster/internal/domain/settings"
	"github.com/riskibarqy/matchday-tipster/internal/platform/logging"
)

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Post one piece of content now, bypassing the schedule",
	}
	cmd.AddCommand(runActionCmd("predictions", "Post predictions for upcoming matches", func(ctx context.Context, a *app.App) (content.Receipt, error) {
		return a.Automation.RunPredictionsNow(ctx)
	}))
	cmd.AddCommand(runActionCmd("results", "Post yesterday's results", func(ctx context.Context, a *app.App) (content.Receipt, error) {
		return a.Automation.RunResultsNow(ctx)
	}))
	cmd.AddCommand(runActionCmd("hype", "Post today's matchday hype", func(ctx context.Context, a *app.App) (content.Receipt, error) {
		return a.Automation.RunHypeNow(ctx)
	}))
	cmd.AddCommand(runPromoCmd())
	cmd.AddCommand(runBonusCmd())
	return cmd
}

func runActionCmd(use, short string, action func(ctx context.Context, a *app.App) (content.Receipt, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAction(cmd, use, action)
		},
	}
}

func runAction(cmd *cobra.Command, name string, action func(ctx context.Context, a *app.App) (content.Receipt, error)) error {
	return withApp(cmd, func(ctx context.Context, a *app.App, logger *logging.Logger) error {
		receipt, err := action(ctx, a)
		if err != nil {
			return fmt.Errorf("run %s: %w", name, err)
		}
		logger.Info("manual post sent", "kind", receipt.Kind, "message_id", receipt.MessageID)
		return printJSON(cmd, receipt)
	})
}

func runPromoCmd() *cobra.Command {
	var slot string
	cmd := &cobra.Command{
		Use:   "promo",
		Short: "Post the promo code for a time slot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := settings.ParseSlot(slot)
			if err != nil {
				return err
			}
			return runAction(cmd, "promo", func(ctx context.Context, a *app.App) (content.Receipt, error) {
				return a.Automation.RunPromoNow(ctx, parsed)
			})
		},
	}
	cmd.Flags().StringVar(&slot, "slot", string(settings.SlotMorning), "Slot (morning, afternoon, evening)")
	return cmd
}

func runBonusCmd() *cobra.Command {
	var text string
	cmd := &cobra.Command{
		Use:   "bonus",
		Short: "Post a free-text bonus announcement",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAction(cmd, "bonus", func(ctx context.Context, a *app.App) (content.Receipt, error) {
				return a.Automation.RunBonusNow(ctx, text)
			})
		},
	}
	cmd.Flags().StringVar(&text, "text", "", "Bonus text")
	_ = cmd.MarkFlagRequired("text")
	return cmd
}
