package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/riskibarqy/matchday-tipster/internal/app"
	"github.com/riskibarqy/matchday-tipster/internal/platform/logging"
)

func timingsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "timings",
		Short: "Print today's kickoff-based posting plan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App, _ *logging.Logger) error {
				snapshot, err := a.Automation.Timings(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd, snapshot)
			})
		},
	}
}
