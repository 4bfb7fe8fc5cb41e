package main

import (
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/legioncodex100/legion-finance-app-v2-sub001/internal/cli"
	"github.com/legioncodex100/legion-finance-app-v2-sub001/internal/engine"
)

func watchCmd() *cobra.Command {
	var schedule string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run the rule engine on a schedule",
		Long: `Keep the engine running and execute a rule pass on a cron schedule.
Useful alongside an automated statement drop: imports land during the day and
the engine reconciles them on the next tick.

The schedule comes from --schedule or the engine.schedule config key and
accepts standard cron expressions plus @hourly/@daily shorthands.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			if schedule == "" {
				schedule = viper.GetString("engine.schedule")
			}
			if schedule == "" {
				schedule = "@hourly"
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			eng := engine.New(store)

			c := cron.New()
			_, err = c.AddFunc(schedule, func() {
				summary, runErr := eng.Run(ctx)
				if runErr != nil {
					slog.Error("Scheduled rule run failed", "error", runErr)
					return
				}
				slog.Info("Scheduled rule run complete",
					"matched", summary.Matched,
					"auto_applied", summary.AutoApplied,
					"queued", summary.Queued,
					"errors", len(summary.Errors))
			})
			if err != nil {
				return fmt.Errorf("invalid schedule %q: %w", schedule, err)
			}

			//nolint:forbidigo // User-facing output
			fmt.Println(cli.InfoStyle.Render(
				fmt.Sprintf("Watching: rule engine scheduled at %q (ctrl-c to stop)", schedule)))

			c.Start()
			<-ctx.Done()
			<-c.Stop().Done()
			return nil
		},
	}

	cmd.Flags().StringVar(&schedule, "schedule", "", "cron schedule (default from config, then @hourly)")
	return cmd
}
