package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/example/brewquest/internal/ctxutil"
	"github.com/example/brewquest/internal/telemetry"
	"github.com/example/brewquest/internal/wire"
)

// CronCmd returns the cron command
func CronCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cron",
		Short: "Run a scheduled job once",
		Long: `Run the weekly transition or the daily publish once, exactly as the
scheduler or the HTTP cron endpoint would. Useful from system cron.`,
	}

	cmd.AddCommand(cronJobCmd("weekly", "Run the weekly state transition", func(cmd *cobra.Command, now time.Time) error {
		_, err := wire.JourneyAdapter().Advance(cmd.Context(), now)
		return err
	}))
	cmd.AddCommand(cronJobCmd("daily", "Publish today's review", func(cmd *cobra.Command, now time.Time) error {
		_, err := wire.PublishAdapter().Daily(cmd.Context(), now)
		return err
	}))

	return cmd
}

func cronJobCmd(name, short string, run func(cmd *cobra.Command, now time.Time) error) *cobra.Command {
	var nowFlag string

	cmd := &cobra.Command{
		Use:   name,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			now, err := invocationTime(nowFlag, time.Now)
			if err != nil {
				return err
			}
			ctx := ctxutil.WithTrigger(cmd.Context(), ctxutil.TriggerScheduler)
			ctx = telemetry.WithRunID(ctx, "")
			cmd.SetContext(ctx)
			return run(cmd, now)
		},
	}

	cmd.Flags().StringVar(&nowFlag, "now", "", "Invocation time (RFC3339, default: now)")
	return cmd
}
