package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/brewquest/internal/ctxutil"
	"github.com/example/brewquest/internal/db"
	"github.com/example/brewquest/internal/ports/primary"
	"github.com/example/brewquest/internal/wire"
)

// JourneyCmd returns the journey command
func JourneyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journey",
		Short: "Manage the weekly state journey",
		Long:  `Seed, start, inspect and advance the 50-week journey through the states.`,
	}

	cmd.AddCommand(journeySeedCmd())
	cmd.AddCommand(journeyStartCmd())
	cmd.AddCommand(journeyCurrentCmd())
	cmd.AddCommand(journeyListCmd())
	cmd.AddCommand(journeyProgressCmd())
	cmd.AddCommand(journeyVerifyCmd())
	cmd.AddCommand(journeyHistoryCmd())
	cmd.AddCommand(journeyAdvanceCmd())

	return cmd
}

func journeySeedCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert every state in upcoming status",
		Long: `Seed the journey schedule. Without --file the built-in 50 state
schedule is used. A custom CSV needs a week,code,name header and may add
capital and region columns.

Examples:
  brewquest journey seed
  brewquest journey seed --file schedule.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			seeds, err := loadSeeds(file)
			if err != nil {
				return err
			}
			_, err = wire.JourneyAdapter().Seed(cmd.Context(), toSeedStates(seeds))
			return err
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Schedule CSV (default: built-in 50 states)")
	return cmd
}

func journeyStartCmd() *cobra.Command {
	var nowFlag string

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Make week one current",
		RunE: func(cmd *cobra.Command, args []string) error {
			now, err := invocationTime(nowFlag, time.Now)
			if err != nil {
				return err
			}
			_, err = wire.JourneyAdapter().Start(cmd.Context(), now)
			return err
		},
	}

	cmd.Flags().StringVar(&nowFlag, "now", "", "Start time (RFC3339, default: now)")
	return cmd
}

func journeyCurrentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "current",
		Short: "Show the current state",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := wire.JourneyAdapter().Current(cmd.Context())
			return err
		},
	}
}

func journeyListCmd() *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List states by week",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateStatus(status); err != nil {
				return err
			}
			_, err := wire.JourneyAdapter().List(cmd.Context(), status)
			return err
		},
	}

	cmd.Flags().StringVarP(&status, "status", "s", "", "Filter by status (upcoming, current, completed)")
	return cmd
}

func journeyProgressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "progress",
		Short: "Show journey progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := wire.JourneyAdapter().Progress(cmd.Context())
			return err
		},
	}
}

func journeyVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check journey invariants without changing anything",
		Long: `Verify that at most one state is current, completed states precede
the current one, and every completed state has a completion date.
Exits non-zero when a violation is found.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := wire.JourneyAdapter().Verify(cmd.Context())
			return err
		},
	}
}

func journeyHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent weekly transition runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := wire.JourneyAdapter().History(cmd.Context(), limit)
			return err
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show")
	return cmd
}

func journeyAdvanceCmd() *cobra.Command {
	var nowFlag string

	cmd := &cobra.Command{
		Use:   "advance",
		Short: "Run the weekly transition once",
		Long: `Run the weekly transition now. It is safe to run repeatedly: nothing
changes until a full week has passed since the current state started.

Examples:
  brewquest journey advance
  brewquest journey advance --now 2026-03-09T09:00:00Z`,
		RunE: func(cmd *cobra.Command, args []string) error {
			now, err := invocationTime(nowFlag, time.Now)
			if err != nil {
				return err
			}
			ctx := ctxutil.WithTrigger(cmd.Context(), ctxutil.TriggerCLI)
			_, err = wire.JourneyAdapter().Advance(ctx, now)
			return err
		},
	}

	cmd.Flags().StringVar(&nowFlag, "now", "", "Invocation time (RFC3339, default: now)")
	return cmd
}

// loadSeeds reads a schedule CSV, or the built-in schedule when path is empty.
func loadSeeds(path string) ([]db.StateSeed, error) {
	if path == "" {
		return db.DefaultStateSeeds()
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open schedule: %w", err)
	}
	defer f.Close()

	return db.LoadStateSeeds(f)
}

func toSeedStates(seeds []db.StateSeed) []primary.SeedState {
	states := make([]primary.SeedState, len(seeds))
	for i, s := range seeds {
		states[i] = primary.SeedState{
			WeekNumber: s.WeekNumber,
			Code:       s.Code,
			Name:       s.Name,
			Capital:    s.Capital,
			Region:     s.Region,
		}
	}
	return states
}
