package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/brewquest/internal/cli"
	"github.com/example/brewquest/internal/core/journey"
	"github.com/example/brewquest/internal/version"
	"github.com/example/brewquest/internal/wire"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:     "brewquest",
		Short:   "BrewQuest - one state, one week, one beer a day",
		Version: version.String(),
		Long: `BrewQuest runs the weekly journey through the 50 states: it advances the
current state once a week, publishes the day's beer review, archives old
posts and emails the weekly digest.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			wire.SetConfigPath(configPath)
		},
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: ./brewquest.yaml)")

	rootCmd.AddCommand(cli.InitCmd())
	rootCmd.AddCommand(cli.ServeCmd())
	rootCmd.AddCommand(cli.JourneyCmd())
	rootCmd.AddCommand(cli.CronCmd())

	// Content commands
	rootCmd.AddCommand(cli.SubscriberCmd())
	rootCmd.AddCommand(cli.ReviewCmd())
	rootCmd.AddCommand(cli.PostCmd())
	rootCmd.AddCommand(cli.EventsCmd())

	rootCmd.AddCommand(cli.VersionCmd())

	err := rootCmd.Execute()
	if closeErr := wire.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		if kind := journey.KindOf(err); kind != journey.KindInternal {
			fmt.Fprintf(os.Stderr, "Error (%s): %v\n", kind, err)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
