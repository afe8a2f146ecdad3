package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/brewquest/internal/wire"
)

// EventsCmd returns the events command
func EventsCmd() *cobra.Command {
	var (
		eventType string
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "events",
		Short: "List recent analytics events",
		Long: `List analytics events recorded by the weekly transition and the daily
publish, newest first.

Examples:
  brewquest events
  brewquest events --type state_transition -n 5`,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := wire.ContentAdapter().ListEvents(cmd.Context(), eventType, limit)
			return err
		},
	}

	cmd.Flags().StringVarP(&eventType, "type", "t", "", "Filter by event type")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of events to show")
	return cmd
}
