package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/brewquest/internal/ports/primary"
	"github.com/example/brewquest/internal/wire"
)

// SubscriberCmd returns the subscriber command
func SubscriberCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subscriber",
		Short: "Manage digest subscribers",
	}

	cmd.AddCommand(subscriberAddCmd())
	cmd.AddCommand(subscriberListCmd())
	cmd.AddCommand(subscriberRemoveCmd())

	return cmd
}

func subscriberAddCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "add [email]",
		Short: "Subscribe an address to the weekly digest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := wire.ContentAdapter().Subscribe(cmd.Context(), primary.SubscribeRequest{
				Email: args[0],
				Name:  name,
			})
			return err
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name used in the greeting")
	return cmd
}

func subscriberListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List subscribers",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := wire.ContentAdapter().ListSubscribers(cmd.Context())
			return err
		},
	}
}

func subscriberRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove [email]",
		Short: "Stop sending digests to an address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return wire.ContentAdapter().Unsubscribe(cmd.Context(), args[0])
		},
	}
}
