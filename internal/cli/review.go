package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/brewquest/internal/ports/primary"
	"github.com/example/brewquest/internal/wire"
)

// ReviewCmd returns the review command
func ReviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Manage daily beer reviews",
		Long:  `Schedule one review per day of a state's week. The daily publish job posts them.`,
	}

	cmd.AddCommand(reviewAddCmd())
	cmd.AddCommand(reviewListCmd())

	return cmd
}

func reviewAddCmd() *cobra.Command {
	var (
		stateCode string
		day       int
		brewery   string
		style     string
		rating    float64
	)

	cmd := &cobra.Command{
		Use:   "add [beer name]",
		Short: "Schedule a draft review",
		Long: `Schedule a draft review for one day (1-7) of a state's week.

Examples:
  brewquest review add "Snake Handler" --state AL --day 1 --brewery "Good People Brewing"
  brewquest review add "Ghost Train" --state AL --day 2 --brewery Cahaba --style "Pale Ale" --rating 4.5`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := validateStateCode(stateCode)
			if err != nil {
				return err
			}
			if code == "" {
				return fmt.Errorf("--state is required")
			}

			_, err = wire.ContentAdapter().AddReview(cmd.Context(), primary.AddReviewRequest{
				StateCode: code,
				DayNumber: day,
				BeerName:  args[0],
				Brewery:   brewery,
				Style:     style,
				Rating:    rating,
			})
			return err
		},
	}

	cmd.Flags().StringVar(&stateCode, "state", "", "State code (required)")
	cmd.Flags().IntVar(&day, "day", 0, "Day of the state's week, 1-7 (required)")
	cmd.Flags().StringVar(&brewery, "brewery", "", "Brewery name (required)")
	cmd.Flags().StringVar(&style, "style", "", "Beer style")
	cmd.Flags().Float64Var(&rating, "rating", 0, "Rating from 0 to 5")
	cmd.MarkFlagRequired("day")
	cmd.MarkFlagRequired("brewery")
	return cmd
}

func reviewListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [state code]",
		Short: "List a state's reviews",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := validateStateCode(args[0])
			if err != nil {
				return err
			}
			_, err = wire.ContentAdapter().ListReviews(cmd.Context(), code)
			return err
		},
	}
}
