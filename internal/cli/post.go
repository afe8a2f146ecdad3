package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/brewquest/internal/ports/primary"
	"github.com/example/brewquest/internal/wire"
)

// PostCmd returns the post command
func PostCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "post",
		Short: "Manage social posts",
		Long:  `Record social posts. Posts older than 30 days are archived by the weekly transition.`,
	}

	cmd.AddCommand(postAddCmd())
	cmd.AddCommand(postListCmd())

	return cmd
}

func postAddCmd() *cobra.Command {
	var (
		stateCode string
		platform  string
		status    string
	)

	cmd := &cobra.Command{
		Use:   "add [content]",
		Short: "Record a social post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := validateStateCode(stateCode)
			if err != nil {
				return err
			}
			_, err = wire.ContentAdapter().AddPost(cmd.Context(), primary.AddPostRequest{
				StateCode: code,
				Platform:  platform,
				Content:   args[0],
				Status:    status,
			})
			return err
		},
	}

	cmd.Flags().StringVar(&stateCode, "state", "", "State code the post is about")
	cmd.Flags().StringVarP(&platform, "platform", "p", "instagram", "Platform the post went out on")
	cmd.Flags().StringVar(&status, "status", "", "Post status (default: scheduled)")
	return cmd
}

func postListCmd() *cobra.Command {
	var (
		stateCode string
		status    string
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List posts, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := validateStateCode(stateCode)
			if err != nil {
				return err
			}
			_, err = wire.ContentAdapter().ListPosts(cmd.Context(), primary.PostFilters{
				StateCode: code,
				Status:    status,
				Limit:     limit,
			})
			return err
		},
	}

	cmd.Flags().StringVar(&stateCode, "state", "", "Filter by state code")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status")
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum posts to show")
	return cmd
}
