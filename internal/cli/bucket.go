package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/wwtest625/scoop-ui/internal/app"
)

func newBucketCommand(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bucket",
		Short: "Manage buckets",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List configured buckets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return s.withApp(cmd, func(ctx context.Context, a *app.App) error {
				printBuckets(cmd.OutOrStdout(), a.Gateway.ListBuckets(ctx))
				return nil
			})
		},
	})
	cmd.AddCommand(messageCommand(s, "add <name> [url]", "Add a known or custom bucket", cobra.RangeArgs(1, 2),
		func(ctx context.Context, a *app.App, args []string) (string, error) {
			url := ""
			if len(args) == 2 {
				url = args[1]
			}
			return a.Gateway.AddBucket(ctx, args[0], url)
		}))
	cmd.AddCommand(messageCommand(s, "rm <name>", "Remove a bucket", cobra.ExactArgs(1),
		func(ctx context.Context, a *app.App, args []string) (string, error) {
			return a.Gateway.RemoveBucket(ctx, args[0])
		}))
	return cmd
}
