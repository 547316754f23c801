package cli

import (
	"context"
	"fmt"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/spf13/cobra"

	"github.com/wwtest625/scoop-ui/internal/app"
	"github.com/wwtest625/scoop-ui/internal/scoop"
)

func newCacheCommand(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or reset the local snapshot",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the cached apps and buckets without contacting the engine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return s.withApp(cmd, func(ctx context.Context, a *app.App) error {
				snap := a.Snapshots.Load(ctx)
				out := cmd.OutOrStdout()
				printApps(out, snap.Apps)
				printBuckets(out, snap.Buckets)
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Replace the cached lists with empty ones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return s.withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := a.Snapshots.SaveErr(ctx, []scoop.InstalledApp{}, []scoop.Bucket{}); err != nil {
					return errbuilder.New().
						WithCode(errbuilder.CodeInternal).
						WithMsg("failed to clear snapshot").
						WithCause(err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "snapshot cleared")
				return nil
			})
		},
	})
	return cmd
}
