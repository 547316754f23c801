package cli

import (
	"context"
	"fmt"
	"slices"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/wwtest625/scoop-ui/internal/app"
	"github.com/wwtest625/scoop-ui/internal/scoop"
)

func newAppsCommand(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "apps",
		Short: "List installed apps as reported by the engine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return s.withApp(cmd, func(ctx context.Context, a *app.App) error {
				printApps(cmd.OutOrStdout(), a.Gateway.ListInstalledApps(ctx))
				return nil
			})
		},
	}
}

type searchOptions struct {
	Local bool
}

func newSearchCommand(s *session) *cobra.Command {
	opts := searchOptions{}
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search apps in the configured buckets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.withApp(cmd, func(ctx context.Context, a *app.App) error {
				var hits []scoop.SearchHit
				if opts.Local {
					hits = a.Gateway.SearchLocal(ctx, args[0])
				} else {
					hits = a.Gateway.SearchRemote(ctx, args[0])
				}
				printHits(cmd.OutOrStdout(), hits)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&opts.Local, "local", false, "Search the local bucket checkouts only")
	return cmd
}

func newInstalledCommand(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "installed <app>",
		Short: "Report whether an app is installed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.withApp(cmd, func(ctx context.Context, a *app.App) error {
				if a.Gateway.IsInstalled(ctx, args[0]) {
					fmt.Fprintf(cmd.OutOrStdout(), "%s is installed\n", args[0])
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "%s is not installed\n", args[0])
				}
				return nil
			})
		},
	}
}

func newSizesCommand(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "sizes <app>...",
		Short: "Show the on-disk size of installed apps",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.withApp(cmd, func(ctx context.Context, a *app.App) error {
				sizes := a.Gateway.InstallSizes(ctx, args)
				names := make([]string, 0, len(sizes))
				for name := range sizes {
					names = append(names, name)
				}
				slices.Sort(names)

				rows := make([][]string, 0, len(names))
				for _, name := range names {
					rows = append(rows, []string{name, humanize.IBytes(sizes[name])})
				}
				if len(rows) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "no sizes reported")
					return nil
				}
				printTable(cmd.OutOrStdout(), []string{"NAME", "SIZE"}, rows)
				return nil
			})
		},
	}
}

type depsOptions struct {
	Bucket string
}

func newDepsCommand(s *session) *cobra.Command {
	opts := depsOptions{}
	cmd := &cobra.Command{
		Use:   "deps <app>",
		Short: "List the dependencies of an app",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.withApp(cmd, func(ctx context.Context, a *app.App) error {
				deps := a.Gateway.Dependencies(ctx, args[0], opts.Bucket)
				if len(deps) == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "%s has no dependencies\n", args[0])
					return nil
				}
				for _, dep := range deps {
					fmt.Fprintln(cmd.OutOrStdout(), dep)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&opts.Bucket, "bucket", "", "Bucket to resolve the app from")
	return cmd
}
