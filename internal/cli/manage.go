package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/wwtest625/scoop-ui/internal/app"
)

// messageCommand builds a command around a propagating gateway call that
// answers with a human-readable message.
func messageCommand(s *session, use, short string, args cobra.PositionalArgs, call func(ctx context.Context, a *app.App, args []string) (string, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.withApp(cmd, func(ctx context.Context, a *app.App) error {
				msg, err := call(ctx, a, args)
				if err != nil {
					return backendFailure(err)
				}
				printMessage(cmd.OutOrStdout(), msg)
				return nil
			})
		},
	}
}

func newInstallCommand(s *session) *cobra.Command {
	return messageCommand(s, "install <app>", "Install an app", cobra.ExactArgs(1),
		func(ctx context.Context, a *app.App, args []string) (string, error) {
			return a.Gateway.InstallApp(ctx, args[0])
		})
}

func newUninstallCommand(s *session) *cobra.Command {
	return messageCommand(s, "uninstall <app>", "Uninstall an app", cobra.ExactArgs(1),
		func(ctx context.Context, a *app.App, args []string) (string, error) {
			return a.Gateway.UninstallApp(ctx, args[0])
		})
}

func newUpdateManagerCommand(s *session) *cobra.Command {
	return messageCommand(s, "update-manager", "Update Scoop itself", cobra.NoArgs,
		func(ctx context.Context, a *app.App, _ []string) (string, error) {
			return a.Gateway.UpdateManager(ctx)
		})
}

func newCheckUpdatesCommand(s *session) *cobra.Command {
	return messageCommand(s, "check-updates", "Ask the engine to start an update check", cobra.NoArgs,
		func(ctx context.Context, a *app.App, _ []string) (string, error) {
			return a.Gateway.CheckUpdatesAsync(ctx)
		})
}

type updateOptions struct {
	All bool
}

func newUpdateCommand(s *session) *cobra.Command {
	opts := updateOptions{}
	cmd := &cobra.Command{
		Use:   "update [app]",
		Short: "Update one app, or every app with --all",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case opts.All && len(args) > 0:
				return invalidArgument("pass either an app name or --all, not both")
			case !opts.All && len(args) == 0:
				return invalidArgument("an app name or --all is required")
			}
			return s.withApp(cmd, func(ctx context.Context, a *app.App) error {
				var (
					msg string
					err error
				)
				if opts.All {
					msg, err = a.Gateway.UpdateAllApps(ctx)
				} else {
					msg, err = a.Gateway.UpdateApp(ctx, args[0])
				}
				if err != nil {
					return backendFailure(err)
				}
				printMessage(cmd.OutOrStdout(), msg)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&opts.All, "all", false, "Update every installed app")
	return cmd
}
