package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/spf13/cobra"

	"github.com/wwtest625/scoop-ui/internal/app"
	"github.com/wwtest625/scoop-ui/internal/logging"
)

func newSyncCommand(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Refresh the local snapshot from the engine and print the result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return s.withApp(cmd, func(ctx context.Context, a *app.App) error {
				err := a.Syncer.Initialize(ctx)
				a.Syncer.WaitBackground()

				snap := a.State.Snapshot()
				out := cmd.OutOrStdout()
				printApps(out, snap.Apps)
				if err != nil {
					return backendFailure(err)
				}
				fmt.Fprintf(out, "synchronized %d apps and %d buckets\n", len(snap.Apps), len(snap.Buckets))
				return nil
			})
		},
	}
}

type watchOptions struct {
	PrefsPath string
}

func newWatchCommand(s *session) *cobra.Command {
	opts := watchOptions{}
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Open the full-screen view",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := s.cfg
			if err := os.MkdirAll(cfg.SnapshotDir, 0o755); err != nil {
				return errbuilder.New().
					WithCode(errbuilder.CodeInternal).
					WithMsg("failed to create data directory").
					WithCause(err)
			}

			// The view owns the terminal, so logs go to a file.
			level, _ := logging.ParseLevel(cfg.LogLevel)
			logger, closer, err := logging.OpenFile(filepath.Join(cfg.SnapshotDir, logging.LogFileName), level)
			if err != nil {
				return errbuilder.New().
					WithCode(errbuilder.CodeInternal).
					WithMsg("failed to open log file").
					WithCause(err)
			}
			defer closer.Close()

			return app.Run(commandContext(cmd), app.Options{
				Config:    cfg,
				PrefsPath: opts.PrefsPath,
				Logger:    logger,
			})
		},
	}
	cmd.Flags().StringVar(&opts.PrefsPath, "prefs", "", "Preferences file (default ~/.config/scoopsync/prefs.toml)")
	cmd.Flags().Duration("refresh", 0, "Re-synchronize at this interval (0 disables)")
	_ = s.v.BindPFlag(keyRefreshInterval, cmd.Flags().Lookup("refresh"))
	return cmd
}

type logsOptions struct {
	Lines    int
	Problems bool
}

func newLogsCommand(s *session) *cobra.Command {
	opts := logsOptions{}
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Print the end of the log written by the full-screen view",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var keep func(string) bool
			if opts.Problems {
				keep = logging.AtLeastWarn
			}
			lines, err := logging.Tail(filepath.Join(s.cfg.SnapshotDir, logging.LogFileName), opts.Lines, keep)
			if err != nil {
				return errbuilder.New().
					WithCode(errbuilder.CodeInternal).
					WithMsg("failed to read log").
					WithCause(err)
			}
			for _, line := range lines {
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&opts.Lines, "lines", "n", 50, "Number of lines to print")
	cmd.Flags().BoolVar(&opts.Problems, "problems", false, "Only warnings and errors")
	return cmd
}
