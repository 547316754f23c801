package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wwtest625/scoop-ui/internal/app"
	"github.com/wwtest625/scoop-ui/internal/config"
	"github.com/wwtest625/scoop-ui/internal/logging"
)

// version is set at build time via ldflags.
var version = "dev"

const envPrefix = "SCOOPSYNC"

// Viper keys match the config.toml keys.
const (
	keyBackendURL      = "backend_url"
	keyRequestTimeout  = "request_timeout"
	keySnapshotBackend = "snapshot_backend"
	keySnapshotDir     = "snapshot_dir"
	keyLogLevel        = "log_level"
	keyRefreshInterval = "refresh_interval"
)

// session carries what PersistentPreRunE resolved to the subcommands.
type session struct {
	v          *viper.Viper
	configFile string
	cfg        config.Config
	logger     *slog.Logger
}

// Execute runs the root command and exits with a code derived from the error.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := 0
	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "scoopsync: %s\n", errorMessage(err))
		code = exitCodeForError(err)
	}
	stop()
	os.Exit(code)
}

func newRootCommand() *cobra.Command {
	s := &session{v: viper.New()}
	cmd := &cobra.Command{
		Use:           "scoopsync",
		Short:         "Scoop package state, cached locally and kept in sync with the package engine",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return s.init(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&s.configFile, "config", "", "Config file path (default ~/.config/scoopsync/config.toml)")
	flags.String("backend-url", config.DefaultBackendURL, "Package engine URL")
	flags.Duration("timeout", config.DefaultRequestTimeout, "Per-call request timeout")
	flags.String("snapshot-backend", config.DefaultSnapshotBackend, "Snapshot storage: file, sqlite or memory")
	flags.String("snapshot-dir", config.DefaultSnapshotDir, "Snapshot storage directory")
	flags.String("log-level", config.DefaultLogLevel, "Log level: debug, info, warn, error")
	_ = s.v.BindPFlag(keyBackendURL, flags.Lookup("backend-url"))
	_ = s.v.BindPFlag(keyRequestTimeout, flags.Lookup("timeout"))
	_ = s.v.BindPFlag(keySnapshotBackend, flags.Lookup("snapshot-backend"))
	_ = s.v.BindPFlag(keySnapshotDir, flags.Lookup("snapshot-dir"))
	_ = s.v.BindPFlag(keyLogLevel, flags.Lookup("log-level"))

	cmd.AddCommand(newSyncCommand(s))
	cmd.AddCommand(newAppsCommand(s))
	cmd.AddCommand(newSearchCommand(s))
	cmd.AddCommand(newInstalledCommand(s))
	cmd.AddCommand(newSizesCommand(s))
	cmd.AddCommand(newDepsCommand(s))
	cmd.AddCommand(newInstallCommand(s))
	cmd.AddCommand(newUninstallCommand(s))
	cmd.AddCommand(newUpdateCommand(s))
	cmd.AddCommand(newUpdateManagerCommand(s))
	cmd.AddCommand(newCheckUpdatesCommand(s))
	cmd.AddCommand(newBucketCommand(s))
	cmd.AddCommand(newCacheCommand(s))
	cmd.AddCommand(newWatchCommand(s))
	cmd.AddCommand(newLogsCommand(s))
	return cmd
}

// init loads config.toml, then applies SCOOPSYNC_* variables and changed flags.
func (s *session) init(cmd *cobra.Command) error {
	s.v.SetEnvPrefix(envPrefix)
	s.v.AutomaticEnv()

	cfg, err := config.Load(s.configFile)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to load config").
			WithCause(err)
	}

	if s.v.IsSet(keyBackendURL) {
		cfg.BackendURL = s.v.GetString(keyBackendURL)
	}
	if s.v.IsSet(keyRequestTimeout) {
		cfg.RequestTimeout = s.v.GetDuration(keyRequestTimeout)
	}
	if s.v.IsSet(keySnapshotBackend) {
		cfg.SnapshotBackend = s.v.GetString(keySnapshotBackend)
	}
	if s.v.IsSet(keySnapshotDir) {
		cfg.SnapshotDir = s.v.GetString(keySnapshotDir)
	}
	if s.v.IsSet(keyLogLevel) {
		cfg.LogLevel = s.v.GetString(keyLogLevel)
	}
	if s.v.IsSet(keyRefreshInterval) {
		cfg.RefreshInterval = s.v.GetDuration(keyRefreshInterval)
	}
	if err := cfg.Normalize(); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(err.Error()).
			WithCause(err)
	}
	s.cfg = cfg

	level, _ := logging.ParseLevel(cfg.LogLevel)
	s.logger = logging.New(cmd.ErrOrStderr(), level)
	slog.SetDefault(s.logger)
	return nil
}

// open wires an App for one command. The caller must Close it.
func (s *session) open(cmd *cobra.Command) (*app.App, error) {
	a, err := app.New(commandContext(cmd), s.cfg, s.logger)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(err.Error()).
			WithCause(err)
	}
	return a, nil
}

// withApp runs fn against a freshly wired App and closes it afterwards.
func (s *session) withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	a, err := s.open(cmd)
	if err != nil {
		return err
	}
	err = fn(commandContext(cmd), a)
	if cerr := a.Close(); cerr != nil {
		s.logger.Warn("failed to close snapshot store", "error", cerr)
	}
	return err
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// backendFailure marks an error reported by, or on the way to, the package engine.
func backendFailure(err error) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeFailedPrecondition).
		WithMsg(err.Error()).
		WithCause(err)
}

func invalidArgument(msg string) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(msg)
}

func exitCodeForError(err error) int {
	switch errbuilder.CodeOf(err) {
	case errbuilder.CodeInvalidArgument, errbuilder.CodeAlreadyExists:
		return 2
	case errbuilder.CodeFailedPrecondition:
		return 3
	case errbuilder.CodeInternal:
		return 5
	default:
		return 1
	}
}

func errorMessage(err error) string {
	var builder *errbuilder.ErrBuilder
	if errors.As(err, &builder) && strings.TrimSpace(builder.Msg) != "" {
		return builder.Msg
	}
	return err.Error()
}
