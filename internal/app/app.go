package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/wwtest625/scoop-ui/internal/config"
	"github.com/wwtest625/scoop-ui/internal/prefs"
	"github.com/wwtest625/scoop-ui/internal/scoop"
	"github.com/wwtest625/scoop-ui/internal/snapshot"
	"github.com/wwtest625/scoop-ui/internal/state"
	"github.com/wwtest625/scoop-ui/internal/syncer"
	"github.com/wwtest625/scoop-ui/internal/ui"
)

// App holds the wired components of scoopsync.
type App struct {
	Config    config.Config
	Gateway   *scoop.Gateway
	Snapshots *snapshot.Store
	State     *state.Store
	Syncer    *syncer.Syncer

	log *slog.Logger
}

// New wires the gateway, snapshot store, state and syncer from cfg. Background
// checks started by the syncer live until ctx is cancelled or Close is called.
// A snapshot backend that cannot be opened is replaced by an in-memory one.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	invoker, err := scoop.NewHTTPInvoker(cfg.BackendURL, cfg.RequestTimeout)
	if err != nil {
		return nil, fmt.Errorf("init backend client: %w", err)
	}
	gateway := scoop.NewGateway(invoker, logger)

	backend, err := snapshot.OpenBackend(cfg.SnapshotBackend, cfg.SnapshotDir)
	if err != nil {
		logger.Warn("snapshot storage unavailable, caching in memory",
			"backend", cfg.SnapshotBackend,
			"dir", cfg.SnapshotDir,
			"error", err,
		)
		backend = snapshot.NewMemoryBackend()
	}
	snapshots := snapshot.NewStore(backend, logger)

	store := &state.Store{}
	s := syncer.New(gateway, snapshots, store, syncer.Options{
		Logger:      logger,
		BaseContext: ctx,
	})

	return &App{
		Config:    cfg,
		Gateway:   gateway,
		Snapshots: snapshots,
		State:     store,
		Syncer:    s,
		log:       logger,
	}, nil
}

// Close stops background work and releases the snapshot storage.
func (a *App) Close() error {
	a.Syncer.Close()
	return a.Snapshots.Close()
}

// Options configure the interactive view.
type Options struct {
	Config    config.Config
	PrefsPath string // empty uses default ~/.config/scoopsync/prefs.toml
	Logger    *slog.Logger
}

// Run boots the terminal view until the context is cancelled or the user quits.
func Run(ctx context.Context, opts Options) (err error) {
	a, err := New(ctx, opts.Config, opts.Logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close snapshot store: %w", cerr))
		}
	}()

	userPrefs := prefs.Load(opts.PrefsPath)

	uiOpts := ui.Options{
		Context:   ctx,
		Syncer:    a.Syncer,
		State:     a.State,
		ThemeName: userPrefs.Theme,
		Sort:      userPrefs.Sort,
		PrefsPath: opts.PrefsPath,
		Logger:    a.log,
	}

	if interval := opts.Config.RefreshInterval; interval > 0 {
		pollCtx, stop := context.WithCancel(ctx)
		done := StartPoller(pollCtx, a.Syncer, interval, a.log)
		defer func() {
			stop()
			<-done
		}()
		uiOpts.SkipInitialSync = true
	}

	return ui.Run(uiOpts)
}
