package syncer

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/wwtest625/scoop-ui/internal/scoop"
	"github.com/wwtest625/scoop-ui/internal/snapshot"
	"github.com/wwtest625/scoop-ui/internal/state"
)

// Source is the engine side of a synchronization cycle. *scoop.Gateway
// implements it.
type Source interface {
	FetchInstalledApps(ctx context.Context) ([]scoop.InstalledApp, error)
	FetchBuckets(ctx context.Context) ([]scoop.Bucket, error)
	CheckUpdatesAsync(ctx context.Context) (string, error)
}

// Cache is the local snapshot side. *snapshot.Store implements it.
type Cache interface {
	Load(ctx context.Context) snapshot.Snapshot
	Save(ctx context.Context, apps []scoop.InstalledApp, buckets []scoop.Bucket)
}

var (
	_ Source = (*scoop.Gateway)(nil)
	_ Cache  = (*snapshot.Store)(nil)
)

// ErrClosed is returned by Initialize after Close.
var ErrClosed = errors.New("syncer: closed")

const initializeKey = "initialize"

// Options configure a Syncer.
type Options struct {
	Logger *slog.Logger
	// BaseContext bounds background update checks. They outlive Initialize but
	// stop when this context is cancelled or Close is called.
	BaseContext context.Context
}

// Syncer runs stale-while-revalidate cycles: cached data is published at
// once, authoritative data replaces it when both fetches succeed.
type Syncer struct {
	source Source
	cache  Cache
	state  *state.Store
	log    *slog.Logger

	flight singleflight.Group

	bgCtx     context.Context
	bgCancel  context.CancelFunc
	bgMu      sync.Mutex
	bgWG      sync.WaitGroup
	bgPending atomic.Int32
	closed    bool
}

// New builds a Syncer that writes to st. st must not be written by anyone else.
func New(source Source, cache Cache, st *state.Store, opts Options) *Syncer {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	base := opts.BaseContext
	if base == nil {
		base = context.Background()
	}
	if st == nil {
		st = &state.Store{}
	}
	bgCtx, bgCancel := context.WithCancel(base)
	return &Syncer{
		source:   source,
		cache:    cache,
		state:    st,
		log:      logger.With("component", "syncer"),
		bgCtx:    bgCtx,
		bgCancel: bgCancel,
	}
}

// State returns the read side of the state the Syncer publishes to.
func (s *Syncer) State() state.Reader {
	return s.state
}

// Initialize runs one synchronization cycle and returns the authoritative
// fetch error, if any. Calls made while a cycle is in flight join that cycle
// and receive its result instead of starting another one.
func (s *Syncer) Initialize(ctx context.Context) error {
	s.bgMu.Lock()
	closed := s.closed
	s.bgMu.Unlock()
	if closed {
		return ErrClosed
	}

	_, err, shared := s.flight.Do(initializeKey, func() (any, error) {
		return nil, s.cycle(ctx)
	})
	if shared {
		s.log.Debug("joined in-flight synchronization")
	}
	return err
}

func (s *Syncer) cycle(ctx context.Context) error {
	gen := s.state.BeginCycle()
	log := s.log.With("generation", gen)

	s.paintCached(ctx, log)

	apps, buckets, err := s.fetch(ctx)
	if err != nil {
		s.state.Fail(err)
		log.Error("failed to synchronize", "error", err)
	} else {
		s.cache.Save(ctx, apps, buckets)
		s.state.Publish(apps, buckets)
		log.Info("synchronized", "apps", len(apps), "buckets", len(buckets))
	}

	s.startBackgroundCheck()
	return err
}

// paintCached publishes the keys the snapshot actually holds. A missing or
// unreadable key leaves the list already on screen untouched.
func (s *Syncer) paintCached(ctx context.Context, log *slog.Logger) {
	cached := s.cache.Load(ctx)
	var (
		apps    []scoop.InstalledApp
		buckets []scoop.Bucket
	)
	if cached.HasApps {
		apps = cached.Apps
	}
	if cached.HasBuckets {
		buckets = cached.Buckets
	}
	if apps == nil && buckets == nil {
		log.Debug("no cached snapshot to publish")
		return
	}
	s.state.PublishCached(apps, buckets)
	log.Debug("published cached snapshot", "apps", len(apps), "buckets", len(buckets), "has_apps", cached.HasApps, "has_buckets", cached.HasBuckets)
}

// fetch requests apps and buckets concurrently and waits for both. A failure
// of either fails the whole fetch; the other result is discarded.
func (s *Syncer) fetch(ctx context.Context) ([]scoop.InstalledApp, []scoop.Bucket, error) {
	var (
		g                   errgroup.Group
		apps                []scoop.InstalledApp
		buckets             []scoop.Bucket
		appsErr, bucketsErr error
	)
	g.Go(func() error {
		apps, appsErr = s.source.FetchInstalledApps(ctx)
		return appsErr
	})
	g.Go(func() error {
		buckets, bucketsErr = s.source.FetchBuckets(ctx)
		return bucketsErr
	})
	_ = g.Wait()

	if err := errors.Join(appsErr, bucketsErr); err != nil {
		return nil, nil, err
	}
	return apps, buckets, nil
}

func (s *Syncer) startBackgroundCheck() {
	s.bgMu.Lock()
	defer s.bgMu.Unlock()
	if s.closed {
		return
	}

	s.bgWG.Add(1)
	s.bgPending.Add(1)
	s.state.SetBackgroundPending(true)

	go func() {
		defer s.bgWG.Done()
		defer func() {
			if s.bgPending.Add(-1) == 0 {
				s.state.SetBackgroundPending(false)
			}
		}()

		msg, err := s.source.CheckUpdatesAsync(s.bgCtx)
		if err != nil {
			s.log.Warn("background update check failed", "error", err)
			return
		}
		s.log.Debug("background update check started", "message", msg)
	}()
}

// WaitBackground blocks until every background check started so far has finished.
func (s *Syncer) WaitBackground() {
	s.bgWG.Wait()
}

// Close cancels outstanding background checks and waits for them to return.
func (s *Syncer) Close() {
	s.bgMu.Lock()
	if s.closed {
		s.bgMu.Unlock()
		return
	}
	s.closed = true
	s.bgMu.Unlock()

	s.bgCancel()
	s.bgWG.Wait()
}
