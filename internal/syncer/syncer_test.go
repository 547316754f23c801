package syncer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wwtest625/scoop-ui/internal/scoop"
	"github.com/wwtest625/scoop-ui/internal/snapshot"
	"github.com/wwtest625/scoop-ui/internal/state"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeSource answers fetches from fields. When gate is non-nil both fetches
// block until it is closed.
type fakeSource struct {
	mu         sync.Mutex
	apps       []scoop.InstalledApp
	appsErr    error
	buckets    []scoop.Bucket
	bucketsErr error
	checkErr   error

	gate         chan struct{}
	checkRelease chan struct{}

	fetches atomic.Int32
	checks  atomic.Int32
}

func (f *fakeSource) FetchInstalledApps(ctx context.Context) ([]scoop.InstalledApp, error) {
	f.fetches.Add(1)
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.apps, f.appsErr
}

func (f *fakeSource) FetchBuckets(ctx context.Context) ([]scoop.Bucket, error) {
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.buckets, f.bucketsErr
}

func (f *fakeSource) CheckUpdatesAsync(ctx context.Context) (string, error) {
	f.checks.Add(1)
	if f.checkRelease != nil {
		select {
		case <-f.checkRelease:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if f.checkErr != nil {
		return "", f.checkErr
	}
	return "Update check started", nil
}

type fixture struct {
	source *fakeSource
	cache  *snapshot.Store
	state  *state.Store
	syncer *Syncer
}

// flakyBackend is a memory backend whose writes can be switched off.
type flakyBackend struct {
	*snapshot.MemoryBackend
	failPut atomic.Bool
}

func (b *flakyBackend) PutAll(ctx context.Context, entries map[string][]byte) error {
	if b.failPut.Load() {
		return errors.New("disk full")
	}
	return b.MemoryBackend.PutAll(ctx, entries)
}

func newFixture(t *testing.T, source *fakeSource) *fixture {
	t.Helper()
	return newFixtureWithBackend(t, source, snapshot.NewMemoryBackend())
}

func newFixtureWithBackend(t *testing.T, source *fakeSource, backend snapshot.Backend) *fixture {
	t.Helper()
	cache := snapshot.NewStore(backend, quietLogger())
	st := &state.Store{}
	s := New(source, cache, st, Options{Logger: quietLogger()})
	t.Cleanup(s.Close)
	return &fixture{source: source, cache: cache, state: st, syncer: s}
}

func TestInitialize_ReplacesCachedWithAuthoritative(t *testing.T) {
	ctx := context.Background()
	fresh := []scoop.InstalledApp{{Name: "git", Version: "2.41", Bucket: "main"}}
	f := newFixture(t, &fakeSource{
		apps:    fresh,
		buckets: []scoop.Bucket{{Name: "main"}},
	})
	f.cache.Save(ctx, []scoop.InstalledApp{{Name: "git", Version: "2.40", Bucket: "main"}}, nil)

	require.NoError(t, f.syncer.Initialize(ctx))

	snap := f.state.Snapshot()
	assert.False(t, snap.Loading)
	assert.Equal(t, state.PhaseReady, snap.Phase)
	assert.Empty(t, snap.LastError)
	if diff := cmp.Diff(fresh, snap.Apps); diff != "" {
		t.Errorf("published apps mismatch (-want +got):\n%s", diff)
	}

	stored := f.cache.Load(ctx)
	if diff := cmp.Diff(fresh, stored.Apps); diff != "" {
		t.Errorf("snapshot apps mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []scoop.Bucket{{Name: "main"}}, stored.Buckets)
}

func TestInitialize_FailureAfterUnsavedSuccessKeepsPublishedLists(t *testing.T) {
	ctx := context.Background()
	backend := &flakyBackend{MemoryBackend: snapshot.NewMemoryBackend()}
	backend.failPut.Store(true)
	apps := []scoop.InstalledApp{{Name: "git", Version: "2.41"}}
	buckets := []scoop.Bucket{{Name: "main"}}
	f := newFixtureWithBackend(t, &fakeSource{apps: apps, buckets: buckets}, backend)

	require.NoError(t, f.syncer.Initialize(ctx))
	assert.False(t, f.cache.Load(ctx).HasApps, "save was expected to fail")

	f.source.mu.Lock()
	f.source.appsErr = errors.New("engine down")
	f.source.mu.Unlock()

	err := f.syncer.Initialize(ctx)
	require.EqualError(t, err, "engine down")

	snap := f.state.Snapshot()
	assert.Equal(t, state.PhaseErrored, snap.Phase)
	assert.Equal(t, "engine down", snap.LastError)
	assert.Equal(t, apps, snap.Apps)
	assert.Equal(t, buckets, snap.Buckets)
}

func TestInitialize_FailureIgnoresUnusableSnapshotKeys(t *testing.T) {
	published := []scoop.InstalledApp{{Name: "git", Version: "2.41"}}
	cachedBuckets := []scoop.Bucket{{Name: "extras"}}

	tests := []struct {
		name    string
		entries map[string][]byte
	}{
		{
			name:    "missing apps key",
			entries: map[string][]byte{snapshot.KeyBuckets: []byte(`[{"name":"extras"}]`)},
		},
		{
			name: "corrupt apps key",
			entries: map[string][]byte{
				snapshot.KeyApps:    []byte(`{not json`),
				snapshot.KeyBuckets: []byte(`[{"name":"extras"}]`),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			backend := &flakyBackend{MemoryBackend: snapshot.NewMemoryBackend()}
			backend.failPut.Store(true)
			f := newFixtureWithBackend(t, &fakeSource{
				apps:    published,
				buckets: []scoop.Bucket{{Name: "main"}},
			}, backend)
			require.NoError(t, f.syncer.Initialize(ctx))

			backend.failPut.Store(false)
			require.NoError(t, backend.PutAll(ctx, tt.entries))

			f.source.mu.Lock()
			f.source.appsErr = errors.New("engine down")
			f.source.mu.Unlock()
			require.Error(t, f.syncer.Initialize(ctx))

			snap := f.state.Snapshot()
			assert.Equal(t, published, snap.Apps, "unusable key must not blank published apps")
			assert.Equal(t, cachedBuckets, snap.Buckets)
			assert.Equal(t, state.PhaseErrored, snap.Phase)
		})
	}
}

func TestInitialize_FailureKeepsCachedLists(t *testing.T) {
	ctx := context.Background()
	cached := []scoop.InstalledApp{{Name: "git", Version: "2.40"}}
	f := newFixture(t, &fakeSource{
		appsErr: errors.New("scoop not found"),
		buckets: []scoop.Bucket{{Name: "extras"}},
	})
	f.cache.Save(ctx, cached, []scoop.Bucket{{Name: "main"}})

	err := f.syncer.Initialize(ctx)
	require.Error(t, err)
	assert.Equal(t, "scoop not found", err.Error())

	snap := f.state.Snapshot()
	assert.False(t, snap.Loading)
	assert.Equal(t, state.PhaseErrored, snap.Phase)
	assert.Equal(t, "scoop not found", snap.LastError)
	assert.Equal(t, cached, snap.Apps)
	assert.Equal(t, []scoop.Bucket{{Name: "main"}}, snap.Buckets, "partial bucket result must not be published")

	stored := f.cache.Load(ctx)
	assert.Equal(t, cached, stored.Apps, "snapshot must not change on failure")
}

func TestInitialize_BothFetchesFailJoinsErrors(t *testing.T) {
	f := newFixture(t, &fakeSource{
		appsErr:    errors.New("apps down"),
		bucketsErr: errors.New("buckets down"),
	})

	err := f.syncer.Initialize(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "apps down")
	assert.Contains(t, err.Error(), "buckets down")
	assert.Equal(t, err.Error(), f.state.Snapshot().LastError)
}

func TestInitialize_EmptySuccessReplacesState(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, &fakeSource{
		apps:    []scoop.InstalledApp{},
		buckets: []scoop.Bucket{},
	})
	f.cache.Save(ctx, []scoop.InstalledApp{{Name: "git"}}, []scoop.Bucket{{Name: "main"}})

	require.NoError(t, f.syncer.Initialize(ctx))

	snap := f.state.Snapshot()
	assert.Empty(t, snap.Apps)
	assert.Empty(t, snap.Buckets)
	assert.Equal(t, state.PhaseReady, snap.Phase)

	stored := f.cache.Load(ctx)
	assert.Empty(t, stored.Apps)
	assert.Empty(t, stored.Buckets)
}

func TestInitialize_PaintsCacheWhileLoading(t *testing.T) {
	ctx := context.Background()
	gate := make(chan struct{})
	f := newFixture(t, &fakeSource{
		gate:    gate,
		apps:    []scoop.InstalledApp{{Name: "git", Version: "2.41"}},
		buckets: []scoop.Bucket{{Name: "main"}},
	})
	cached := []scoop.InstalledApp{{Name: "git", Version: "2.40"}}
	f.cache.Save(ctx, cached, nil)

	done := make(chan error, 1)
	go func() { done <- f.syncer.Initialize(ctx) }()

	require.Eventually(t, func() bool {
		snap := f.state.Snapshot()
		return snap.Loading && len(snap.Apps) == 1 && snap.Apps[0].Version == "2.40"
	}, time.Second, 5*time.Millisecond, "cached apps should be published while loading")

	close(gate)
	require.NoError(t, <-done)

	snap := f.state.Snapshot()
	assert.False(t, snap.Loading)
	assert.Equal(t, "2.41", snap.Apps[0].Version)
}

func TestInitialize_LoadingTrueUntilBothFetchesSettle(t *testing.T) {
	gate := make(chan struct{})
	f := newFixture(t, &fakeSource{
		gate:    gate,
		appsErr: errors.New("boom"),
	})

	done := make(chan error, 1)
	go func() { done <- f.syncer.Initialize(context.Background()) }()

	require.Eventually(t, func() bool { return f.source.fetches.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.True(t, f.state.Snapshot().Loading)

	close(gate)
	require.Error(t, <-done)
	assert.False(t, f.state.Snapshot().Loading)
}

func TestInitialize_BackgroundCheckFailureDoesNotTouchState(t *testing.T) {
	release := make(chan struct{})
	f := newFixture(t, &fakeSource{
		apps:         []scoop.InstalledApp{{Name: "git"}},
		buckets:      []scoop.Bucket{{Name: "main"}},
		checkErr:     errors.New("check failed"),
		checkRelease: release,
	})

	require.NoError(t, f.syncer.Initialize(context.Background()))

	snap := f.state.Snapshot()
	assert.False(t, snap.Loading)
	assert.True(t, snap.BackgroundCheckPending)

	close(release)
	f.syncer.WaitBackground()

	snap = f.state.Snapshot()
	assert.False(t, snap.Loading)
	assert.False(t, snap.BackgroundCheckPending)
	assert.Empty(t, snap.LastError)
	assert.Equal(t, state.PhaseReady, snap.Phase)
	assert.EqualValues(t, 1, f.source.checks.Load())
}

func TestInitialize_BackgroundCheckRunsAfterFailure(t *testing.T) {
	f := newFixture(t, &fakeSource{bucketsErr: errors.New("offline")})

	require.Error(t, f.syncer.Initialize(context.Background()))
	f.syncer.WaitBackground()

	assert.EqualValues(t, 1, f.source.checks.Load())
}

func TestInitialize_ConcurrentCallsCoalesce(t *testing.T) {
	gate := make(chan struct{})
	f := newFixture(t, &fakeSource{
		gate:    gate,
		apps:    []scoop.InstalledApp{{Name: "git"}},
		buckets: []scoop.Bucket{{Name: "main"}},
	})

	const callers = 5
	errs := make(chan error, callers)
	go func() { errs <- f.syncer.Initialize(context.Background()) }()
	require.Eventually(t, func() bool { return f.source.fetches.Load() == 1 }, time.Second, 5*time.Millisecond)

	var started sync.WaitGroup
	for i := 1; i < callers; i++ {
		started.Add(1)
		go func() {
			started.Done()
			errs <- f.syncer.Initialize(context.Background())
		}()
	}
	started.Wait()
	// Joiners need to reach singleflight before the gate opens.
	time.Sleep(20 * time.Millisecond)
	close(gate)

	for i := 0; i < callers; i++ {
		require.NoError(t, <-errs)
	}
	f.syncer.WaitBackground()

	assert.EqualValues(t, 1, f.source.fetches.Load())
	assert.EqualValues(t, 1, f.state.Snapshot().Generation)
}

func TestInitialize_SequentialCallsStartNewCycles(t *testing.T) {
	f := newFixture(t, &fakeSource{
		apps:    []scoop.InstalledApp{{Name: "git"}},
		buckets: []scoop.Bucket{{Name: "main"}},
	})

	require.NoError(t, f.syncer.Initialize(context.Background()))
	require.NoError(t, f.syncer.Initialize(context.Background()))

	assert.EqualValues(t, 2, f.source.fetches.Load())
	assert.EqualValues(t, 2, f.state.Snapshot().Generation)
}

func TestClose_CancelsBackgroundChecks(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	f := newFixture(t, &fakeSource{
		apps:         []scoop.InstalledApp{},
		buckets:      []scoop.Bucket{},
		checkRelease: release,
	})

	require.NoError(t, f.syncer.Initialize(context.Background()))

	closed := make(chan struct{})
	go func() {
		f.syncer.Close()
		close(closed)
	}()

	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatal("Close did not return while a background check was blocked")
	}
	assert.False(t, f.state.Snapshot().BackgroundCheckPending)
	assert.ErrorIs(t, f.syncer.Initialize(context.Background()), ErrClosed)
}

func TestNew_Defaults(t *testing.T) {
	s := New(&fakeSource{}, snapshot.NewStore(snapshot.NewMemoryBackend(), quietLogger()), nil, Options{})
	defer s.Close()

	require.NotNil(t, s.State())
	assert.Equal(t, state.PhaseIdle, s.State().Snapshot().Phase)
}
