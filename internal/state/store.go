package state

import (
	"sync"
	"time"

	"github.com/wwtest625/scoop-ui/internal/scoop"
)

// Phase is the primary state of the synchronization cycle.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseReady
	PhaseErrored
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	case PhaseErrored:
		return "errored"
	default:
		return "idle"
	}
}

// Snapshot is the observable sync state at a point in time.
type Snapshot struct {
	Phase   Phase
	Loading bool
	// LastError is empty when the last cycle did not fail.
	LastError string
	Apps      []scoop.InstalledApp
	Buckets   []scoop.Bucket

	Generation             uint64    // Incremented at the start of every cycle
	LastSynced             time.Time // Last successful authoritative fetch
	ConsecutiveFailures    int       // Number of consecutive failed cycles
	BackgroundCheckPending bool
}

// HasError reports whether the last cycle failed.
func (s Snapshot) HasError() bool {
	return s.LastError != ""
}

// IsOffline returns true when the engine has been unreachable for multiple cycles.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Reader is the read side of the Store, handed to consumers.
type Reader interface {
	Snapshot() Snapshot
	Subscribe() (<-chan Snapshot, func())
}

var _ Reader = (*Store)(nil)

// Store coordinates concurrent access to the sync state. Only the
// synchronizer calls the mutating methods; everyone else reads.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
	subs     map[int]chan Snapshot
	nextSub  int
}

// BeginCycle marks the start of a synchronization cycle and returns its generation.
func (s *Store) BeginCycle() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.Generation++
	s.snapshot.Phase = PhaseLoading
	s.snapshot.Loading = true
	s.snapshot.LastError = ""
	s.notifyLocked()
	return s.snapshot.Generation
}

// PublishCached shows possibly stale data without ending the cycle. A nil
// list leaves the currently published one in place.
func (s *Store) PublishCached(apps []scoop.InstalledApp, buckets []scoop.Bucket) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if apps != nil {
		s.snapshot.Apps = cloneSlice(apps)
	}
	if buckets != nil {
		s.snapshot.Buckets = cloneSlice(buckets)
	}
	s.notifyLocked()
}

// Publish replaces the lists with authoritative data and ends the cycle as ready.
func (s *Store) Publish(apps []scoop.InstalledApp, buckets []scoop.Bucket) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.Apps = cloneSlice(apps)
	s.snapshot.Buckets = cloneSlice(buckets)
	s.snapshot.Phase = PhaseReady
	s.snapshot.Loading = false
	s.snapshot.LastError = ""
	s.snapshot.LastSynced = time.Now()
	s.snapshot.ConsecutiveFailures = 0
	s.notifyLocked()
}

// Fail ends the cycle as errored. The previously published lists are kept.
func (s *Store) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg := "synchronization failed"
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	s.snapshot.Phase = PhaseErrored
	s.snapshot.Loading = false
	s.snapshot.LastError = msg
	s.snapshot.ConsecutiveFailures++
	s.notifyLocked()
}

// SetBackgroundPending records whether a background update check is in flight.
func (s *Store) SetBackgroundPending(pending bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.snapshot.BackgroundCheckPending == pending {
		return
	}
	s.snapshot.BackgroundCheckPending = pending
	s.notifyLocked()
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyLocked()
}

// Subscribe returns a channel that receives the current state immediately and
// then the latest state after every change. Only the newest value is kept for a
// slow reader, so writers never block. Call cancel to stop; it closes the channel.
func (s *Store) Subscribe() (<-chan Snapshot, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.subs == nil {
		s.subs = make(map[int]chan Snapshot)
	}
	id := s.nextSub
	s.nextSub++
	ch := make(chan Snapshot, 1)
	ch <- s.copyLocked()
	s.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			close(ch)
		})
	}
	return ch, cancel
}

func (s *Store) notifyLocked() {
	if len(s.subs) == 0 {
		return
	}
	snap := s.copyLocked()
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}

func (s *Store) copyLocked() Snapshot {
	snap := s.snapshot
	snap.Apps = cloneSlice(s.snapshot.Apps)
	snap.Buckets = cloneSlice(s.snapshot.Buckets)
	return snap
}

func cloneSlice[T any](items []T) []T {
	if items == nil {
		return nil
	}
	dup := make([]T, len(items))
	copy(dup, items)
	return dup
}
