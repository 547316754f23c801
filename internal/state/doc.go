// Package state holds the observable synchronization state of scoopsync.
//
// # Overview
//
// The Store is the meeting point between the synchronizer, which is its only
// writer, and any number of readers (the terminal view, the CLI, tests). It
// carries the loading flag, the last error, and the current app and bucket lists.
//
// # Architecture
//
//	Writer (syncer):                 Readers:
//	┌──────────────────────┐        ┌──────────────────────┐
//	│ BeginCycle()         │        │ Snapshot()           │
//	│ PublishCached(cache) │───────→│ Subscribe() <-chan   │
//	│ Publish(apps, bkts)  │ (mutex)│   render / print     │
//	│ Fail(err)            │        │                      │
//	└──────────────────────┘        └──────────────────────┘
//
// There is no package-level instance. Whoever composes the application creates
// a Store, hands it to the synchronizer and passes the Reader side on.
//
// # Update Semantics
//
//	BeginCycle()      → Loading = true, LastError = "", Phase = Loading
//	PublishCached(..) → non-nil Apps/Buckets replaced, cycle still loading
//	Publish(..)       → Apps/Buckets replaced, Phase = Ready, Loading = false
//	Fail(err)         → Apps/Buckets unchanged, LastError = err.Error(),
//	                    Phase = Errored, Loading = false
//
// A failed cycle therefore leaves whatever was shown before (often the cached
// snapshot) on screen, with the error next to it.
//
// # Subscriptions
//
// Subscribe returns a channel with a buffer of one. Each change replaces any
// value the reader has not consumed yet, so readers always see the newest state
// and a stalled reader never blocks the writer. The first value is the state at
// subscription time.
//
// # Defensive Copying
//
// Lists are copied on the way in and on the way out. A reader mutating its
// snapshot cannot affect the store or other readers.
//
// # Testing Considerations
//
// The zero Store is ready to use:
//
//	var s state.Store
//	s.BeginCycle()
//	s.Publish(apps, buckets)
//	snap := s.Snapshot()
package state
