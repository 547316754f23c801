// Package syncer keeps the observable state in step with the package engine.
//
// # Overview
//
// A Syncer runs stale-while-revalidate cycles. Each cycle paints whatever the
// local snapshot holds, asks the engine for the authoritative lists, and on
// success replaces both the published state and the snapshot.
//
// # Cycle
//
//	Initialize(ctx)
//	  │
//	  ├─ state.BeginCycle()                 loading = true, error cleared
//	  ├─ cache.Load → state.PublishCached   instant paint, never fails
//	  ├─ errgroup: FetchInstalledApps ┐
//	  │            FetchBuckets       ┘     both settle before deciding
//	  ├─ ok:   cache.Save → state.Publish   ready, loading = false
//	  │  fail: state.Fail(err)              lists kept, loading = false
//	  └─ CheckUpdatesAsync in background    not awaited
//
// Only snapshot keys that are present and decode are painted. A missing or
// corrupt key never blanks a list that an earlier cycle already published.
//
// An empty list from a successful fetch is a real result and replaces the
// published and cached data. Only a failed fetch keeps the previous lists.
//
// # Re-entrancy
//
// Concurrent Initialize calls are coalesced with singleflight: a call made
// while a cycle runs waits for that cycle and shares its result. The cycle runs
// with the context of the call that started it.
//
// # Background Checks
//
// The update check started at the end of every cycle is bound to the Syncer's
// base context rather than the caller's. Its outcome is only logged; it never
// touches the loading flag or the error. Close cancels outstanding checks and
// waits for them.
package syncer
