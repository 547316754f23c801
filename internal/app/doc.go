// Package app provides the composition root of scoopsync.
//
// # Overview
//
// This package wires configuration, the engine gateway, snapshot storage,
// observable state and the synchronizer into an App, and runs the terminal
// view on top of it. Commands that do not need the view use New directly.
//
// # Architecture
//
//	┌──────────────┐
//	│   New()      │ Wire everything
//	└──────┬───────┘
//	       │
//	       ├─────> scoop.NewHTTPInvoker()  Engine transport
//	       ├─────> scoop.NewGateway()      Failure contracts
//	       ├─────> snapshot.OpenBackend()  file, sqlite or memory
//	       ├─────> state.Store{}           Observable state
//	       └─────> syncer.New()            Stale-while-revalidate cycles
//
//	┌──────────────┐
//	│   Run()      │ New() + optional poller + ui.Run() (blocks)
//	└──────────────┘
//
// # Components
//
//   - app.go: App, New, Close and the interactive Run
//   - poller.go: Periodic re-synchronization with exponential backoff
//
// # Polling Behavior
//
// When refresh_interval is positive the poller runs a cycle immediately and
// then once per interval. Each failed cycle doubles the wait, up to 30 seconds
// or the interval itself when that is longer. A successful cycle resets it.
// Cycles started by the poller and by the user share the syncer's single-flight
// guard, so they never overlap.
//
// # Error Handling
//
// Fatal errors (returned from New and Run):
//   - Unparseable backend URL
//   - Terminal program failures
//
// Recoverable errors (logged, the app keeps running):
//   - Snapshot storage that cannot be opened (an in-memory store is used)
//   - Failed synchronization cycles (surfaced through state.Snapshot.LastError)
//   - Failed background update checks
package app
