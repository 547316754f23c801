// Package ui provides the full-screen terminal view of scoopsync.
//
// # Architecture Overview
//
// The view is a Bubble Tea program. It never talks to the package engine
// directly: it subscribes to a state.Reader for data and asks a Synchronizer
// to start a cycle when the user refreshes.
//
//	state.Reader ──Subscribe()──→ snapshotMsg ──→ Model.Update ──→ View()
//	       ▲                                          │
//	       └──── syncer.Initialize ←── syncCmd ←── "r"
//
// # Package Structure
//
//   - app.go: Model, Options, message types, key handling and Run
//   - view.go: header, app table and footer rendering plus sorting helpers
//   - theme.go: colour palettes and Lipgloss styles
//   - keys.go: key bindings
//
// # Behaviour
//
//   - A spinner is shown while the state reports Loading
//   - Cached apps are listed as soon as they are published
//   - The last error stays visible above the retained lists
//   - "s" cycles the sort order (name, updated, size)
//   - "T" cycles the colour theme
//
// Theme and sort order are written to the preferences file whenever they
// change. A failed write is logged and otherwise ignored.
package ui
