// Package snapshot persists the last known installed-app and bucket lists so a
// front-end can paint immediately on start, before the engine has answered.
//
// The cache is strictly best effort. Load never fails: a missing key, a corrupt
// blob or an unreachable backend all read as "nothing cached". Save never fails
// the caller either; problems are logged.
//
// Two blobs live under fixed keys (KeyApps, KeyBuckets). Both are always written
// together and as bare JSON lists. Older releases wrapped the app list as
// {"data": [...]}; Load unwraps that shape transparently.
//
// Backends:
//
//   - FileBackend: one JSON file per key, staged and renamed under a flock
//   - SQLiteBackend: a snapshot_kv table, one transaction per save
//   - MemoryBackend: process memory, for tests and as a fallback
package snapshot
