// Package config loads the scoopsync configuration file.
//
// # Overview
//
// Configuration lives in a single TOML file. Every key is optional and a
// missing file is not an error, so scoopsync works against a local engine
// without any setup.
//
// # Resolution Order
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/scoopsync/config.toml
//  3. If the file does not exist, use Default()
//  4. Empty or missing keys keep their defaults
//
// Command-line flags and SCOOPSYNC_* environment variables are applied by the
// command layer on top of the loaded Config, followed by another Normalize.
//
// # TOML Format
//
//	backend_url      = "http://127.0.0.1:7488"
//	request_timeout  = "30s"
//	snapshot_backend = "file"          # file, sqlite or memory
//	snapshot_dir     = "~/.local/share/scoopsync"
//	log_level        = "info"          # debug, info, warn, error
//	refresh_interval = "0s"            # 0 disables periodic re-sync
//
// Durations use Go syntax ("1m30s"). Tilde expansion is applied to
// snapshot_dir and to the config path itself.
//
// # Error Handling
//
// Load returns errors for:
//   - Path expansion failures (e.g., cannot determine home directory)
//   - File read errors other than os.ErrNotExist
//   - TOML parsing errors and malformed durations
//   - Values outside their allowed set (unknown snapshot backend or log level)
//
// Config is a plain value. There is no package-level state.
package config
