package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Snapshot backend kinds accepted by snapshot_backend.
const (
	SnapshotFile   = "file"
	SnapshotSQLite = "sqlite"
	SnapshotMemory = "memory"
)

const (
	DefaultPath            = "~/.config/scoopsync/config.toml"
	DefaultBackendURL      = "http://127.0.0.1:7488"
	DefaultRequestTimeout  = 30 * time.Second
	DefaultSnapshotBackend = SnapshotFile
	DefaultSnapshotDir     = "~/.local/share/scoopsync"
	DefaultLogLevel        = "info"
)

var (
	snapshotBackends = []string{SnapshotFile, SnapshotSQLite, SnapshotMemory}
	logLevels        = []string{"debug", "info", "warn", "error"}
)

// Config is the resolved scoopsync configuration.
type Config struct {
	BackendURL      string
	RequestTimeout  time.Duration
	SnapshotBackend string
	SnapshotDir     string
	LogLevel        string
	// RefreshInterval of zero disables periodic re-synchronization.
	RefreshInterval time.Duration
}

// fileConfig mirrors config.toml. Durations are Go duration strings.
type fileConfig struct {
	BackendURL      string `toml:"backend_url"`
	RequestTimeout  string `toml:"request_timeout"`
	SnapshotBackend string `toml:"snapshot_backend"`
	SnapshotDir     string `toml:"snapshot_dir"`
	LogLevel        string `toml:"log_level"`
	RefreshInterval string `toml:"refresh_interval"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		BackendURL:      DefaultBackendURL,
		RequestTimeout:  DefaultRequestTimeout,
		SnapshotBackend: DefaultSnapshotBackend,
		SnapshotDir:     mustExpand(DefaultSnapshotDir),
		LogLevel:        DefaultLogLevel,
	}
}

// Load reads the config file at path, or the default location when path is
// empty. A missing file yields Default().
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw fileConfig
	if err := toml.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	cfg := Default()
	if v := strings.TrimSpace(raw.BackendURL); v != "" {
		cfg.BackendURL = v
	}
	if v := strings.TrimSpace(raw.SnapshotBackend); v != "" {
		cfg.SnapshotBackend = strings.ToLower(v)
	}
	if v := strings.TrimSpace(raw.SnapshotDir); v != "" {
		cfg.SnapshotDir = v
	}
	if v := strings.TrimSpace(raw.LogLevel); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if cfg.RequestTimeout, err = parseDuration("request_timeout", raw.RequestTimeout, DefaultRequestTimeout); err != nil {
		return Config{}, err
	}
	if cfg.RefreshInterval, err = parseDuration("refresh_interval", raw.RefreshInterval, 0); err != nil {
		return Config{}, err
	}

	if err := cfg.Normalize(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Normalize expands paths and validates the values. Call it again after
// applying command-line overrides.
func (c *Config) Normalize() error {
	c.BackendURL = strings.TrimSpace(c.BackendURL)
	if c.BackendURL == "" {
		c.BackendURL = DefaultBackendURL
	}
	c.SnapshotBackend = strings.ToLower(strings.TrimSpace(c.SnapshotBackend))
	if c.SnapshotBackend == "" {
		c.SnapshotBackend = DefaultSnapshotBackend
	}
	if !slices.Contains(snapshotBackends, c.SnapshotBackend) {
		return fmt.Errorf("snapshot_backend %q: must be one of %s", c.SnapshotBackend, strings.Join(snapshotBackends, ", "))
	}
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if !slices.Contains(logLevels, c.LogLevel) {
		return fmt.Errorf("log_level %q: must be one of %s", c.LogLevel, strings.Join(logLevels, ", "))
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %s", c.RequestTimeout)
	}
	if c.RefreshInterval < 0 {
		return fmt.Errorf("refresh_interval must not be negative, got %s", c.RefreshInterval)
	}

	dir := c.SnapshotDir
	if strings.TrimSpace(dir) == "" {
		dir = DefaultSnapshotDir
	}
	expanded, err := ExpandPath(dir)
	if err != nil {
		return fmt.Errorf("snapshot_dir: %w", err)
	}
	c.SnapshotDir = expanded
	return nil
}

func parseDuration(key, value string, fallback time.Duration) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse config: %s: %w", key, err)
	}
	return d, nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return ExpandPath(DefaultPath)
	}
	return ExpandPath(path)
}

func mustExpand(path string) string {
	expanded, err := ExpandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

// ExpandPath resolves a leading ~ to the home directory and returns an
// absolute path.
func ExpandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
