package snapshot

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"

	"github.com/wwtest625/scoop-ui/internal/scoop"
)

// Fixed keys of the two persisted blobs.
const (
	KeyApps    = "scoop_installed_apps"
	KeyBuckets = "scoop_buckets_cache"
)

// Backend kinds accepted by OpenBackend.
const (
	KindFile   = "file"
	KindSQLite = "sqlite"
	KindMemory = "memory"
)

// Snapshot is the last successfully persisted view of the engine. HasApps and
// HasBuckets report whether the key was present and decoded; when false the
// matching list is empty and carries no information.
type Snapshot struct {
	Apps       []scoop.InstalledApp
	Buckets    []scoop.Bucket
	HasApps    bool
	HasBuckets bool
}

// legacyApps is the envelope older releases wrote around the app list.
type legacyApps struct {
	Data []scoop.InstalledApp `json:"data"`
}

// Store is a best-effort cache of the installed apps and bucket lists.
type Store struct {
	backend Backend
	log     *slog.Logger
}

// NewStore wraps backend. A nil backend behaves as permanently unavailable.
func NewStore(backend Backend, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{backend: backend, log: logger.With("component", "snapshot")}
}

// OpenBackend opens a backend of the given kind under dir.
func OpenBackend(kind, dir string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", KindFile:
		return NewFileBackend(dir)
	case KindSQLite:
		return NewSQLiteBackend(filepath.Join(dir, "snapshot.db"))
	case KindMemory:
		return NewMemoryBackend(), nil
	default:
		return nil, fmt.Errorf("unknown snapshot backend %q", kind)
	}
}

// Load returns whatever was last written. Missing, corrupt or unreadable
// values come back as empty lists with their Has flag unset; Load never fails.
func (s *Store) Load(ctx context.Context) Snapshot {
	snap := Snapshot{Apps: []scoop.InstalledApp{}, Buckets: []scoop.Bucket{}}
	if s == nil || s.backend == nil {
		return snap
	}

	if raw, ok := s.read(ctx, KeyApps); ok {
		apps, err := decodeApps(raw)
		if err != nil {
			s.log.Warn("failed to decode cached apps", "error", err)
		} else {
			snap.Apps = apps
			snap.HasApps = true
		}
	}

	if raw, ok := s.read(ctx, KeyBuckets); ok {
		buckets, err := decodeBuckets(raw)
		if err != nil {
			s.log.Warn("failed to decode cached buckets", "error", err)
		} else {
			snap.Buckets = buckets
			snap.HasBuckets = true
		}
	}

	return snap
}

// Save overwrites both keys. Failures are logged and otherwise ignored.
func (s *Store) Save(ctx context.Context, apps []scoop.InstalledApp, buckets []scoop.Bucket) {
	if err := s.SaveErr(ctx, apps, buckets); err != nil {
		s.log.Warn("failed to save snapshot", "error", err)
	}
}

// SaveErr is Save for callers that want to report the failure.
func (s *Store) SaveErr(ctx context.Context, apps []scoop.InstalledApp, buckets []scoop.Bucket) error {
	if s == nil || s.backend == nil {
		return fmt.Errorf("snapshot storage unavailable")
	}
	if apps == nil {
		apps = []scoop.InstalledApp{}
	}
	if buckets == nil {
		buckets = []scoop.Bucket{}
	}

	appsRaw, err := json.Marshal(apps)
	if err != nil {
		return fmt.Errorf("encode apps: %w", err)
	}
	bucketsRaw, err := json.Marshal(buckets)
	if err != nil {
		return fmt.Errorf("encode buckets: %w", err)
	}

	return s.backend.PutAll(ctx, map[string][]byte{
		KeyApps:    appsRaw,
		KeyBuckets: bucketsRaw,
	})
}

// Close releases the backend.
func (s *Store) Close() error {
	if s == nil || s.backend == nil {
		return nil
	}
	return s.backend.Close()
}

func (s *Store) read(ctx context.Context, key string) ([]byte, bool) {
	raw, ok, err := s.backend.Get(ctx, key)
	if err != nil {
		s.log.Warn("snapshot storage unavailable", "key", key, "error", err)
		return nil, false
	}
	return raw, ok
}

func decodeApps(raw []byte) ([]scoop.InstalledApp, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var env legacyApps
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, err
		}
		return nonNil(env.Data), nil
	}
	var apps []scoop.InstalledApp
	if err := json.Unmarshal(trimmed, &apps); err != nil {
		return nil, err
	}
	return nonNil(apps), nil
}

func decodeBuckets(raw []byte) ([]scoop.Bucket, error) {
	var buckets []scoop.Bucket
	if err := json.Unmarshal(bytes.TrimSpace(raw), &buckets); err != nil {
		return nil, err
	}
	return nonNil(buckets), nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
