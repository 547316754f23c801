package snapshot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
)

const lockFileName = "snapshot.lock"

// FileBackend stores one file per key in a directory. A lock file serializes
// readers and writers across processes; mu does the same within one.
type FileBackend struct {
	mu   sync.Mutex
	dir  string
	lock *flock.Flock
}

// NewFileBackend creates dir if needed and returns a backend rooted there.
func NewFileBackend(dir string) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}
	return &FileBackend{
		dir:  dir,
		lock: flock.New(filepath.Join(dir, lockFileName)),
	}, nil
}

// Dir returns the backing directory.
func (f *FileBackend) Dir() string {
	return f.dir
}

func (f *FileBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.lock.RLock(); err != nil {
		return nil, false, fmt.Errorf("lock snapshot: %w", err)
	}
	defer func() { _ = f.lock.Unlock() }()

	data, err := os.ReadFile(f.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read %s: %w", key, err)
	}
	return data, true, nil
}

func (f *FileBackend) PutAll(_ context.Context, entries map[string][]byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.lock.Lock(); err != nil {
		return fmt.Errorf("lock snapshot: %w", err)
	}
	defer func() { _ = f.lock.Unlock() }()

	// Stage every value first so a failed write leaves the old files intact.
	staged := make(map[string]string, len(entries))
	defer func() {
		for _, tmp := range staged {
			_ = os.Remove(tmp)
		}
	}()
	for key, value := range entries {
		tmp, err := os.CreateTemp(f.dir, key+".*.tmp")
		if err != nil {
			return fmt.Errorf("stage %s: %w", key, err)
		}
		staged[key] = tmp.Name()
		if _, err := tmp.Write(value); err != nil {
			_ = tmp.Close()
			return fmt.Errorf("write %s: %w", key, err)
		}
		if err := tmp.Close(); err != nil {
			return fmt.Errorf("close %s: %w", key, err)
		}
	}
	for key, tmp := range staged {
		if err := os.Rename(tmp, f.path(key)); err != nil {
			return fmt.Errorf("commit %s: %w", key, err)
		}
		delete(staged, key)
	}
	return nil
}

func (f *FileBackend) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lock.Close()
}

func (f *FileBackend) path(key string) string {
	return filepath.Join(f.dir, key+".json")
}
