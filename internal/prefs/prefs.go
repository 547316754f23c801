// Package prefs persists scoopsync view preferences.
// Preferences are stored in ~/.config/scoopsync/prefs.toml.
package prefs

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/wwtest625/scoop-ui/internal/config"
)

// Sort orders for the app list.
const (
	SortName    = "name"
	SortUpdated = "updated"
	SortSize    = "size"
)

var sortOrder = []string{SortName, SortUpdated, SortSize}

// Prefs holds user preferences for the terminal view.
type Prefs struct {
	Theme string `toml:"theme"`
	Sort  string `toml:"sort"`
}

const (
	defaultPrefsPath = "~/.config/scoopsync/prefs.toml"
	defaultTheme     = "Nightfox"
	defaultSort      = SortName
)

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// Default returns the preferences used when nothing is stored.
func Default() Prefs {
	return Prefs{Theme: defaultTheme, Sort: defaultSort}
}

// NextSort returns the sort order following current.
func NextSort(current string) string {
	i := slices.Index(sortOrder, current)
	return sortOrder[(i+1)%len(sortOrder)]
}

// Load reads preferences from path. Any problem reading or parsing the file
// yields defaults; preferences never block startup.
func Load(path string) Prefs {
	resolved, err := resolvePath(path)
	if err != nil {
		return Default()
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return Default()
	}

	p := Default()
	if err := toml.Unmarshal(data, &p); err != nil {
		return Default()
	}

	if strings.TrimSpace(p.Theme) == "" {
		p.Theme = defaultTheme
	}
	p.Sort = strings.ToLower(strings.TrimSpace(p.Sort))
	if !slices.Contains(sortOrder, p.Sort) {
		p.Sort = defaultSort
	}
	return p
}

// Save writes preferences to path, creating directories as needed.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	data, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	if err := os.WriteFile(resolved, data, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return config.ExpandPath(defaultPrefsPath)
	}
	return config.ExpandPath(path)
}
