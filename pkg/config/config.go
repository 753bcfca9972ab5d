// Package config handles loading and saving canopy configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config:  ~/.config/canopy/config.yaml
//   - Data:    ~/.local/share/canopy/ (themes, exports)
//   - State:   ~/.local/state/canopy/ (recent workspaces, view state cache)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Workspace represents a registered outline workspace in the config.
type Workspace struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`
}

// UIConfig holds UI preference settings.
type UIConfig struct {
	Theme    string `yaml:"theme,omitempty"`    // default, dark, light, mono
	Headless bool   `yaml:"headless,omitempty"` // Compact header mode
}

// SearchConfig controls search behavior and history.
type SearchConfig struct {
	DefaultMode  string   `yaml:"default_mode,omitempty"` // highlight or filter
	DebounceMS   int      `yaml:"debounce_ms,omitempty"`  // Delay before re-running a search as the user types
	SavedQueries []string `yaml:"saved_queries,omitempty"`
}

// WatcherConfig controls live reloading of the outline file.
type WatcherConfig struct {
	Enabled    *bool `yaml:"enabled,omitempty"` // nil means on
	DebounceMS int   `yaml:"debounce_ms,omitempty"`
}

// ExportConfig holds defaults for snapshot exports.
type ExportConfig struct {
	Format    string `yaml:"format,omitempty"` // png or svg
	OutputDir string `yaml:"output_dir,omitempty"`
}

// Config is the top-level configuration for canopy.
type Config struct {
	Workspaces []Workspace    `yaml:"workspaces,omitempty"`
	Favorites  map[int]string `yaml:"favorites,omitempty"` // Number key (1-9) -> workspace name
	UI         UIConfig       `yaml:"ui,omitempty"`
	Search     SearchConfig   `yaml:"search,omitempty"`
	Watcher    WatcherConfig  `yaml:"watcher,omitempty"`
	Export     ExportConfig   `yaml:"export,omitempty"`
}

// MaxSavedQueries caps the search history kept in the config file.
const MaxSavedQueries = 20

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Favorites: make(map[int]string),
		UI: UIConfig{
			Theme: "default",
		},
		Search: SearchConfig{
			DefaultMode: "highlight",
			DebounceMS:  120,
		},
		Watcher: WatcherConfig{
			DebounceMS: 200,
		},
		Export: ExportConfig{
			Format: "png",
		},
	}
}

// ConfigDir returns the XDG config directory for canopy.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "canopy")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "canopy")
}

// DataDir returns the XDG data directory for canopy.
func DataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "canopy")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "share", "canopy")
}

// StateDir returns the XDG state directory for canopy.
func StateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "canopy")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "state", "canopy")
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path.
// Returns DefaultConfig if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	// Ensure favorites map is initialized
	if cfg.Favorites == nil {
		cfg.Favorites = make(map[int]string)
	}

	// Expand ~ in workspace paths
	for i := range cfg.Workspaces {
		cfg.Workspaces[i].Path = expandHome(cfg.Workspaces[i].Path)
	}
	cfg.Export.OutputDir = expandHome(cfg.Export.OutputDir)

	return cfg, nil
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// FindWorkspace returns the workspace with the given name, or nil.
func (c Config) FindWorkspace(name string) *Workspace {
	for i := range c.Workspaces {
		if strings.EqualFold(c.Workspaces[i].Name, name) {
			return &c.Workspaces[i]
		}
	}
	return nil
}

// FavoriteWorkspace returns the workspace assigned to number key n (1-9), or nil.
func (c Config) FavoriteWorkspace(n int) *Workspace {
	name, ok := c.Favorites[n]
	if !ok {
		return nil
	}
	return c.FindWorkspace(name)
}

// SetFavorite assigns a workspace name to a number key (1-9).
func (c *Config) SetFavorite(n int, workspaceName string) {
	if c.Favorites == nil {
		c.Favorites = make(map[int]string)
	}
	if workspaceName == "" {
		delete(c.Favorites, n)
	} else {
		c.Favorites[n] = workspaceName
	}
}

// WorkspaceFavoriteNumber returns the favorite number (1-9) for a workspace name, or 0 if not favorited.
func (c Config) WorkspaceFavoriteNumber(name string) int {
	for n, wname := range c.Favorites {
		if strings.EqualFold(wname, name) {
			return n
		}
	}
	return 0
}

// Mode returns the configured default search mode, normalized to
// "highlight" or "filter".
func (s SearchConfig) Mode() string {
	if strings.EqualFold(strings.TrimSpace(s.DefaultMode), "filter") {
		return "filter"
	}
	return "highlight"
}

// Debounce returns the search debounce interval.
func (s SearchConfig) Debounce() time.Duration {
	if s.DebounceMS <= 0 {
		return 120 * time.Millisecond
	}
	return time.Duration(s.DebounceMS) * time.Millisecond
}

// RememberQuery prepends a query to the saved list, deduplicating and
// capping at MaxSavedQueries. Blank queries are ignored.
func (c *Config) RememberQuery(query string) {
	query = strings.TrimSpace(query)
	if query == "" {
		return
	}
	saved := []string{query}
	for _, q := range c.Search.SavedQueries {
		if q == query {
			continue
		}
		saved = append(saved, q)
		if len(saved) == MaxSavedQueries {
			break
		}
	}
	c.Search.SavedQueries = saved
}

// IsEnabled reports whether the file watcher should run. Unset means on.
func (w WatcherConfig) IsEnabled() bool {
	return w.Enabled == nil || *w.Enabled
}

// Debounce returns the watcher debounce interval.
func (w WatcherConfig) Debounce() time.Duration {
	if w.DebounceMS <= 0 {
		return 200 * time.Millisecond
	}
	return time.Duration(w.DebounceMS) * time.Millisecond
}

// ResolvedPath returns the workspace path with ~ expanded.
func (w Workspace) ResolvedPath() string {
	return expandHome(w.Path)
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
