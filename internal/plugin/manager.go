package plugin

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/ayusman/gesturetube/internal/log"
)

// ManifestFile is the manifest name expected in every plugin directory.
const ManifestFile = "plugin.json"

var (
	// ErrPluginNotFound is returned when a requested plugin cannot be found.
	ErrPluginNotFound = errors.New("plugin not found")
	// ErrInvalidManifest is returned for a manifest that cannot describe a runnable plugin.
	ErrInvalidManifest = errors.New("invalid plugin manifest")
)

// Manager keeps the set of installed plugins found under one directory.
type Manager struct {
	pluginDir string
	plugins   map[string]*Plugin
	mu        sync.RWMutex
}

// NewManager creates a new plugin Manager with the given plugin directory.
func NewManager(pluginDir string) *Manager {
	return &Manager{
		pluginDir: pluginDir,
		plugins:   make(map[string]*Plugin),
	}
}

// Discover replaces the known plugins with those currently installed. Each
// subdirectory holding a plugin.json is a candidate; broken ones are logged
// and skipped. A missing plugin directory means no plugins.
func (m *Manager) Discover() error {
	found := make(map[string]*Plugin)

	entries, err := os.ReadDir(m.pluginDir)
	switch {
	case err == nil:
	case errors.Is(err, os.ErrNotExist):
		entries = nil
	default:
		if info, statErr := os.Stat(m.pluginDir); statErr == nil && !info.IsDir() {
			entries = nil
			break
		}
		return fmt.Errorf("read plugin dir: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		p, err := loadPlugin(filepath.Join(m.pluginDir, entry.Name()))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			log.Warn("skipping plugin", "dir", entry.Name(), "err", err)
			continue
		}

		if prev, dup := found[p.Manifest.Name]; dup {
			log.Warn("duplicate plugin name, keeping first", "name", p.Manifest.Name, "kept", prev.Path, "skipped", p.Path)
			continue
		}
		found[p.Manifest.Name] = p
		log.Debug("plugin discovered", "name", p.Manifest.Name, "actions", p.Manifest.Actions)
	}

	m.mu.Lock()
	m.plugins = found
	m.mu.Unlock()
	return nil
}

// loadPlugin reads the manifest in dir. It returns an os.ErrNotExist error
// when dir has no manifest.
func loadPlugin(dir string) (*Plugin, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, err
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}
	if manifest.Name == "" || manifest.Executable == "" {
		return nil, fmt.Errorf("%w: name and executable are required", ErrInvalidManifest)
	}

	return &Plugin{
		Manifest:   manifest,
		Path:       dir,
		Executable: filepath.Join(dir, manifest.Executable),
	}, nil
}

// Get returns a plugin by name.
// Returns ErrPluginNotFound if the plugin does not exist.
func (m *Manager) Get(name string) (*Plugin, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	plugin, ok := m.plugins[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrPluginNotFound)
	}
	return plugin, nil
}

// List returns the discovered plugins sorted by name.
func (m *Manager) List() []*Plugin {
	m.mu.RLock()
	plugins := make([]*Plugin, 0, len(m.plugins))
	for _, plugin := range m.plugins {
		plugins = append(plugins, plugin)
	}
	m.mu.RUnlock()

	sort.Slice(plugins, func(i, j int) bool {
		return plugins[i].Manifest.Name < plugins[j].Manifest.Name
	})
	return plugins
}

// PluginDir returns the plugin directory path.
func (m *Manager) PluginDir() string {
	return m.pluginDir
}
