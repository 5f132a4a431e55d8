package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// TreesConfig is the registry of named family trees in a project (read/write).
type TreesConfig struct {
	Trees map[string]TreeEntry `yaml:"trees,omitempty"`
}

// TreeEntry describes one family tree.
type TreeEntry struct {
	Description string `yaml:"description,omitempty"`
}

// LoadTrees loads the tree registry from the .kinship directory.
func LoadTrees(basePath string) (*TreesConfig, error) {
	data, err := os.ReadFile(TreesFilePath(basePath))
	if os.IsNotExist(err) {
		// Return empty config if file doesn't exist
		return &TreesConfig{
			Trees: make(map[string]TreeEntry),
		}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "reading trees file")
	}

	var cfg TreesConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "parsing trees file")
	}

	if cfg.Trees == nil {
		cfg.Trees = make(map[string]TreeEntry)
	}

	return &cfg, nil
}

// Save writes the tree registry.
func (t *TreesConfig) Save(basePath string) error {
	configDir := filepath.Join(basePath, DefaultConfigDir)

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return errors.Wrap(err, "creating config directory")
	}

	data, err := yaml.Marshal(t)
	if err != nil {
		return errors.Wrap(err, "marshaling trees config")
	}

	if err := os.WriteFile(TreesFilePath(basePath), data, 0600); err != nil {
		return errors.Wrap(err, "writing trees file")
	}

	return nil
}

// Add registers a tree.
func (t *TreesConfig) Add(name string, entry TreeEntry) {
	if t.Trees == nil {
		t.Trees = make(map[string]TreeEntry)
	}
	t.Trees[name] = entry
}

// Remove unregisters a tree.
func (t *TreesConfig) Remove(name string) {
	if t.Trees != nil {
		delete(t.Trees, name)
	}
}

// Get returns the entry for a specific tree.
func (t *TreesConfig) Get(name string) (*TreeEntry, error) {
	if len(t.Trees) == 0 {
		return nil, errors.New("no trees configured")
	}

	entry, ok := t.Trees[name]
	if !ok {
		names := t.Names()
		if len(names) > 5 {
			names = append(names[:5], "...")
		}
		return nil, errors.Newf("tree %q not found (available: %s)", name, strings.Join(names, ", "))
	}

	return &entry, nil
}

// Exists checks if a tree is registered.
func (t *TreesConfig) Exists(name string) bool {
	_, ok := t.Trees[name]
	return ok
}

// Names returns the registered tree names in sorted order.
func (t *TreesConfig) Names() []string {
	names := make([]string, 0, len(t.Trees))
	for name := range t.Trees {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
