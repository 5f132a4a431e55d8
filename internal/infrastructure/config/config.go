// Package config provides configuration loading and management.
package config

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigDir is the directory name for kinship configuration.
	DefaultConfigDir = ".kinship"
	// DefaultConfigFile is the default config file name.
	DefaultConfigFile = "config.yaml"
	// DefaultTreesFile is the default trees registry file name.
	DefaultTreesFile = "trees.yaml"
	// DefaultTree is the tree used when none is named.
	DefaultTree = "default"
)

// Store backends.
const (
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
)

var (
	// reNonAlphanumeric matches characters that aren't alphanumeric or underscore.
	reNonAlphanumeric = regexp.MustCompile(`[^a-z0-9_]`)
	// reMultipleUnderscores matches consecutive underscores.
	reMultipleUnderscores = regexp.MustCompile(`_+`)
)

// Config holds static infrastructure configuration (read-only after init).
type Config struct {
	Store  StoreConfig  `yaml:"store"`
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
}

// StoreConfig selects and configures the person store.
type StoreConfig struct {
	Backend string       `yaml:"backend"`
	SQLite  SQLiteConfig `yaml:"sqlite,omitempty"`
	Badger  BadgerConfig `yaml:"badger,omitempty"`
}

// SQLiteConfig holds configuration for the SQLite person store.
type SQLiteConfig struct {
	// Path is the file path to the SQLite database. When empty it is
	// derived per tree with StorePathForTree.
	Path string `yaml:"path,omitempty"`
}

// BadgerConfig holds configuration for the Badger person store.
type BadgerConfig struct {
	// Path is the Badger data directory. When empty it is derived per tree.
	Path     string `yaml:"path,omitempty"`
	InMemory bool   `yaml:"in_memory,omitempty"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr string `yaml:"addr"`
	// Mode is the gin mode: debug, release or test.
	Mode string `yaml:"mode"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Backend: BackendSQLite,
		},
		Server: ServerConfig{
			Addr: ":8080",
			Mode: "release",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from the .kinship directory in the given path.
func Load(basePath string) (*Config, error) {
	configFile := ConfigFilePath(basePath)

	data, err := os.ReadFile(configFile)
	if os.IsNotExist(err) {
		return nil, errors.Newf("config file not found: %s (run 'kinship init' first)", configFile)
	}
	if err != nil {
		return nil, errors.Wrap(err, "reading config file")
	}

	// Start with defaults
	cfg := Default()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "parsing config file")
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if addr := os.Getenv("KINSHIP_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if level := os.Getenv("KINSHIP_LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
	if backend := os.Getenv("KINSHIP_STORE_BACKEND"); backend != "" {
		c.Store.Backend = backend
	}
}

// Validate rejects settings no component can act on.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendSQLite, BackendBadger:
	default:
		return errors.Newf("unknown store backend %q (want %s or %s)", c.Store.Backend, BackendSQLite, BackendBadger)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return errors.Newf("unknown server mode %q", c.Server.Mode)
	}
	return nil
}

// ConfigDir returns the path to the .kinship config directory.
func ConfigDir(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir)
}

// ConfigFilePath returns the path to the config file.
func ConfigFilePath(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir, DefaultConfigFile)
}

// TreesFilePath returns the path to the trees registry.
func TreesFilePath(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir, DefaultTreesFile)
}

// SanitizeTreeName converts a tree name to a safe directory name.
func SanitizeTreeName(name string) string {
	// Convert to lowercase
	name = strings.ToLower(name)

	// Replace spaces and hyphens with underscores
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.ReplaceAll(name, "-", "_")

	// Remove any characters that aren't alphanumeric or underscore
	name = reNonAlphanumeric.ReplaceAllString(name, "")

	// Remove consecutive underscores
	name = reMultipleUnderscores.ReplaceAllString(name, "_")

	name = strings.Trim(name, "_")

	if name == "" {
		return DefaultTree
	}

	return name
}

// TreeDir returns the data directory for a given tree.
func TreeDir(basePath, treeName string) string {
	return filepath.Join(basePath, DefaultConfigDir, "trees", SanitizeTreeName(treeName))
}

// StorePathForTree returns where the configured backend keeps a tree's data.
// An explicit path in the config is used as is for the default tree; other
// trees get a sibling path suffixed with the tree name, so trees never share
// a store.
func (c *Config) StorePathForTree(basePath, treeName string) string {
	switch c.Store.Backend {
	case BackendBadger:
		if c.Store.Badger.Path != "" {
			return explicitTreePath(c.Store.Badger.Path, treeName)
		}
		return filepath.Join(TreeDir(basePath, treeName), "badger")
	default:
		if c.Store.SQLite.Path != "" {
			return explicitTreePath(c.Store.SQLite.Path, treeName)
		}
		return filepath.Join(TreeDir(basePath, treeName), "kinship.db")
	}
}

func explicitTreePath(path, treeName string) string {
	tree := SanitizeTreeName(treeName)
	if tree == DefaultTree || path == ":memory:" {
		return path
	}
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "-" + tree + ext
}
