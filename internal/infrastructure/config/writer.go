package config

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// DefaultConfigYAML is the default configuration content.
const DefaultConfigYAML = `# Kinship Configuration

store:
  backend: sqlite        # sqlite or badger (or set KINSHIP_STORE_BACKEND)
  # sqlite:
  #   path: /var/lib/kinship/family.db
  # badger:
  #   path: /var/lib/kinship/badger
  #   in_memory: false

server:
  addr: ":8080"          # or set KINSHIP_ADDR
  mode: release          # gin mode: debug, release or test

log:
  level: info            # or set KINSHIP_LOG_LEVEL
  json: false
`

// WriteDefault creates the .kinship directory and writes a default config file.
func WriteDefault(basePath string) error {
	configDir := filepath.Join(basePath, DefaultConfigDir)
	configFile := filepath.Join(configDir, DefaultConfigFile)

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return errors.Wrap(err, "creating config directory")
	}

	if _, err := os.Stat(configFile); err == nil {
		return errors.Newf("config file already exists: %s", configFile)
	}

	if err := os.WriteFile(configFile, []byte(DefaultConfigYAML), 0644); err != nil {
		return errors.Wrap(err, "writing config file")
	}

	return nil
}

// Write writes the given config to the config file.
func Write(basePath string, cfg *Config) error {
	configDir := filepath.Join(basePath, DefaultConfigDir)
	configFile := filepath.Join(configDir, DefaultConfigFile)

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return errors.Wrap(err, "creating config directory")
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "marshaling config")
	}

	if err := os.WriteFile(configFile, data, 0644); err != nil {
		return errors.Wrap(err, "writing config file")
	}

	return nil
}

// Exists checks if a kinship config exists in the given path.
func Exists(basePath string) bool {
	_, err := os.Stat(ConfigFilePath(basePath))
	return err == nil
}
