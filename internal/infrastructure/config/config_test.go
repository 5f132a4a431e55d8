package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeTreeName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "simple lowercase",
			input:    "smiths",
			expected: "smiths",
		},
		{
			name:     "uppercase converted",
			input:    "Smiths",
			expected: "smiths",
		},
		{
			name:     "spaces to underscores",
			input:    "the smiths",
			expected: "the_smiths",
		},
		{
			name:     "special characters removed",
			input:    "o'brien!",
			expected: "obrien",
		},
		{
			name:     "consecutive underscores collapsed",
			input:    "van--dyke",
			expected: "van_dyke",
		},
		{
			name:     "leading trailing underscores trimmed",
			input:    "-smith-",
			expected: "smith",
		},
		{
			name:     "empty string returns default",
			input:    "",
			expected: "default",
		},
		{
			name:     "only special chars returns default",
			input:    "!!!",
			expected: "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeTreeName(tt.input))
		})
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, BackendSQLite, cfg.Store.Backend)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "release", cfg.Server.Mode)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Log.JSON)
	assert.NoError(t, cfg.Validate())
}

func TestConfigPaths(t *testing.T) {
	assert.Equal(t, "/home/user/project/.kinship", ConfigDir("/home/user/project"))
	assert.Equal(t, "/home/user/project/.kinship/config.yaml", ConfigFilePath("/home/user/project"))
	assert.Equal(t, "/home/user/project/.kinship/trees.yaml", TreesFilePath("/home/user/project"))
}

func TestStorePathForTree(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "/p/.kinship/trees/the_smiths/kinship.db", cfg.StorePathForTree("/p", "The Smiths"))

	cfg.Store.Backend = BackendBadger
	assert.Equal(t, "/p/.kinship/trees/default/badger", cfg.StorePathForTree("/p", ""))

	cfg.Store.Badger.Path = "/data/badger"
	assert.Equal(t, "/data/badger", cfg.StorePathForTree("/p", ""))
	assert.Equal(t, "/data/badger", cfg.StorePathForTree("/p", DefaultTree))
	assert.Equal(t, "/data/badger-smiths", cfg.StorePathForTree("/p", "smiths"))

	cfg.Store.Backend = BackendSQLite
	cfg.Store.SQLite.Path = "/data/family.db"
	assert.Equal(t, "/data/family.db", cfg.StorePathForTree("/p", ""))
	assert.Equal(t, "/data/family-the_smiths.db", cfg.StorePathForTree("/p", "The Smiths"))
	assert.NotEqual(t, cfg.StorePathForTree("/p", "smiths"), cfg.StorePathForTree("/p", "jones"))

	cfg.Store.SQLite.Path = ":memory:"
	assert.Equal(t, ":memory:", cfg.StorePathForTree("/p", "smiths"))
}

func TestLoad(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(t.TempDir())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "kinship init")
	})

	t.Run("default file", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, WriteDefault(dir))

		cfg, err := Load(dir)
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})

	t.Run("write twice fails", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, WriteDefault(dir))
		assert.Error(t, WriteDefault(dir))
	})

	t.Run("partial file keeps defaults", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.MkdirAll(ConfigDir(dir), 0755))
		require.NoError(t, os.WriteFile(ConfigFilePath(dir), []byte("store:\n  backend: badger\n"), 0644))

		cfg, err := Load(dir)
		require.NoError(t, err)
		assert.Equal(t, BackendBadger, cfg.Store.Backend)
		assert.Equal(t, ":8080", cfg.Server.Addr)
	})

	t.Run("env overrides", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, WriteDefault(dir))
		t.Setenv("KINSHIP_ADDR", "127.0.0.1:9999")
		t.Setenv("KINSHIP_LOG_LEVEL", "debug")
		t.Setenv("KINSHIP_STORE_BACKEND", "badger")

		cfg, err := Load(dir)
		require.NoError(t, err)
		assert.Equal(t, "127.0.0.1:9999", cfg.Server.Addr)
		assert.Equal(t, "debug", cfg.Log.Level)
		assert.Equal(t, BackendBadger, cfg.Store.Backend)
	})

	t.Run("unknown backend", func(t *testing.T) {
		dir := t.TempDir()
		cfg := Default()
		cfg.Store.Backend = "postgres"
		require.NoError(t, Write(dir, cfg))

		_, err := Load(dir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "postgres")
	})
}

func TestTreesConfig(t *testing.T) {
	dir := t.TempDir()

	trees, err := LoadTrees(dir)
	require.NoError(t, err)
	assert.Empty(t, trees.Trees)
	_, err = trees.Get("smiths")
	assert.Error(t, err)

	trees.Add("smiths", TreeEntry{Description: "Dad's side"})
	trees.Add("jones", TreeEntry{})
	require.NoError(t, trees.Save(dir))

	_, err = os.Stat(filepath.Join(dir, ".kinship", "trees.yaml"))
	require.NoError(t, err)

	loaded, err := LoadTrees(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"jones", "smiths"}, loaded.Names())
	entry, err := loaded.Get("smiths")
	require.NoError(t, err)
	assert.Equal(t, "Dad's side", entry.Description)

	_, err = loaded.Get("browns")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jones, smiths")

	loaded.Remove("jones")
	assert.False(t, loaded.Exists("jones"))
	assert.True(t, loaded.Exists("smiths"))
}
