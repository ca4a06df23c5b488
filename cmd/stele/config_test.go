package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, home, content string) {
	t.Helper()

	dir := filepath.Join(home, "stele")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644))
}

func TestLoadMergedConfig(t *testing.T) {
	t.Run("defaults without a config file", func(t *testing.T) {
		t.Setenv("APPDATA", "")
		t.Setenv("XDG_CONFIG_HOME", t.TempDir())

		cfg, err := loadMergedConfig(options{})
		require.NoError(t, err)

		assert.Equal(t, 20, cfg.Timeout)
		assert.Equal(t, 2, cfg.MaxRetries)
		assert.Equal(t, "curl", cfg.CurlPath)
		assert.Empty(t, cfg.UserAgent)
		assert.False(t, cfg.NoImages)
		assert.False(t, cfg.NoCurl)
	})

	t.Run("file overrides defaults", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("APPDATA", "")
		t.Setenv("XDG_CONFIG_HOME", home)
		writeConfigFile(t, home, "timeout: 45\nuser_agent: file-agent\nno_images: true\n")

		cfg, err := loadMergedConfig(options{})
		require.NoError(t, err)

		assert.Equal(t, 45, cfg.Timeout)
		assert.Equal(t, "file-agent", cfg.UserAgent)
		assert.True(t, cfg.NoImages)
		assert.Equal(t, 2, cfg.MaxRetries)
	})

	t.Run("flags override the file", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("APPDATA", "")
		t.Setenv("XDG_CONFIG_HOME", home)
		writeConfigFile(t, home, "timeout: 45\nuser_agent: file-agent\n")

		cfg, err := loadMergedConfig(options{Timeout: 5, UserAgent: "flag-agent", NoCurl: true})
		require.NoError(t, err)

		assert.Equal(t, 5, cfg.Timeout)
		assert.Equal(t, "flag-agent", cfg.UserAgent)
		assert.True(t, cfg.NoCurl)
	})

	t.Run("explicit config path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "custom.yaml")
		require.NoError(t, os.WriteFile(path, []byte("curl_path: /opt/curl\n"), 0o644))

		cfg, err := loadMergedConfig(options{ConfigPath: path})
		require.NoError(t, err)
		assert.Equal(t, "/opt/curl", cfg.CurlPath)
	})

	t.Run("missing explicit config path errors", func(t *testing.T) {
		_, err := loadMergedConfig(options{ConfigPath: filepath.Join(t.TempDir(), "absent.yaml")})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to load config")
	})

	t.Run("malformed yaml errors", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("timeout: [unterminated\n"), 0o644))

		_, err := loadMergedConfig(options{ConfigPath: path})
		require.Error(t, err)
	})
}

func TestDefaultConfigPath(t *testing.T) {
	t.Run("xdg config home", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("APPDATA", "")
		t.Setenv("XDG_CONFIG_HOME", home)

		assert.Equal(t, filepath.Join(home, "stele", "config.yaml"), defaultConfigPath())
	})

	t.Run("appdata wins", func(t *testing.T) {
		appdata := t.TempDir()
		t.Setenv("APPDATA", appdata)

		assert.Equal(t, filepath.Join(appdata, "stele", "config.yaml"), defaultConfigPath())
	})
}
