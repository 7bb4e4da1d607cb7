package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "AVAPS", "Data", "Archive"), c.DefaultDir)
	assert.Equal(t, []string{".nc", ".netcdf", ".cdf"}, c.Extensions)
	assert.Equal(t, "info", c.LogLevel)
	assert.Empty(t, c.LogFile)
}

func TestLoadFileAndEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "ncattr.yaml")
	require.NoError(t, os.WriteFile(path, []byte("default_dir: /data/sondes\nlog_level: debug\n"), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/sondes", c.DefaultDir)
	assert.Equal(t, "debug", c.LogLevel)

	t.Setenv("NCATTR_LOG_LEVEL", "error")
	t.Setenv("NCATTR_EXTENSIONS", ".nc,.h5")
	c, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "error", c.LogLevel, "env overrides the file")
	assert.Equal(t, []string{".nc", ".h5"}, c.Extensions)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	c := Defaults()
	c.DefaultDir = "/archive"
	c.LogFile = "-"
	path, err := Save(c, "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".ncattr", "config.yaml"), path)

	loaded, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, c, loaded)
}
