package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/orocos/internal/config"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("target", "", "")
	fs.String("naming", "", "")
	fs.String("log-level", "", "")
	return fs
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PKG_CONFIG_PATH", "")

	v, err := config.New(nil)
	require.NoError(t, err)
	cfg, err := config.Load(v, "")
	require.NoError(t, err)

	assert.Equal(t, "gnulinux", cfg.Target)
	assert.Empty(t, cfg.Naming)
	assert.False(t, cfg.DisableSigchld)

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("OROCOS_TARGET", "xenomai")
	t.Setenv("OROCOS_NAMING", "redis://localhost:6379/0")
	t.Setenv("OROCOS_DISABLE_SIGCHLD", "1")
	t.Setenv("OROCOS_LOG_LEVEL", "debug")
	t.Setenv("PKG_CONFIG_PATH", "/opt/a"+string(os.PathListSeparator)+string(os.PathListSeparator)+"/opt/b")

	v, err := config.New(nil)
	require.NoError(t, err)
	cfg, err := config.Load(v, "")
	require.NoError(t, err)

	assert.Equal(t, "xenomai", cfg.Target)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Naming)
	assert.True(t, cfg.DisableSigchld)
	assert.Equal(t, []string{"/opt/a", "/opt/b"}, cfg.PkgConfigDirs())

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoad_FlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("OROCOS_TARGET", "xenomai")

	fs := newFlags()
	require.NoError(t, fs.Parse([]string{"--target", "macosx"}))

	v, err := config.New(fs)
	require.NoError(t, err)
	cfg, err := config.Load(v, "")
	require.NoError(t, err)
	assert.Equal(t, "macosx", cfg.Target)
}

func TestLoad_File(t *testing.T) {
	t.Setenv("OROCOS_TARGET", "")
	path := filepath.Join(t.TempDir(), "orocos.yaml")
	require.NoError(t, os.WriteFile(path, []byte("naming: redis://db:6379\nlog_level: warn\n"), 0644))

	v, err := config.New(newFlags())
	require.NoError(t, err)
	cfg, err := config.Load(v, path)
	require.NoError(t, err)
	assert.Equal(t, "redis://db:6379", cfg.Naming)
	assert.Equal(t, "warn", cfg.LogLevel)

	_, err = config.Load(v, filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidLevel(t *testing.T) {
	t.Setenv("OROCOS_LOG_LEVEL", "loud")

	v, err := config.New(nil)
	require.NoError(t, err)
	_, err = config.Load(v, "")
	assert.ErrorContains(t, err, "invalid log level")
}
