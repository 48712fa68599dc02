package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadProjectConfigDefaultsWhenMissing(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()
	require.NoError(os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n"), 0o644))

	cfg, err := LoadProjectConfig(dir)
	require.NoError(err)
	require.Equal("go", cfg.Language)
	require.Equal(DefaultToolTimeout, cfg.ToolTimeout())
}

func TestLoadProjectConfigParsesYAML(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()
	require.NoError(os.MkdirAll(filepath.Join(dir, ConfigDirName), 0o755))
	content := "language: python\nread_only: true\ntool_timeout_seconds: 30\nignored_paths:\n  - vendor/**\n"
	require.NoError(os.WriteFile(projectFilePath(dir), []byte(content), 0o644))

	cfg, err := LoadProjectConfig(dir)
	require.NoError(err)
	require.Equal("python", cfg.Language)
	require.True(cfg.ReadOnly)
	require.Equal(30*time.Second, cfg.ToolTimeout())
	require.Equal([]string{"vendor/**"}, cfg.IgnoredPaths)
}

func TestLoadProjectConfigRejectsTooSmallTimeout(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()
	require.NoError(os.MkdirAll(filepath.Join(dir, ConfigDirName), 0o755))
	require.NoError(os.WriteFile(projectFilePath(dir), []byte("tool_timeout_seconds: 1\n"), 0o644))

	_, err := LoadProjectConfig(dir)
	require.Error(err)
}

func TestLoadProjectConfigRejectsMalformedYAML(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()
	require.NoError(os.MkdirAll(filepath.Join(dir, ConfigDirName), 0o755))
	require.NoError(os.WriteFile(projectFilePath(dir), []byte("language: [unterminated\n"), 0o644))

	_, err := LoadProjectConfig(dir)
	require.Error(err)
}

func TestDiscoverProjectRootWalksUpward(t *testing.T) {
	require := require.New(t)
	root := t.TempDir()
	require.NoError(os.MkdirAll(filepath.Join(root, ConfigDirName), 0o755))
	require.NoError(os.WriteFile(projectFilePath(root), []byte("language: go\n"), 0o644))

	nested := filepath.Join(root, "a", "b", "c")
	require.NoError(os.MkdirAll(nested, 0o755))

	found, err := DiscoverProjectRoot(nested)
	require.NoError(err)
	require.Equal(root, found)
}

func TestDefaultServerCommand(t *testing.T) {
	require := require.New(t)
	sc, ok := DefaultServerCommand("go")
	require.True(ok)
	require.Equal(2*time.Second, sc.Wait())

	_, ok = DefaultServerCommand("cobol")
	require.False(ok)
}
