package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, DefaultFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
log:
  level: debug
extract:
  mode: line
compile:
  dir: contracts
  workers: 3
  format: yaml
  exclude: [lib]
serve:
  addr: 127.0.0.1:9000
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format, "unset keys keep their defaults")
	assert.Equal(t, "line", cfg.Extract.Mode)
	assert.Equal(t, "contracts", cfg.Compile.Dir)
	assert.Equal(t, 3, cfg.Compile.Workers)
	assert.Equal(t, "yaml", cfg.Compile.Format)
	assert.Equal(t, ".sol", cfg.Compile.Extension)
	assert.Equal(t, []string{"lib"}, cfg.Compile.Exclude)
	assert.Equal(t, "127.0.0.1:9000", cfg.Serve.Addr)
	assert.Equal(t, int64(1<<20), cfg.Serve.MaxBodyBytes)
}

func TestLoadFromWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "compile:\n  workers: 2\n")
	chdir(t, dir)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Compile.Workers)
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "log:\n  level: debug\ncompile:\n  workers: 2\n")

	t.Setenv("INTENTSPEC_LOG_LEVEL", "warn")
	t.Setenv("INTENTSPEC_LOG_FORMAT", "json")
	t.Setenv("INTENTSPEC_ADDR", ":7000")
	t.Setenv("INTENTSPEC_WORKERS", "not-a-number")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, ":7000", cfg.Serve.Addr)
	assert.Equal(t, 2, cfg.Compile.Workers, "malformed integers are ignored")
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		path    string
		content string
		wantErr string
	}{
		{name: "missing explicit file", path: filepath.Join(dir, "missing.yml"), wantErr: "read config"},
		{name: "malformed yaml", content: "log: [", wantErr: "parse config"},
		{name: "bad level", content: "log:\n  level: loud\n", wantErr: "invalid config"},
		{name: "bad mode", content: "extract:\n  mode: block\n", wantErr: "invalid config"},
		{name: "zero workers", content: "compile:\n  workers: 0\n", wantErr: "invalid config"},
		{name: "extension without dot", content: "compile:\n  extension: sol\n", wantErr: "invalid config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := tt.path
			if path == "" {
				path = writeConfig(t, t.TempDir(), tt.content)
			}
			_, err := Load(path)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
