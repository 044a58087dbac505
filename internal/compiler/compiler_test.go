package compiler

import (
	"context"
	"encoding/json"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/intentspec/internal/generator"
	"github.com/example/intentspec/internal/render"
)

const vaultSource = `pragma solidity ^0.8.0;
/// @custom:agent-version 1.0
contract Vault {
    /**
     * @custom:agent-intent Deposit tokens.
     */
    function deposit(uint256 amount) external {}
}
`

const tokenSource = `contract Token {
    /// @custom:agent-intent Move tokens.
    function transfer(address to, uint256 amount) external returns (bool) {}
}
`

const librarySource = `library MathLib {
    /// @custom:agent-intent Add.
    function add(uint256 a, uint256 b) internal pure returns (uint256) {}
}
`

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCompile(t *testing.T) {
	for _, workers := range []int{1, 4} {
		root := writeTree(t, map[string]string{
			"Vault.sol":          vaultSource,
			"tokens/Token.sol":   tokenSource,
			"lib/MathLib.sol":    librarySource,
			"README.md":          "# not solidity",
			"node_modules/X.sol": vaultSource,
		})

		summary, err := Compile(context.Background(), Options{Root: root, Workers: workers, Logger: quietLogger()})
		require.NoError(t, err)

		outDir := filepath.Join(root, DefaultOutDir)
		assert.Equal(t, 3, summary.Files)
		assert.Equal(t, 2, summary.Written)
		assert.Equal(t, 1, summary.Skipped)
		assert.Zero(t, summary.Collisions)
		assert.Equal(t, []Skip{{Path: filepath.Join(root, "lib", "MathLib.sol"), Reason: "no_contract_declaration"}}, summary.Skips)
		assert.Equal(t, []string{filepath.Join(outDir, "Token.json"), filepath.Join(outDir, "Vault.json")}, summary.Outputs)
		assert.Equal(t, int64(len(vaultSource)+len(tokenSource)+len(librarySource)), summary.Bytes)

		entries, err := os.ReadDir(outDir)
		require.NoError(t, err)
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		assert.Equal(t, []string{"Token.json", "Vault.json"}, names, "no temp files are left behind")

		data, err := os.ReadFile(filepath.Join(outDir, "Token.json"))
		require.NoError(t, err)
		var spec generator.IntentSpec
		require.NoError(t, json.Unmarshal(data, &spec))
		assert.Equal(t, "Token", spec.Contract.Name)
		assert.Equal(t, "0xa9059cbb", spec.Functions[0].Signature)
	}
}

func TestCompileSkipsFilesWithoutIntent(t *testing.T) {
	root := writeTree(t, map[string]string{
		"Plain.sol": "contract Plain { function f() external {} }",
	})

	summary, err := Compile(context.Background(), Options{Root: root, Logger: quietLogger()})
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Written)
	assert.Equal(t, []Skip{{Path: filepath.Join(root, "Plain.sol"), Reason: "no_intent_functions"}}, summary.Skips)
}

func TestCompileYAMLAndOutDir(t *testing.T) {
	root := writeTree(t, map[string]string{"Vault.sol": vaultSource})
	out := filepath.Join(t.TempDir(), "specs")

	summary, err := Compile(context.Background(), Options{
		Root:   root,
		OutDir: out,
		Format: render.FormatYAML,
		Logger: quietLogger(),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(out, "Vault.yaml")}, summary.Outputs)

	data, err := os.ReadFile(filepath.Join(out, "Vault.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "name: Vault")
}

func TestCompileCollision(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a/Vault.sol": vaultSource,
		"b/Vault.sol": vaultSource,
	})

	summary, err := Compile(context.Background(), Options{Root: root, Workers: 2, Logger: quietLogger()})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Written)
	assert.Equal(t, 1, summary.Collisions)
	assert.Len(t, summary.Outputs, 1)
}

func TestCompileCancelled(t *testing.T) {
	root := writeTree(t, map[string]string{"Vault.sol": vaultSource})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := Compile(ctx, Options{Root: root, Logger: quietLogger()})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, summary.Files)
	assert.Zero(t, summary.Written)
}

func TestFindSources(t *testing.T) {
	root := writeTree(t, map[string]string{
		"b.sol":          "",
		"a.sol":          "",
		"x.vy":           "",
		".git/h.sol":     "",
		"vendor/c.sol":   "",
		"nested/d/e.sol": "",
	})

	files, err := FindSources(root, ".sol", []string{".git", "vendor"}, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "a.sol"),
		filepath.Join(root, "b.sol"),
		filepath.Join(root, "nested", "d", "e.sol"),
	}, files)

	_, err = FindSources(filepath.Join(root, "missing"), ".sol", nil, quietLogger())
	assert.Error(t, err)
}

func TestFindSourcesSkipsUnreadableDirectory(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}
	root := writeTree(t, map[string]string{
		"a.sol":        "",
		"locked/b.sol": "",
	})
	locked := filepath.Join(root, "locked")
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	files, err := FindSources(root, ".sol", nil, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "a.sol")}, files)
}

func TestSkipUnreadable(t *testing.T) {
	root := writeTree(t, map[string]string{"sub/x.sol": ""})
	sub := filepath.Join(root, "sub")
	file := filepath.Join(sub, "x.sol")
	readErr := fs.ErrPermission

	dirInfo, err := os.Stat(sub)
	require.NoError(t, err)
	fileInfo, err := os.Stat(file)
	require.NoError(t, err)
	rootInfo, err := os.Stat(root)
	require.NoError(t, err)

	tests := []struct {
		name string
		path string
		d    fs.DirEntry
		want error
	}{
		{name: "subdirectory is skipped", path: sub, d: fs.FileInfoToDirEntry(dirInfo), want: filepath.SkipDir},
		{name: "file is ignored", path: file, d: fs.FileInfoToDirEntry(fileInfo), want: nil},
		{name: "root fails", path: root, d: fs.FileInfoToDirEntry(rootInfo), want: readErr},
		{name: "missing entry fails", path: sub, d: nil, want: readErr},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := skipUnreadable(quietLogger(), root, tt.path, tt.d, readErr)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompileContinuesPastUnreadableDirectory(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}
	root := writeTree(t, map[string]string{
		"Vault.sol":        vaultSource,
		"locked/Token.sol": tokenSource,
	})
	locked := filepath.Join(root, "locked")
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	summary, err := Compile(context.Background(), Options{Root: root, Logger: quietLogger()})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Written)
}
