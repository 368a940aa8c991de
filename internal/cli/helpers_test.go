package cli_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cratedocs/cratedocs/internal/cli"
	"github.com/cratedocs/cratedocs/internal/config"
	"github.com/cratedocs/cratedocs/internal/storage"
)

// setupCLITest isolates a test from the real home directory and registers
// cleanup for the global configuration state.
func setupCLITest(t *testing.T) {
	t.Helper()
	t.Setenv(config.EnvHome, t.TempDir())
	t.Setenv(config.EnvLogLevel, "error")
	t.Setenv(config.EnvProjectDir, "")
	config.ResetGlobalConfigForTest()
	t.Cleanup(func() {
		config.ResetGlobalConfigForTest()
		config.SetResolvedProjectDir("")
	})
}

// runCommand executes the CLI with args and returns its combined output.
func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	cmd := cli.NewRootCmd("test")
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// seedEntry places a cached crate with a package manifest, and docs when
// docs is non-empty, directly into the store under cacheDir.
func seedEntry(t *testing.T, cacheDir, name, version, docs string) {
	t.Helper()
	store, err := storage.New(cacheDir)
	require.NoError(t, err)

	key := storage.NewKey(name, version)
	srcDir := store.SourceDir(key)
	require.NoError(t, os.MkdirAll(srcDir, 0o750))

	manifest := "[package]\nname = \"" + name + "\"\nversion = \"" + version + "\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "Cargo.toml"), []byte(manifest), 0o644))

	if docs != "" {
		tmp := filepath.Join(t.TempDir(), "docs.json")
		require.NoError(t, os.WriteFile(tmp, []byte(docs), 0o644))
		require.NoError(t, store.InstallDocs(key, tmp))
	}
}

// seedWorkspaceEntry places a cached workspace crate whose members each
// carry their own package manifest. Docs are installed for the listed
// members only.
func seedWorkspaceEntry(t *testing.T, cacheDir, name, version string, members map[string]string) {
	t.Helper()
	store, err := storage.New(cacheDir)
	require.NoError(t, err)

	key := storage.NewKey(name, version)
	srcDir := store.SourceDir(key)
	require.NoError(t, os.MkdirAll(srcDir, 0o750))

	manifest := "[workspace]\nmembers = ["
	first := true
	for member := range members {
		if !first {
			manifest += ", "
		}
		manifest += "\"" + member + "\""
		first = false
	}
	manifest += "]\n"
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "Cargo.toml"), []byte(manifest), 0o644))

	for member, docs := range members {
		memberDir := filepath.Join(srcDir, member)
		require.NoError(t, os.MkdirAll(memberDir, 0o750))
		memberManifest := "[package]\nname = \"" + filepath.Base(member) + "\"\nversion = \"" + version + "\"\n"
		require.NoError(t, os.WriteFile(filepath.Join(memberDir, "Cargo.toml"), []byte(memberManifest), 0o644))

		if docs != "" {
			tmp := filepath.Join(t.TempDir(), "member.json")
			require.NoError(t, os.WriteFile(tmp, []byte(docs), 0o644))
			require.NoError(t, store.InstallMemberDocs(key, filepath.Base(member), tmp))
		}
	}
}
