package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeManifest writes content as Cargo.toml inside dir and returns its path.
func writeManifest(t *testing.T, dir, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0750))
	path := filepath.Join(dir, ManifestName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

// writeMember creates a member directory with a minimal package manifest.
func writeMember(t *testing.T, root, rel string) {
	t.Helper()
	writeManifest(t, filepath.Join(root, filepath.FromSlash(rel)),
		"[package]\nname = \""+MemberName(rel)+"\"\nversion = \"0.1.0\"\n")
}

func TestIsWorkspace(t *testing.T) {
	t.Run("workspace with members", func(t *testing.T) {
		path := writeManifest(t, t.TempDir(), `
[workspace]
members = ["crates/a", "crates/b"]
`)
		ws, err := IsWorkspace(path)
		require.NoError(t, err)
		assert.True(t, ws)
	})

	t.Run("plain package", func(t *testing.T) {
		path := writeManifest(t, t.TempDir(), `
[package]
name = "solo"
version = "1.0.0"
`)
		ws, err := IsWorkspace(path)
		require.NoError(t, err)
		assert.False(t, ws)
	})

	t.Run("workspace table without members", func(t *testing.T) {
		path := writeManifest(t, t.TempDir(), `
[package]
name = "root"
version = "1.0.0"

[workspace]
`)
		ws, err := IsWorkspace(path)
		require.NoError(t, err)
		assert.False(t, ws)
	})

	t.Run("missing manifest", func(t *testing.T) {
		_, err := IsWorkspace(filepath.Join(t.TempDir(), ManifestName))
		assert.Error(t, err)
	})

	t.Run("malformed manifest", func(t *testing.T) {
		path := writeManifest(t, t.TempDir(), "[workspace\nmembers = [")
		_, err := IsWorkspace(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parsing manifest")
	})
}

func TestParseIgnoresUnknownKeys(t *testing.T) {
	m, err := Parse([]byte(`
[package]
name = "inherits"
edition = "2021"

[dependencies]
serde = { version = "1", features = ["derive"] }
`))
	require.NoError(t, err)
	require.NotNil(t, m.Package)
	assert.Equal(t, "inherits", m.Package.Name)
	assert.False(t, m.IsWorkspace())
}

func TestMembers(t *testing.T) {
	t.Run("declaration order preserved", func(t *testing.T) {
		path := writeManifest(t, t.TempDir(), `
[workspace]
members = ["zeta", "alpha", "crates/mid"]
`)
		members, err := Members(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"zeta", "alpha", "crates/mid"}, members)
	})

	t.Run("glob entries expand sorted", func(t *testing.T) {
		root := t.TempDir()
		writeMember(t, root, "crates/bbb")
		writeMember(t, root, "crates/aaa")
		// Directory without a manifest must not qualify.
		require.NoError(t, os.MkdirAll(filepath.Join(root, "crates", "not-a-crate"), 0750))

		path := writeManifest(t, root, `
[workspace]
members = ["tools/cli", "crates/*"]
`)
		writeMember(t, root, "tools/cli")

		members, err := Members(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"tools/cli", "crates/aaa", "crates/bbb"}, members)
	})

	t.Run("exclude list honored", func(t *testing.T) {
		root := t.TempDir()
		writeMember(t, root, "crates/keep")
		writeMember(t, root, "crates/skip")

		path := writeManifest(t, root, `
[workspace]
members = ["crates/*"]
exclude = ["crates/skip"]
`)
		members, err := Members(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"crates/keep"}, members)
	})

	t.Run("non-workspace yields nothing", func(t *testing.T) {
		path := writeManifest(t, t.TempDir(), `
[package]
name = "solo"
version = "1.0.0"
`)
		members, err := Members(path)
		require.NoError(t, err)
		assert.Empty(t, members)
	})
}

func TestMemberName(t *testing.T) {
	assert.Equal(t, "http-util", MemberName("crates/http-util"))
	assert.Equal(t, "http-util", MemberName("crates/http-util/"))
	assert.Equal(t, "solo", MemberName("solo"))
	assert.Equal(t, "deep", MemberName("a/b/c/deep"))
}

func TestFindCrateRoot(t *testing.T) {
	t.Run("walks up to the manifest", func(t *testing.T) {
		root := t.TempDir()
		writeManifest(t, root, "[package]\nname = \"top\"\nversion = \"0.1.0\"\n")
		nested := filepath.Join(root, "src", "deep")
		require.NoError(t, os.MkdirAll(nested, 0750))

		found, err := FindCrateRoot(nested)
		require.NoError(t, err)
		assert.Equal(t, root, found)
	})

	t.Run("no manifest anywhere", func(t *testing.T) {
		_, err := FindCrateRoot(t.TempDir())
		assert.ErrorIs(t, err, ErrNoCrate)
	})
}
