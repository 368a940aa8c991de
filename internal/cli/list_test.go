package cli_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListCmd_EmptyCache(t *testing.T) {
	setupCLITest(t)

	output, err := runCommand(t, "list", "--cache-dir", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, output, "Cache is empty.")
}

func TestListCmd_ShowsEntries(t *testing.T) {
	setupCLITest(t)

	cacheDir := t.TempDir()
	seedEntry(t, cacheDir, "serde", "1.0.219", `{"root":"0:0"}`)
	seedEntry(t, cacheDir, "tokio", "1.38.0", "")

	output, err := runCommand(t, "list", "--cache-dir", cacheDir)
	require.NoError(t, err)

	assert.Contains(t, output, "Cached crates (2)")
	assert.Contains(t, output, "Name")
	assert.Contains(t, output, "serde")
	assert.Contains(t, output, "1.0.219")
	assert.Contains(t, output, "tokio")
	assert.Contains(t, output, "1.38.0")
}
