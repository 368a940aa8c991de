package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/cratedocs/cratedocs/internal/config"
)

// isolateHome points CRATEDOCS_HOME at a fresh temp dir and clears every
// CRATEDOCS_* override so each test sees only what it sets itself.
func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv(config.EnvHome, home)
	for _, name := range []string{
		config.EnvCacheDir,
		config.EnvRegistryURL,
		config.EnvGitBinary,
		config.EnvCargoBinary,
		config.EnvDocgenTimeout,
		config.EnvLogLevel,
		config.EnvLogFormat,
		config.EnvLogFile,
	} {
		t.Setenv(name, "")
	}
	return home
}

func TestDefaultConfig(t *testing.T) {
	isolateHome(t)

	cfg := config.DefaultConfig()

	assert.Equal(t, "https://crates.io", cfg.Registry.BaseURL)
	assert.NotEmpty(t, cfg.Registry.UserAgent)
	assert.Equal(t, "git", cfg.Git.Binary)
	assert.Equal(t, "cargo", cfg.Docgen.Cargo)
	assert.Equal(t, "nightly", cfg.Docgen.Toolchain)
	assert.Equal(t, 600, cfg.Docgen.TimeoutSeconds)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.NotEmpty(t, cfg.Cache.Dir, "default cache dir must be derived from the config dir")
}

func TestDefaultCacheDir(t *testing.T) {
	home := isolateHome(t)

	dir, err := config.DefaultCacheDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "cache"), dir)
}

func TestNew_MergesGlobalFile(t *testing.T) {
	home := isolateHome(t)

	content := "registry:\n  base_url: https://mirror.internal\n  user_agent: mirror\n"
	require.NoError(t, os.WriteFile(filepath.Join(home, "config.yaml"), []byte(content), 0o644))

	cfg := config.New()

	assert.Equal(t, "https://mirror.internal", cfg.Registry.BaseURL)
	assert.Equal(t, "mirror", cfg.Registry.UserAgent)
	// Untouched sections keep their defaults.
	assert.Equal(t, "nightly", cfg.Docgen.Toolchain)
}

func TestNew_EnvOverrides(t *testing.T) {
	isolateHome(t)

	t.Setenv(config.EnvCacheDir, "/srv/override-cache")
	t.Setenv(config.EnvRegistryURL, "https://registry.example")
	t.Setenv(config.EnvGitBinary, "/opt/git")
	t.Setenv(config.EnvCargoBinary, "/opt/cargo")
	t.Setenv(config.EnvDocgenTimeout, "120")
	t.Setenv(config.EnvLogLevel, "debug")
	t.Setenv(config.EnvLogFormat, "json")
	t.Setenv(config.EnvLogFile, "/tmp/cd.log")

	cfg := config.New()

	assert.Equal(t, "/srv/override-cache", cfg.Cache.Dir)
	assert.Equal(t, "https://registry.example", cfg.Registry.BaseURL)
	assert.Equal(t, "/opt/git", cfg.Git.Binary)
	assert.Equal(t, "/opt/cargo", cfg.Docgen.Cargo)
	assert.Equal(t, 120, cfg.Docgen.TimeoutSeconds)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "/tmp/cd.log", cfg.Logging.File)
}

func TestNew_EnvOverridesBeatFile(t *testing.T) {
	home := isolateHome(t)

	content := "registry:\n  base_url: https://from-file.example\n"
	require.NoError(t, os.WriteFile(filepath.Join(home, "config.yaml"), []byte(content), 0o644))
	t.Setenv(config.EnvRegistryURL, "https://from-env.example")

	cfg := config.New()

	assert.Equal(t, "https://from-env.example", cfg.Registry.BaseURL)
}

func TestNew_TimeoutEnvOutOfRangeIgnored(t *testing.T) {
	isolateHome(t)

	for _, bad := range []string{"5", "999999", "soon"} {
		t.Setenv(config.EnvDocgenTimeout, bad)
		cfg := config.New()
		assert.Equal(t, 600, cfg.Docgen.TimeoutSeconds,
			"out-of-range value %q must leave the default in place", bad)
	}
}

func TestSave_RoundTrip(t *testing.T) {
	home := isolateHome(t)

	cfg := config.New()
	cfg.Registry.BaseURL = "https://saved.example"
	cfg.Docgen.TimeoutSeconds = 900
	require.NoError(t, cfg.Save())

	path := filepath.Join(home, "config.yaml")
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var onDisk config.Config
	require.NoError(t, yaml.Unmarshal(data, &onDisk))
	assert.Equal(t, "https://saved.example", onDisk.Registry.BaseURL)
	assert.Equal(t, 900, onDisk.Docgen.TimeoutSeconds)

	// No temp file may survive the rename.
	_, statErr := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(statErr))
}

func TestSave_ConfigPathOverride(t *testing.T) {
	isolateHome(t)

	target := filepath.Join(t.TempDir(), "nested", "dir", "config.yaml")
	cfg := config.New()
	cfg.SetConfigPath(target)
	assert.Equal(t, target, cfg.ConfigPath())

	require.NoError(t, cfg.Save())
	assert.FileExists(t, target, "Save must create missing parent directories")
}

func TestValidate(t *testing.T) {
	isolateHome(t)

	mutate := func(f func(*config.Config)) *config.Config {
		cfg := config.New()
		f(cfg)
		return cfg
	}

	tests := []struct {
		name    string
		cfg     *config.Config
		wantErr string
	}{
		{
			name: "defaults are valid",
			cfg:  config.New(),
		},
		{
			name:    "empty cache dir",
			cfg:     mutate(func(c *config.Config) { c.Cache.Dir = "" }),
			wantErr: "cache.dir",
		},
		{
			name:    "unknown log level",
			cfg:     mutate(func(c *config.Config) { c.Logging.Level = "shouting" }),
			wantErr: "logging.level",
		},
		{
			name:    "unknown log format",
			cfg:     mutate(func(c *config.Config) { c.Logging.Format = "xml" }),
			wantErr: "logging.format",
		},
		{
			name:    "registry url without scheme",
			cfg:     mutate(func(c *config.Config) { c.Registry.BaseURL = "crates.io" }),
			wantErr: "registry.base_url",
		},
		{
			name:    "timeout below minimum",
			cfg:     mutate(func(c *config.Config) { c.Docgen.TimeoutSeconds = 1 }),
			wantErr: "timeout_seconds",
		},
		{
			name:    "timeout above maximum",
			cfg:     mutate(func(c *config.Config) { c.Docgen.TimeoutSeconds = 100000 }),
			wantErr: "timeout_seconds",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
