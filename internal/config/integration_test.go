package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubHome points the OS home at a temp directory and clears CRATEDOCS_HOME
// so directory resolution never touches the real home.
func stubHome(t *testing.T) string {
	t.Helper()
	tmpHome := t.TempDir()
	t.Setenv("HOME", tmpHome)
	t.Setenv("USERPROFILE", tmpHome) // Windows uses USERPROFILE
	t.Setenv(EnvHome, "")
	SetResolvedProjectDir("")
	ResetGlobalConfigForTest()
	t.Cleanup(func() {
		ResetGlobalConfigForTest()
		SetResolvedProjectDir("")
	})
	return tmpHome
}

func TestGlobalConfig(t *testing.T) {
	stubHome(t)

	// Test GetGlobalConfig initializes if needed
	cfg := GetGlobalConfig()
	assert.NotNil(t, cfg)
	assert.Equal(t, "info", cfg.Logging.Level)

	// Test that subsequent calls return the same instance
	cfg2 := GetGlobalConfig()
	assert.Same(t, cfg, cfg2)

	// Test ResetGlobalConfigForTest resets the instance
	ResetGlobalConfigForTest()
	cfg3 := GetGlobalConfig()
	assert.NotSame(t, cfg, cfg3)
}

func TestConfigGetters(t *testing.T) {
	stubHome(t)

	cfg := GetGlobalConfig()
	cfg.Cache.Dir = "/tmp/test-cache"
	cfg.Logging.Level = "debug"
	cfg.Logging.File = "/tmp/test.log"

	assert.Equal(t, "/tmp/test-cache", GetCacheDir())
	assert.Equal(t, "debug", GetLogLevel())
	assert.Equal(t, "/tmp/test.log", GetLogFile())
}

func TestEnsureConfigDir(t *testing.T) {
	tmpHome := stubHome(t)

	err := EnsureConfigDir()
	require.NoError(t, err)

	configDir := filepath.Join(tmpHome, ".cratedocs")
	stat, err := os.Stat(configDir)
	require.NoError(t, err)
	assert.True(t, stat.IsDir())
}

func TestEnsureLogDir(t *testing.T) {
	stubHome(t)
	tmpDir := t.TempDir()

	cfg := GetGlobalConfig()
	cfg.Logging.File = filepath.Join(tmpDir, "logs", "subdir", "test.log")

	err := EnsureLogDir()
	require.NoError(t, err)

	logDir := filepath.Join(tmpDir, "logs", "subdir")
	stat, err := os.Stat(logDir)
	require.NoError(t, err)
	assert.True(t, stat.IsDir())
}

func TestEnsureLogDirNoFileConfigured(t *testing.T) {
	stubHome(t)

	cfg := GetGlobalConfig()
	cfg.Logging.File = ""

	assert.NoError(t, EnsureLogDir())
}

func TestEnsureLogDirError(t *testing.T) {
	stubHome(t)

	// Use an existing file as a path component so MkdirAll must fail.
	tmpFile, err := os.CreateTemp("", "test-file")
	require.NoError(t, err)
	tmpFile.Close()
	defer os.Remove(tmpFile.Name())

	cfg := GetGlobalConfig()
	cfg.Logging.File = filepath.Join(tmpFile.Name(), "subdir", "test.log")

	err = EnsureLogDir()
	assert.Error(t, err)
}

func TestGetConfigDir(t *testing.T) {
	tmpHome := stubHome(t)

	dir, err := GetConfigDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tmpHome, ".cratedocs"), dir)
}

func TestGetConfigDirEnvOverride(t *testing.T) {
	stubHome(t)
	override := t.TempDir()
	t.Setenv(EnvHome, override)

	dir, err := GetConfigDir()
	require.NoError(t, err)
	assert.Equal(t, override, dir)
}

func TestInitGlobalConfigWithProject(t *testing.T) {
	t.Run("project_config_overrides_global_cache_dir", func(t *testing.T) {
		ResetGlobalConfigForTest()
		t.Cleanup(func() {
			ResetGlobalConfigForTest()
			SetResolvedProjectDir("")
		})

		// Set up isolated global config directory via CRATEDOCS_HOME.
		globalDir := t.TempDir()
		t.Setenv(EnvHome, globalDir)

		globalCfg := "cache:\n  dir: /srv/global-cache\n"
		require.NoError(t, os.WriteFile(filepath.Join(globalDir, "config.yaml"), []byte(globalCfg), 0o644))

		// Set up project directory with a cache override.
		projectDir := filepath.Join(t.TempDir(), ".cratedocs")
		require.NoError(t, os.MkdirAll(projectDir, 0o755))
		projectCfg := "cache:\n  dir: /srv/project-cache\n"
		require.NoError(t, os.WriteFile(filepath.Join(projectDir, "config.yaml"), []byte(projectCfg), 0o644))

		SetResolvedProjectDir(projectDir)
		InitGlobalConfig()
		cfg := GetGlobalConfig()

		require.NotNil(t, cfg)
		assert.Equal(t, "/srv/project-cache", cfg.Cache.Dir,
			"project cache dir should override global cache dir")
	})

	t.Run("project_config_inherits_registry_from_global", func(t *testing.T) {
		ResetGlobalConfigForTest()
		t.Cleanup(func() {
			ResetGlobalConfigForTest()
			SetResolvedProjectDir("")
		})

		globalDir := t.TempDir()
		t.Setenv(EnvHome, globalDir)

		globalCfg := "registry:\n  base_url: https://mirror.internal\n  user_agent: mirror-client\n"
		require.NoError(t, os.WriteFile(filepath.Join(globalDir, "config.yaml"), []byte(globalCfg), 0o644))

		// Project only overrides the cache dir, not the registry.
		projectDir := filepath.Join(t.TempDir(), ".cratedocs")
		require.NoError(t, os.MkdirAll(projectDir, 0o755))
		projectCfg := "cache:\n  dir: /srv/project-cache\n"
		require.NoError(t, os.WriteFile(filepath.Join(projectDir, "config.yaml"), []byte(projectCfg), 0o644))

		SetResolvedProjectDir(projectDir)
		InitGlobalConfig()
		cfg := GetGlobalConfig()

		require.NotNil(t, cfg)
		assert.Equal(t, "https://mirror.internal", cfg.Registry.BaseURL,
			"registry should be inherited from global config")
		assert.Equal(t, "/srv/project-cache", cfg.Cache.Dir,
			"cache dir should come from project config")
	})

	t.Run("empty_project_dir_produces_same_as_plain_New", func(t *testing.T) {
		ResetGlobalConfigForTest()
		t.Cleanup(func() {
			ResetGlobalConfigForTest()
			SetResolvedProjectDir("")
		})

		tmpHome := t.TempDir()
		t.Setenv(EnvHome, tmpHome)

		SetResolvedProjectDir("")
		InitGlobalConfig()
		cfgWithEmpty := GetGlobalConfig()
		require.NotNil(t, cfgWithEmpty)

		cfgNew := New()
		require.NotNil(t, cfgNew)

		assert.Equal(t, cfgNew.Cache, cfgWithEmpty.Cache)
		assert.Equal(t, cfgNew.Registry, cfgWithEmpty.Registry)
		assert.Equal(t, cfgNew.Docgen, cfgWithEmpty.Docgen)
		assert.Equal(t, cfgNew.Logging.Level, cfgWithEmpty.Logging.Level)
		assert.Equal(t, cfgNew.Logging.Format, cfgWithEmpty.Logging.Format)
	})

	t.Run("two_projects_load_independent_configs", func(t *testing.T) {
		t.Cleanup(func() {
			ResetGlobalConfigForTest()
			SetResolvedProjectDir("")
		})

		globalDir := t.TempDir()
		t.Setenv(EnvHome, globalDir)

		projectDirA := filepath.Join(t.TempDir(), ".cratedocs")
		require.NoError(t, os.MkdirAll(projectDirA, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(projectDirA, "config.yaml"),
			[]byte("cache:\n  dir: /srv/cache-a\n"), 0o644))

		projectDirB := filepath.Join(t.TempDir(), ".cratedocs")
		require.NoError(t, os.MkdirAll(projectDirB, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(projectDirB, "config.yaml"),
			[]byte("cache:\n  dir: /srv/cache-b\n"), 0o644))

		ResetGlobalConfigForTest()
		SetResolvedProjectDir(projectDirA)
		InitGlobalConfig()
		assert.Equal(t, "/srv/cache-a", GetGlobalConfig().Cache.Dir)

		ResetGlobalConfigForTest()
		SetResolvedProjectDir(projectDirB)
		InitGlobalConfig()
		assert.Equal(t, "/srv/cache-b", GetGlobalConfig().Cache.Dir)
	})
}

func TestEnsureSubDirs(t *testing.T) {
	tmpHome := stubHome(t)

	err := EnsureSubDirs()
	require.NoError(t, err)

	// Check that config directory exists
	configDir, err := GetConfigDir()
	require.NoError(t, err)
	stat, err := os.Stat(configDir)
	require.NoError(t, err)
	assert.True(t, stat.IsDir())

	// Check that the cache directory under the config dir exists
	cacheDir := filepath.Join(tmpHome, ".cratedocs", "cache")
	stat, err = os.Stat(cacheDir)
	require.NoError(t, err)
	assert.True(t, stat.IsDir())
}
