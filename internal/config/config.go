// Package config loads and exposes cratedocs configuration.
//
// Configuration is resolved in precedence order: built-in defaults, the
// global config file (~/.cratedocs/config.yaml), a project-local overlay
// (.cratedocs/config.yaml next to the nearest Cargo.toml), environment
// variables, and finally CLI flags applied by the caller.
package config

import (
	"os"
	"path/filepath"
	"strconv"
)

// Environment variable names recognized by cratedocs.
const (
	EnvHome          = "CRATEDOCS_HOME"
	EnvProjectDir    = "CRATEDOCS_PROJECT_DIR"
	EnvCacheDir      = "CRATEDOCS_CACHE_DIR"
	EnvRegistryURL   = "CRATEDOCS_REGISTRY_URL"
	EnvGitBinary     = "CRATEDOCS_GIT"
	EnvCargoBinary   = "CRATEDOCS_CARGO"
	EnvDocgenTimeout = "CRATEDOCS_DOCGEN_TIMEOUT"
	EnvLogLevel      = "CRATEDOCS_LOG_LEVEL"
	EnvLogFormat     = "CRATEDOCS_LOG_FORMAT"
	EnvLogFile       = "CRATEDOCS_LOG_FILE"
)

// Output destination names used in LoggingConfig.
const (
	outputTypeFile = "file"
)

// Default settings applied before any file or environment overrides.
const (
	defaultRegistryURL   = "https://crates.io"
	defaultUserAgent     = "cratedocs (github.com/cratedocs/cratedocs)"
	defaultGitBinary     = "git"
	defaultCargoBinary   = "cargo"
	defaultToolchain     = "nightly"
	defaultDocgenTimeout = 600

	minDocgenTimeout = 30
	maxDocgenTimeout = 7200
)

// Config is the root configuration for cratedocs.
type Config struct {
	Cache    CacheConfig    `yaml:"cache"`
	Registry RegistryConfig `yaml:"registry"`
	Git      GitConfig      `yaml:"git"`
	Docgen   DocgenConfig   `yaml:"docgen"`
	Logging  LoggingConfig  `yaml:"logging"`

	// configPath is where Save writes; empty means the global path.
	configPath string
}

// CacheConfig controls where cached sources and artifacts live.
type CacheConfig struct {
	// Dir is the cache root. Entries are stored under <dir>/crates and
	// update backups under <dir>/backups.
	Dir string `yaml:"dir"`
}

// RegistryConfig controls access to the crates.io-compatible registry.
type RegistryConfig struct {
	BaseURL   string `yaml:"base_url"`
	UserAgent string `yaml:"user_agent"`
}

// GitConfig controls repository acquisition.
type GitConfig struct {
	// Binary is the git executable name or path.
	Binary string `yaml:"binary"`
}

// DocgenConfig controls the external documentation toolchain.
type DocgenConfig struct {
	// Cargo is the cargo executable name or path.
	Cargo string `yaml:"cargo"`
	// Toolchain is the rustup toolchain used for JSON doc output.
	Toolchain string `yaml:"toolchain"`
	// TimeoutSeconds bounds a single documentation build.
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// LoggingConfig controls log level, format, and destination.
type LoggingConfig struct {
	// Level is a zerolog level name (trace, debug, info, warn, error).
	Level string `yaml:"level"`
	// Format is "console" or "json".
	Format string `yaml:"format"`
	// File, when set, sends logs to a rotated file instead of stderr.
	File string `yaml:"file"`
}

// DefaultConfig returns the built-in defaults with no file or environment
// overrides applied.
func DefaultConfig() *Config {
	cfg := &Config{
		Registry: RegistryConfig{
			BaseURL:   defaultRegistryURL,
			UserAgent: defaultUserAgent,
		},
		Git: GitConfig{
			Binary: defaultGitBinary,
		},
		Docgen: DocgenConfig{
			Cargo:          defaultCargoBinary,
			Toolchain:      defaultToolchain,
			TimeoutSeconds: defaultDocgenTimeout,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
	if dir, err := DefaultCacheDir(); err == nil {
		cfg.Cache.Dir = dir
	}
	return cfg
}

// New returns the effective configuration: defaults, overlaid with the
// global config file when present, then environment variables.
func New() *Config {
	cfg := DefaultConfig()

	if path, err := GetConfigFilePath(); err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			// Merge errors leave the defaults in place; the CLI surfaces
			// them during explicit config commands, not on every run.
			_ = ShallowMergeYAML(cfg, path)
		}
	}

	applyEnvOverrides(cfg)
	return cfg
}

// applyEnvOverrides applies CRATEDOCS_* environment variables onto cfg.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(EnvCacheDir); v != "" {
		cfg.Cache.Dir = v
	}
	if v := os.Getenv(EnvRegistryURL); v != "" {
		cfg.Registry.BaseURL = v
	}
	if v := os.Getenv(EnvGitBinary); v != "" {
		cfg.Git.Binary = v
	}
	if v := os.Getenv(EnvCargoBinary); v != "" {
		cfg.Docgen.Cargo = v
	}
	if v := os.Getenv(EnvDocgenTimeout); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs >= minDocgenTimeout && secs <= maxDocgenTimeout {
			cfg.Docgen.TimeoutSeconds = secs
		}
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv(EnvLogFile); v != "" {
		cfg.Logging.File = v
	}
}

// DefaultCacheDir returns the default cache root under the user's
// cratedocs directory.
func DefaultCacheDir() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "cache"), nil
}

// GetConfigFilePath returns the path of the global config file.
func GetConfigFilePath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.yaml"), nil
}
