package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/cratedocs/cratedocs/internal/logging"
	"github.com/cratedocs/cratedocs/internal/manifest"
)

// resolvedProjectDir holds the resolved project directory path for use
// by other config functions during the lifetime of a CLI invocation.
var (
	resolvedProjectDir   string       //nolint:gochecknoglobals // Set once at startup, read by config loaders
	resolvedProjectDirMu sync.RWMutex //nolint:gochecknoglobals // Protects resolvedProjectDir
)

// SetResolvedProjectDir stores the resolved project directory for use by other config functions.
func SetResolvedProjectDir(dir string) {
	resolvedProjectDirMu.Lock()
	defer resolvedProjectDirMu.Unlock()
	resolvedProjectDir = dir
}

// GetResolvedProjectDir returns the stored resolved project directory.
func GetResolvedProjectDir() string {
	resolvedProjectDirMu.RLock()
	defer resolvedProjectDirMu.RUnlock()
	return resolvedProjectDir
}

// ResolveProjectDir determines the project-local .cratedocs directory path.
// It checks (in order):
//  1. flagValue (--project-dir CLI flag)
//  2. CRATEDOCS_PROJECT_DIR env var
//  3. manifest.FindCrateRoot(startDir) walk-up to the nearest Cargo.toml
//
// Returns the path to $PROJECT/.cratedocs/ or empty string if no project found.
// Does NOT create the directory (read-only operation).
// Returned path is always absolute (or empty).
func ResolveProjectDir(ctx context.Context, flagValue, startDir string) string {
	if flagValue != "" {
		return toAbsCratedocsDir(ctx, flagValue)
	}

	if envDir := os.Getenv(EnvProjectDir); envDir != "" {
		return toAbsCratedocsDir(ctx, envDir)
	}

	projectRoot, err := manifest.FindCrateRoot(startDir)
	if err != nil {
		if !errors.Is(err, manifest.ErrNoCrate) {
			logger := logging.FromContext(ctx)
			logger.Warn().
				Str("component", "config").
				Err(err).
				Str("start_dir", startDir).
				Msg("unexpected error during crate root discovery")
		}
		return ""
	}

	return toAbsCratedocsDir(ctx, projectRoot)
}

// NewWithProjectDir creates a Config by loading global config then
// shallow-merging project-local config on top. If projectDir is empty,
// behaves identically to New().
func NewWithProjectDir(ctx context.Context, projectDir string) *Config {
	cfg := New()

	if projectDir == "" {
		return cfg
	}

	overlayPath := filepath.Join(projectDir, "config.yaml")
	if _, err := os.Stat(overlayPath); err != nil {
		// Missing project config is not an error; use global defaults.
		return cfg
	}

	cfgCopy := New()
	if err := ShallowMergeYAML(cfgCopy, overlayPath); err != nil {
		logger := logging.FromContext(ctx)
		logger.Warn().
			Str("component", "config").
			Str("operation", "merge_project_config").
			Err(err).
			Str("overlay_path", overlayPath).
			Msg("failed to merge project config, using global defaults")
		return cfg
	}

	return cfgCopy
}

// toAbsCratedocsDir converts dir to an absolute path and appends ".cratedocs".
// If the path already ends with ".cratedocs", it is returned as-is (after
// resolving to an absolute path) to prevent double-append.
func toAbsCratedocsDir(ctx context.Context, dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		logger := logging.FromContext(ctx)
		logger.Warn().
			Str("component", "config").
			Err(err).
			Str("dir", dir).
			Msg("failed to resolve absolute path for project directory")
		abs = dir
	}

	if filepath.Base(abs) == ".cratedocs" {
		return abs
	}

	return filepath.Join(abs, ".cratedocs")
}
