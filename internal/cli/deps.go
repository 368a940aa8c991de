package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cratedocs/cratedocs/internal/cache"
	"github.com/cratedocs/cratedocs/internal/config"
	"github.com/cratedocs/cratedocs/internal/docgen"
	"github.com/cratedocs/cratedocs/internal/source"
	"github.com/cratedocs/cratedocs/internal/storage"
)

// buildCache assembles the production cache stack from the effective
// configuration. The --cache-dir flag overrides the configured cache root.
func buildCache(cmd *cobra.Command) (*cache.Cache, error) {
	cfg := config.GetGlobalConfig()

	cacheDir, _ := cmd.Flags().GetString("cache-dir")
	if cacheDir == "" {
		cacheDir = cfg.Cache.Dir
	}
	if cacheDir == "" {
		return nil, errors.New("no cache directory configured")
	}

	store, err := storage.New(cacheDir)
	if err != nil {
		return nil, fmt.Errorf("opening cache at %s: %w", cacheDir, err)
	}

	acquirer := source.NewAcquirer(
		store,
		source.NewRegistryClient(cfg.Registry.BaseURL, cfg.Registry.UserAgent),
		source.NewGitCloner(cfg.Git.Binary),
	)
	tool := docgen.NewCargoTool(
		cfg.Docgen.Cargo,
		cfg.Docgen.Toolchain,
		time.Duration(cfg.Docgen.TimeoutSeconds)*time.Second,
	)

	return cache.New(store, acquirer, cache.ManifestInspector{}, docgen.NewGenerator(store, tool)), nil
}
