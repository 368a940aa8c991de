package cli

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/cratedocs/cratedocs/internal/config"
	"github.com/cratedocs/cratedocs/internal/logging"
)

// isTerminal checks if the given file is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// logger is the package-level logger for CLI operations.
var logger zerolog.Logger //nolint:gochecknoglobals // Required for zerolog context integration

// NewRootCmd creates the root Cobra command for the cratedocs CLI.
// It wires up configuration resolution, logging, and the subcommands
// that populate, query, and maintain the documentation cache.
func NewRootCmd(ver string) *cobra.Command {
	var logResult *logging.LogPathResult

	cmd := &cobra.Command{
		Use:     "cratedocs",
		Short:   "Local cache for Rust crate documentation artifacts",
		Long:    "cratedocs acquires crate sources from crates.io, git, or local paths and caches their rustdoc JSON artifacts with safe in-place updates.",
		Version: ver,
		Example: rootCmdExample,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			projectFlag, _ := cmd.Flags().GetString("project-dir")
			config.SetResolvedProjectDir(config.ResolveProjectDir(cmd.Context(), projectFlag, "."))
			config.InitGlobalConfig()

			result := setupLogging(cmd)
			logResult = &result
			return nil
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			return cleanupLogging(logResult)
		},
	}

	cmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	cmd.PersistentFlags().String("cache-dir", "", "cache root directory (overrides config)")
	cmd.PersistentFlags().String("project-dir", "", "project directory holding a .cratedocs overlay")
	cmd.AddCommand(
		NewCacheCmd(),
		NewDocsCmd(),
		NewFetchCmd(),
		NewListCmd(),
		NewVersionsCmd(),
		NewRemoveCmd(),
		NewConfigCmd(),
	)

	return cmd
}

const rootCmdExample = `  # Cache a crate from crates.io
  cratedocs cache registry serde 1.0.219

  # Cache two members of a workspace crate
  cratedocs cache registry tokio 1.38.0 --members tokio,tokio-util

  # Cache a repository branch (the branch name becomes the version)
  cratedocs cache git https://github.com/serde-rs/serde serde --branch master

  # Print a crate's documentation artifact
  cratedocs docs serde@1.0.219

  # Refresh a cached entry in place
  cratedocs cache registry serde 1.0.219 --update

  # List everything in the cache
  cratedocs list`
