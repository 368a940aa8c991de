package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cratedocs/cratedocs/internal/config"
)

// NewConfigValidateCmd creates the config validate command for validating configuration.
func NewConfigValidateCmd() *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration file",
		Long: `Validates the effective configuration, including any project-local
overlay, for syntax and semantic correctness.

This includes:
- YAML syntax of the config files
- Log level and format names
- Registry base URL shape
- Documentation build timeout bounds`,
		Example: `  # Validate current configuration
  cratedocs config validate

  # Validate and show the effective settings
  cratedocs config validate --verbose`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigValidate(cmd, verbose)
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show detailed validation information")

	return cmd
}

// runConfigValidate executes the configuration validation logic.
func runConfigValidate(cmd *cobra.Command, verbose bool) error {
	cfg := config.NewWithProjectDir(cmd.Context(), config.GetResolvedProjectDir())

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	cmd.Printf("Configuration is valid\n")

	if verbose {
		printVerboseDetails(cmd, cfg)
	}

	return nil
}

// printVerboseDetails prints the effective configuration values.
func printVerboseDetails(cmd *cobra.Command, cfg *config.Config) {
	cmd.Println()
	cmd.Println("Configuration details:")
	cmd.Printf("  Cache directory: %s\n", cfg.Cache.Dir)
	cmd.Printf("  Registry: %s\n", cfg.Registry.BaseURL)
	cmd.Printf("  Git binary: %s\n", cfg.Git.Binary)
	cmd.Printf("  Cargo binary: %s\n", cfg.Docgen.Cargo)
	cmd.Printf("  Toolchain: %s\n", cfg.Docgen.Toolchain)
	cmd.Printf("  Docgen timeout: %ds\n", cfg.Docgen.TimeoutSeconds)
	cmd.Printf("  Logging level: %s\n", cfg.Logging.Level)
	cmd.Printf("  Logging format: %s\n", cfg.Logging.Format)
	if cfg.Logging.File != "" {
		cmd.Printf("  Log file: %s\n", cfg.Logging.File)
	}

	if projectDir := config.GetResolvedProjectDir(); projectDir != "" {
		cmd.Printf("  Project overlay: %s\n", projectDir)
	}
}
