package cli

import (
	"github.com/spf13/cobra"
)

// NewConfigCmd groups the configuration management subcommands.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage cratedocs configuration",
		Long: `Inspect and manage cratedocs configuration. Settings resolve in
precedence order: built-in defaults, the global config file
(~/.cratedocs/config.yaml), a project-local .cratedocs/config.yaml,
then environment variables and flags.`,
	}

	cmd.AddCommand(NewConfigInitCmd(), NewConfigValidateCmd())

	return cmd
}
