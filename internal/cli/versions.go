package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewVersionsCmd creates the versions command, which lists the cached
// versions of one crate.
func NewVersionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "versions <name>",
		Short: "List cached versions of a crate",
		Long: `Lists every cached version of the named crate, one per line. Semver
versions sort by precedence; branch and tag names sort lexically.`,
		Args: cobra.ExactArgs(1),
		Example: `  # Which serde releases are cached?
  cratedocs versions serde`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := buildCache(cmd)
			if err != nil {
				return err
			}

			versions, err := c.Versions(args[0])
			if err != nil {
				return fmt.Errorf("listing versions: %w", err)
			}

			if len(versions) == 0 {
				cmd.Printf("No cached versions of %s.\n", args[0])
				return nil
			}
			out := cmd.OutOrStdout()
			for _, v := range versions {
				if _, err := fmt.Fprintln(out, v); err != nil {
					return err
				}
			}
			return nil
		},
	}

	return cmd
}
