package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cratedocs/cratedocs/internal/storage"
)

// NewFetchCmd creates the fetch command, which ensures a crate's source
// is cached and prints its on-disk location.
func NewFetchCmd() *cobra.Command {
	var member string

	cmd := &cobra.Command{
		Use:   "fetch <name>@<version>",
		Short: "Download a crate's source and print its path",
		Long: `Ensures the crate's source tree is in the cache, downloading it from
crates.io if needed, and prints the absolute path. With --member the
printed path is the member's directory inside the workspace.`,
		Args: cobra.ExactArgs(1),
		Example: `  # Fetch and locate serde's source
  cratedocs fetch serde@1.0.219

  # Locate one member of a cached workspace
  cratedocs fetch tokio@1.38.0 --member tokio-util

  # Grep the cached source
  grep -r "fn deserialize" "$(cratedocs fetch serde@1.0.219)"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := storage.ParseKey(args[0])
			if err != nil {
				return err
			}

			c, err := buildCache(cmd)
			if err != nil {
				return err
			}

			path, err := c.EnsureSourceAuto(cmd.Context(), key, nil, member)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), path)
			return err
		},
	}

	cmd.Flags().StringVar(&member, "member", "", "workspace member path to locate")

	return cmd
}
