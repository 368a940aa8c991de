package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cratedocs/cratedocs/internal/storage"
)

// NewDocsCmd creates the docs command, which prints a crate's rustdoc
// JSON artifact, generating it first when missing.
func NewDocsCmd() *cobra.Command {
	var member string

	cmd := &cobra.Command{
		Use:   "docs <name>@<version>",
		Short: "Print a crate's documentation artifact",
		Long: `Prints the rustdoc JSON artifact for a cached crate on stdout. When the
artifact is missing it is generated first, downloading the source from
crates.io if needed. Workspace crates have no root artifact; pass
--member to pick one of the workspace members instead.`,
		Args: cobra.ExactArgs(1),
		Example: `  # Print the docs for serde 1.0.219
  cratedocs docs serde@1.0.219

  # Print the docs for one member of a cached workspace
  cratedocs docs tokio@1.38.0 --member tokio-util

  # Pipe into jq to inspect the crate index
  cratedocs docs serde@1.0.219 | jq '.index | length'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := storage.ParseKey(args[0])
			if err != nil {
				return err
			}

			c, err := buildCache(cmd)
			if err != nil {
				return err
			}

			docs, err := c.EnsureDocsAuto(cmd.Context(), key, nil, member)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(docs))
			return err
		},
	}

	cmd.Flags().StringVar(&member, "member", "", "workspace member path to document")

	return cmd
}
