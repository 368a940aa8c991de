package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cratedocs/cratedocs/internal/storage"
	"github.com/cratedocs/cratedocs/internal/tui"
)

// NewRemoveCmd creates the remove command, which deletes one cached
// crate version after confirmation.
func NewRemoveCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "remove <name> <version>",
		Short: "Remove a cached crate version",
		Long: `Deletes the cached source tree and every generated artifact for one
crate version. Prompts for confirmation unless --yes is given; in a
non-interactive session --yes is required.`,
		Args: cobra.ExactArgs(2),
		Example: `  # Remove with a confirmation prompt
  cratedocs remove serde 1.0.219

  # Remove without prompting (scripts, CI)
  cratedocs remove serde 1.0.219 --yes`,
		RunE: func(cmd *cobra.Command, args []string) error {
			key := storage.NewKey(args[0], args[1])

			c, err := buildCache(cmd)
			if err != nil {
				return err
			}

			if !yes {
				if !tui.IsTTY() {
					return errors.New("refusing to remove without --yes in a non-interactive session")
				}
				accepted, confirmErr := tui.Confirm(
					fmt.Sprintf("Remove %s from the cache?", key),
					"This deletes the cached source and all generated documentation.",
				)
				if confirmErr != nil {
					return confirmErr
				}
				if !accepted {
					cmd.Println("Aborted.")
					return nil
				}
			}

			if err := c.Remove(key); err != nil {
				if errors.Is(err, storage.ErrNotCached) {
					return fmt.Errorf("%s is not cached", key)
				}
				return fmt.Errorf("removing %s: %w", key, err)
			}

			logger.Info().Str("crate", key.String()).Msg("cache entry removed")
			cmd.Printf("Removed %s from the cache.\n", key)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")

	return cmd
}
