package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cratedocs/cratedocs/internal/storage"
	"github.com/cratedocs/cratedocs/internal/tui"
)

// NewListCmd creates the list command, which shows every cached crate
// version with its size and age.
func NewListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cached crates",
		Args:  cobra.NoArgs,
		Example: `  # Show everything in the cache
  cratedocs list`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := buildCache(cmd)
			if err != nil {
				return err
			}

			entries, err := c.List()
			if err != nil {
				return fmt.Errorf("listing cache: %w", err)
			}

			if len(entries) == 0 {
				cmd.Println("Cache is empty.")
				return nil
			}

			title := fmt.Sprintf("Cached crates (%d)", len(entries))
			if isTerminal(os.Stdout) {
				title = tui.RenderTitle(title)
			}
			cmd.Println(title)
			cmd.Println()

			return displayEntries(cmd, entries)
		},
	}

	return cmd
}

func displayEntries(cmd *cobra.Command, entries []storage.EntryInfo) error {
	const tabPadding = 2
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, tabPadding, ' ', 0)

	fmt.Fprintln(w, "Name\tVersion\tSize\tCached")
	fmt.Fprintln(w, "----\t-------\t----\t------")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			e.Name, e.Version, formatSize(e.SizeBytes), e.CachedAt.Format("2006-01-02 15:04"))
	}

	return w.Flush()
}

// formatSize renders a byte count in binary units.
func formatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
