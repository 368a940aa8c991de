package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cratedocs/cratedocs/internal/cache"
	"github.com/cratedocs/cratedocs/internal/source"
)

// NewCacheCmd groups the subcommands that populate the cache from a
// source backend.
func NewCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Cache crate sources and generate documentation",
		Long:  cacheCmdLong,
	}

	cmd.AddCommand(newCacheRegistryCmd(), newCacheGitCmd(), newCacheLocalCmd())

	return cmd
}

const cacheCmdLong = `Acquire a crate's source, detect workspace topology, and generate its
rustdoc JSON artifact into the local cache.

Each subcommand prints a JSON outcome describing what happened: a cached
or updated entry, a detected workspace with its members, per-member
results, or an error. A failed cache operation exits non-zero.`

func newCacheRegistryCmd() *cobra.Command {
	var (
		members []string
		update  bool
	)

	cmd := &cobra.Command{
		Use:   "registry <name> <version>",
		Short: "Cache a crate release from crates.io",
		Args:  cobra.ExactArgs(2),
		Example: `  # Cache serde 1.0.219
  cratedocs cache registry serde 1.0.219

  # Cache two members of the tokio workspace
  cratedocs cache registry tokio 1.38.0 --members tokio,tokio-util

  # Refresh an entry that is already cached
  cratedocs cache registry serde 1.0.219 --update`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := buildCache(cmd)
			if err != nil {
				return err
			}

			desc := source.RegistryRef{
				Name:    args[0],
				Version: args[1],
				Members: members,
				Update:  update,
			}
			return renderOutcome(cmd, c.CacheFromSource(cmd.Context(), desc))
		},
	}

	addCachePopulateFlags(cmd, &members, &update)

	return cmd
}

func newCacheGitCmd() *cobra.Command {
	var (
		branch  string
		tag     string
		members []string
		update  bool
	)

	cmd := &cobra.Command{
		Use:   "git <url> <name>",
		Short: "Cache a crate from a git repository",
		Long: `Shallow-clones a repository and caches the checkout as <name> at the
selected ref. Exactly one of --branch or --tag must be given; the ref
name becomes the cached version.`,
		Args: cobra.ExactArgs(2),
		Example: `  # Cache the master branch of serde
  cratedocs cache git https://github.com/serde-rs/serde serde --branch master

  # Cache a released tag
  cratedocs cache git https://github.com/tokio-rs/tokio tokio --tag tokio-1.38.0 --members tokio`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := buildCache(cmd)
			if err != nil {
				return err
			}

			desc := source.RepositoryRef{
				URL:     args[0],
				Name:    args[1],
				Branch:  branch,
				Tag:     tag,
				Members: members,
				Update:  update,
			}
			return renderOutcome(cmd, c.CacheFromSource(cmd.Context(), desc))
		},
	}

	cmd.Flags().StringVar(&branch, "branch", "", "branch to clone (mutually exclusive with --tag)")
	cmd.Flags().StringVar(&tag, "tag", "", "tag to clone (mutually exclusive with --branch)")
	addCachePopulateFlags(cmd, &members, &update)

	return cmd
}

func newCacheLocalCmd() *cobra.Command {
	var (
		members []string
		update  bool
	)

	cmd := &cobra.Command{
		Use:   "local <path> <name> <version>",
		Short: "Cache a crate from a local directory",
		Long: `Copies a crate directory already on disk into the cache under the
given name and version. The path must contain a Cargo.toml.`,
		Args: cobra.ExactArgs(3),
		Example: `  # Cache a work-in-progress crate checkout
  cratedocs cache local ~/src/my-parser my-parser 0.3.0-dev`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := buildCache(cmd)
			if err != nil {
				return err
			}

			desc := source.LocalPathRef{
				Path:    args[0],
				Name:    args[1],
				Version: args[2],
				Members: members,
				Update:  update,
			}
			return renderOutcome(cmd, c.CacheFromSource(cmd.Context(), desc))
		},
	}

	addCachePopulateFlags(cmd, &members, &update)

	return cmd
}

// addCachePopulateFlags registers the flags shared by every cache
// population subcommand.
func addCachePopulateFlags(cmd *cobra.Command, members *[]string, update *bool) {
	cmd.Flags().StringSliceVar(members, "members", nil, "workspace member paths to cache")
	cmd.Flags().BoolVar(update, "update", false, "refresh the entry in place if already cached")
}

// renderOutcome prints the outcome JSON on stdout and converts a
// failure into a non-zero exit. The detailed message lives in the JSON;
// the short error only drives the exit code.
func renderOutcome(cmd *cobra.Command, outcome cache.Outcome) error {
	if _, err := fmt.Fprintln(cmd.OutOrStdout(), cache.Render(outcome)); err != nil {
		return err
	}

	if _, failed := outcome.(cache.Failure); failed {
		return errors.New("cache operation failed")
	}
	return nil
}
