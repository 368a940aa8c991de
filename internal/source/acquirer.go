package source

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/cratedocs/cratedocs/internal/logging"
	"github.com/cratedocs/cratedocs/internal/storage"
)

// Directory names skipped when copying a local crate into the cache.
// Build output and repository metadata have no place in a cached source tree.
var skippedLocalDirs = map[string]bool{ //nolint:gochecknoglobals // Compile-time constant lookup table.
	"target": true,
	".git":   true,
}

// Acquirer materializes crate sources under the cache layout, dispatching
// to one backend per descriptor variant.
type Acquirer struct {
	store    *storage.Store
	registry RegistryClient
	git      GitClient
}

// NewAcquirer wires an Acquirer with its backends.
func NewAcquirer(store *storage.Store, registry RegistryClient, git GitClient) *Acquirer {
	return &Acquirer{store: store, registry: registry, git: git}
}

// Acquire validates desc and ensures its source tree exists in the cache,
// returning the source directory. An already-cached key short-circuits with
// no backend invocation. The tree is materialized in a staging directory
// and renamed into place, so a failed acquisition leaves no partial entry.
func (a *Acquirer) Acquire(ctx context.Context, desc Descriptor) (string, error) {
	if err := desc.Validate(); err != nil {
		return "", fmt.Errorf("validating %s descriptor: %w", desc.Kind(), err)
	}

	key := desc.Key()
	srcDir := a.store.SourceDir(key)
	log := logging.FromContext(ctx)

	if a.store.IsCached(key) {
		log.Debug().
			Str("component", "source").
			Str("operation", "acquire").
			Str("crate", key.String()).
			Msg("source already cached")
		return srcDir, nil
	}

	entryDir, err := a.store.EnsureEntryDir(key)
	if err != nil {
		return "", err
	}

	staging := filepath.Join(entryDir, "source.staging")
	if err = os.RemoveAll(staging); err != nil {
		return "", fmt.Errorf("clearing stale staging directory: %w", err)
	}

	start := time.Now()
	if err = a.fetch(ctx, desc, staging); err != nil {
		_ = os.RemoveAll(staging)
		// A failed first acquisition leaves no empty entry behind.
		_ = os.Remove(entryDir)
		_ = os.Remove(filepath.Dir(entryDir))
		return "", fmt.Errorf("acquiring %s from %s: %w", key, desc.SourceString(), err)
	}

	if err = os.Rename(staging, srcDir); err != nil {
		_ = os.RemoveAll(staging)
		return "", fmt.Errorf("finalizing source for %s: %w", key, err)
	}

	log.Info().
		Str("component", "source").
		Str("operation", "acquire").
		Str("crate", key.String()).
		Str("kind", desc.Kind()).
		Dur("duration", time.Since(start)).
		Msg("source acquired")
	return srcDir, nil
}

// fetch dispatches to the backend for the descriptor variant. The variant
// set is closed, so the type switch is exhaustive.
func (a *Acquirer) fetch(ctx context.Context, desc Descriptor, staging string) error {
	switch d := desc.(type) {
	case RegistryRef:
		return a.registry.Download(ctx, d.Name, d.Version, staging)
	case RepositoryRef:
		return a.git.Clone(ctx, d.URL, d.Ref(), staging)
	case LocalPathRef:
		return copyTree(d.Path, staging)
	default:
		return fmt.Errorf("unsupported descriptor kind %q", desc.Kind())
	}
}

// copyTree copies a local crate directory into dst, skipping build output
// and repository metadata directories. Symlinks are not followed.
func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return os.MkdirAll(dst, 0750)
		}

		if d.IsDir() {
			if skippedLocalDirs[d.Name()] {
				return filepath.SkipDir
			}
			return os.MkdirAll(filepath.Join(dst, rel), 0750)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		return copyFile(path, filepath.Join(dst, rel))
	})
}

// copyFile copies one regular file, preserving the executable bit.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer func() { _ = in.Close() }()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("inspecting %s: %w", src, err)
	}
	perm := os.FileMode(0600)
	if info.Mode()&0100 != 0 {
		perm = 0700
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}

	if _, err = io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("copying to %s: %w", dst, err)
	}
	if err = out.Sync(); err != nil {
		_ = out.Close()
		return fmt.Errorf("syncing %s: %w", dst, err)
	}
	return out.Close()
}
