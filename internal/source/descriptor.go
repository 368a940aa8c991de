// Package source acquires crate source trees from the registry, from git
// repositories, and from local directories, and materializes them under the
// cache storage layout.
package source

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cratedocs/cratedocs/internal/manifest"
	"github.com/cratedocs/cratedocs/internal/storage"
)

// Descriptor kind names.
const (
	KindRegistry   = "registry"
	KindRepository = "repository"
	KindLocal      = "local"
)

// Validation failures, raised before any filesystem or network effect.
var (
	ErrNameRequired    = errors.New("crate name is required")
	ErrVersionRequired = errors.New("crate version is required")
	ErrURLRequired     = errors.New("repository url is required")
	ErrPathRequired    = errors.New("local path is required")
	ErrRefRequired     = errors.New("exactly one of branch or tag is required")
	ErrRefConflict     = errors.New("branch and tag are mutually exclusive")
	ErrNoManifest      = errors.New("directory does not contain a Cargo.toml")
)

// Descriptor identifies where a crate's source comes from and what the
// caller wants cached. The variant set is closed: RegistryRef,
// RepositoryRef, and LocalPathRef are the only implementations.
type Descriptor interface {
	// Key is the cache identity the acquired source is stored under.
	Key() storage.Key
	// Kind names the variant for logs and outcome rendering.
	Kind() string
	// SourceString renders the origin in display form.
	SourceString() string
	// RequestedMembers is the optional workspace member subset to cache.
	RequestedMembers() []string
	// WantsUpdate reports whether an in-place update was requested.
	WantsUpdate() bool
	// Validate checks structural correctness before any I/O happens.
	Validate() error

	sealed()
}

// RegistryRef describes a release published on the crates.io-compatible
// registry.
type RegistryRef struct {
	Name    string
	Version string
	Members []string
	Update  bool
}

// Key implements Descriptor.
func (r RegistryRef) Key() storage.Key { return storage.NewKey(r.Name, r.Version) }

// Kind implements Descriptor.
func (r RegistryRef) Kind() string { return KindRegistry }

// SourceString implements Descriptor.
func (r RegistryRef) SourceString() string { return "crates.io" }

// RequestedMembers implements Descriptor.
func (r RegistryRef) RequestedMembers() []string { return r.Members }

// WantsUpdate implements Descriptor.
func (r RegistryRef) WantsUpdate() bool { return r.Update }

// Validate implements Descriptor.
func (r RegistryRef) Validate() error {
	if r.Name == "" {
		return ErrNameRequired
	}
	if r.Version == "" {
		return ErrVersionRequired
	}
	return nil
}

func (r RegistryRef) sealed() {}

// RepositoryRef describes a git repository checkout. Exactly one of Branch
// or Tag selects the ref; the selected ref name is also the cache version.
type RepositoryRef struct {
	URL     string
	Name    string
	Branch  string
	Tag     string
	Members []string
	Update  bool
}

// Ref returns the selected branch or tag name.
func (r RepositoryRef) Ref() string {
	if r.Branch != "" {
		return r.Branch
	}
	return r.Tag
}

// Key implements Descriptor. The version is the ref name itself; no
// independent version resolution happens for repositories.
func (r RepositoryRef) Key() storage.Key { return storage.NewKey(r.Name, r.Ref()) }

// Kind implements Descriptor.
func (r RepositoryRef) Kind() string { return KindRepository }

// SourceString implements Descriptor.
func (r RepositoryRef) SourceString() string {
	if r.Branch != "" {
		return fmt.Sprintf("%s#branch:%s", r.URL, r.Branch)
	}
	return fmt.Sprintf("%s#tag:%s", r.URL, r.Tag)
}

// RequestedMembers implements Descriptor.
func (r RepositoryRef) RequestedMembers() []string { return r.Members }

// WantsUpdate implements Descriptor.
func (r RepositoryRef) WantsUpdate() bool { return r.Update }

// Validate implements Descriptor.
func (r RepositoryRef) Validate() error {
	if r.URL == "" {
		return ErrURLRequired
	}
	if r.Name == "" {
		return ErrNameRequired
	}
	if r.Branch == "" && r.Tag == "" {
		return ErrRefRequired
	}
	if r.Branch != "" && r.Tag != "" {
		return ErrRefConflict
	}
	return nil
}

func (r RepositoryRef) sealed() {}

// LocalPathRef describes a crate directory already on disk.
type LocalPathRef struct {
	Path    string
	Name    string
	Version string
	Members []string
	Update  bool
}

// Key implements Descriptor.
func (r LocalPathRef) Key() storage.Key { return storage.NewKey(r.Name, r.Version) }

// Kind implements Descriptor.
func (r LocalPathRef) Kind() string { return KindLocal }

// SourceString implements Descriptor.
func (r LocalPathRef) SourceString() string { return r.Path }

// RequestedMembers implements Descriptor.
func (r LocalPathRef) RequestedMembers() []string { return r.Members }

// WantsUpdate implements Descriptor.
func (r LocalPathRef) WantsUpdate() bool { return r.Update }

// Validate implements Descriptor. The directory must exist and contain a
// manifest, checked here so the failure precedes any cache mutation.
func (r LocalPathRef) Validate() error {
	if r.Path == "" {
		return ErrPathRequired
	}
	if r.Name == "" {
		return ErrNameRequired
	}
	if r.Version == "" {
		return ErrVersionRequired
	}
	info, err := os.Stat(r.Path)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("local path %s: %w", r.Path, ErrPathRequired)
	}
	if _, err := os.Stat(filepath.Join(r.Path, manifest.ManifestName)); err != nil {
		return fmt.Errorf("local path %s: %w", r.Path, ErrNoManifest)
	}
	return nil
}

func (r LocalPathRef) sealed() {}
