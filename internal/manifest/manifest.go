// Package manifest reads Cargo.toml files: workspace detection, member
// enumeration, and crate-root discovery.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// ManifestName is the file name of a crate manifest.
const ManifestName = "Cargo.toml"

// ErrNoCrate indicates no Cargo.toml was found walking up from the start
// directory.
var ErrNoCrate = errors.New("no Cargo.toml found")

// Manifest is the subset of a Cargo.toml that cratedocs reads. Unknown keys
// are ignored so manifests using workspace-inherited fields still parse.
type Manifest struct {
	Package   *Package   `toml:"package"`
	Workspace *Workspace `toml:"workspace"`
}

// Package is the [package] table.
type Package struct {
	Name string `toml:"name"`
}

// Workspace is the [workspace] table.
type Workspace struct {
	Members []string `toml:"members"`
	Exclude []string `toml:"exclude"`
}

// Parse decodes manifest bytes.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	return &m, nil
}

// Load reads and decodes the manifest at path.
func Load(manifestPath string) (*Manifest, error) {
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", manifestPath, err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", manifestPath, err)
	}
	return m, nil
}

// IsWorkspace reports whether m declares a multi-member workspace.
func (m *Manifest) IsWorkspace() bool {
	return m.Workspace != nil && len(m.Workspace.Members) > 0
}

// IsWorkspace reports whether the manifest at manifestPath declares a
// multi-member workspace.
func IsWorkspace(manifestPath string) (bool, error) {
	m, err := Load(manifestPath)
	if err != nil {
		return false, err
	}
	return m.IsWorkspace(), nil
}

// Members returns the workspace member paths declared by the manifest at
// manifestPath, in declaration order. Entries containing glob patterns are
// expanded relative to the manifest directory (sorted within each pattern,
// only directories that contain a Cargo.toml qualify) and entries matching
// the workspace exclude list are dropped. A non-workspace manifest yields an
// empty list.
func Members(manifestPath string) ([]string, error) {
	m, err := Load(manifestPath)
	if err != nil {
		return nil, err
	}
	if m.Workspace == nil {
		return nil, nil
	}

	root := filepath.Dir(manifestPath)
	excluded := make(map[string]bool, len(m.Workspace.Exclude))
	for _, e := range m.Workspace.Exclude {
		excluded[path.Clean(filepath.ToSlash(e))] = true
	}

	var members []string
	for _, entry := range m.Workspace.Members {
		if !strings.Contains(entry, "*") {
			cleaned := path.Clean(filepath.ToSlash(entry))
			if !excluded[cleaned] {
				members = append(members, cleaned)
			}
			continue
		}

		expanded, globErr := expandMemberGlob(root, entry)
		if globErr != nil {
			return nil, globErr
		}
		for _, rel := range expanded {
			if !excluded[rel] {
				members = append(members, rel)
			}
		}
	}
	return members, nil
}

// expandMemberGlob resolves one glob member entry to sorted relative paths
// of directories that contain a manifest.
func expandMemberGlob(root, pattern string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(root, filepath.FromSlash(pattern)))
	if err != nil {
		return nil, fmt.Errorf("expanding workspace member pattern %q: %w", pattern, err)
	}

	var rels []string
	for _, match := range matches {
		if _, statErr := os.Stat(filepath.Join(match, ManifestName)); statErr != nil {
			continue
		}
		rel, relErr := filepath.Rel(root, match)
		if relErr != nil {
			continue
		}
		rels = append(rels, filepath.ToSlash(rel))
	}
	sort.Strings(rels)
	return rels, nil
}

// MemberName returns the short name of a workspace member path: its last
// path segment. "crates/http-util" and "crates/http-util/" both yield
// "http-util".
func MemberName(memberPath string) string {
	cleaned := path.Clean(filepath.ToSlash(memberPath))
	return path.Base(cleaned)
}

// FindCrateRoot walks up the directory tree from dir looking for Cargo.toml.
// Returns the directory containing the manifest, or ErrNoCrate if none is
// found before reaching the filesystem root.
func FindCrateRoot(dir string) (string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving absolute path: %w", err)
	}

	current := absDir
	for {
		candidate := filepath.Join(current, ManifestName)
		if _, statErr := os.Stat(candidate); statErr == nil {
			return current, nil
		}

		parent := filepath.Dir(current)
		if parent == current {
			// Reached filesystem root.
			return "", ErrNoCrate
		}
		current = parent
	}
}
