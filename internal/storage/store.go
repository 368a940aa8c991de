package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Directory and file names inside the cache root.
const (
	cratesDirName  = "crates"
	backupsDirName = "backups"
	sourceDirName  = "source"
	membersDirName = "members"
	docsFileName   = "docs.json"

	dirPerm = 0750
)

// ErrNotCached indicates the requested crate release has no cached entry.
var ErrNotCached = errors.New("crate is not cached")

// Store manages the cache directory tree.
type Store struct {
	root string
}

// New opens a Store rooted at root, creating the directory skeleton if
// needed.
func New(root string) (*Store, error) {
	if root == "" {
		return nil, errors.New("cache root must not be empty")
	}
	for _, dir := range []string{root, filepath.Join(root, cratesDirName), filepath.Join(root, backupsDirName)} {
		if err := os.MkdirAll(dir, dirPerm); err != nil {
			return nil, fmt.Errorf("creating cache directory %s: %w", dir, err)
		}
	}
	return &Store{root: root}, nil
}

// Root returns the cache root directory.
func (s *Store) Root() string {
	return s.root
}

// EntryDir returns the directory holding everything cached for key.
func (s *Store) EntryDir(key Key) string {
	return filepath.Join(s.root, cratesDirName, sanitizeComponent(key.Name), sanitizeComponent(key.Version))
}

// SourceDir returns the path of the acquired source tree for key.
func (s *Store) SourceDir(key Key) string {
	return filepath.Join(s.EntryDir(key), sourceDirName)
}

// DocsPath returns the path of the package-level documentation artifact.
func (s *Store) DocsPath(key Key) string {
	return filepath.Join(s.EntryDir(key), docsFileName)
}

// MemberDocsPath returns the artifact path for one workspace member,
// identified by its short name.
func (s *Store) MemberDocsPath(key Key, member string) string {
	return filepath.Join(s.EntryDir(key), membersDirName, sanitizeComponent(member)+".json")
}

// IsCached reports whether the source tree for key is present.
func (s *Store) IsCached(key Key) bool {
	return dirExists(s.SourceDir(key))
}

// HasDocs reports whether the package-level artifact for key is present.
func (s *Store) HasDocs(key Key) bool {
	return fileExists(s.DocsPath(key))
}

// HasMemberDocs reports whether the artifact for the named member is present.
func (s *Store) HasMemberDocs(key Key, member string) bool {
	return fileExists(s.MemberDocsPath(key, member))
}

// EnsureEntryDir creates the entry directory for key and returns it.
func (s *Store) EnsureEntryDir(key Key) (string, error) {
	dir := s.EntryDir(key)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return "", fmt.Errorf("creating entry directory for %s: %w", key, err)
	}
	return dir, nil
}

// InstallDocs moves the artifact file at srcPath into place as the
// package-level artifact for key. The write is atomic: the artifact appears
// at its final path completely or not at all.
func (s *Store) InstallDocs(key Key, srcPath string) error {
	if err := installFile(srcPath, s.DocsPath(key)); err != nil {
		return fmt.Errorf("installing docs for %s: %w", key, err)
	}
	return nil
}

// InstallMemberDocs moves the artifact file at srcPath into place for the
// named workspace member of key.
func (s *Store) InstallMemberDocs(key Key, member, srcPath string) error {
	if err := installFile(srcPath, s.MemberDocsPath(key, member)); err != nil {
		return fmt.Errorf("installing docs for member %s of %s: %w", member, key, err)
	}
	return nil
}

// List enumerates every cached entry, sorted by name then version.
func (s *Store) List() ([]EntryInfo, error) {
	cratesDir := filepath.Join(s.root, cratesDirName)
	nameDirs, err := os.ReadDir(cratesDir)
	if err != nil {
		return nil, fmt.Errorf("reading cache directory: %w", err)
	}

	var entries []EntryInfo
	for _, nameDir := range nameDirs {
		if !nameDir.IsDir() {
			continue
		}
		versionDirs, readErr := os.ReadDir(filepath.Join(cratesDir, nameDir.Name()))
		if readErr != nil {
			continue
		}
		for _, versionDir := range versionDirs {
			if !versionDir.IsDir() {
				continue
			}
			dir := filepath.Join(cratesDir, nameDir.Name(), versionDir.Name())
			info := EntryInfo{
				Name:      nameDir.Name(),
				Version:   versionDir.Name(),
				SizeBytes: dirSize(dir),
			}
			if stat, statErr := os.Stat(dir); statErr == nil {
				info.CachedAt = stat.ModTime()
			}
			entries = append(entries, info)
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Name != entries[j].Name {
			return entries[i].Name < entries[j].Name
		}
		return compareVersions(entries[i].Version, entries[j].Version) < 0
	})
	return entries, nil
}

// Versions returns the cached versions of the named crate in ascending
// order. A crate with no cached versions yields an empty slice.
func (s *Store) Versions(name string) ([]string, error) {
	nameDir := filepath.Join(s.root, cratesDirName, sanitizeComponent(name))
	versionDirs, err := os.ReadDir(nameDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading versions for %s: %w", name, err)
	}

	var versions []string
	for _, dir := range versionDirs {
		if dir.IsDir() {
			versions = append(versions, dir.Name())
		}
	}
	sort.Slice(versions, func(i, j int) bool {
		return compareVersions(versions[i], versions[j]) < 0
	})
	return versions, nil
}

// Remove deletes the whole entry for key: source tree and every artifact.
// Returns ErrNotCached when no entry exists.
func (s *Store) Remove(key Key) error {
	entryDir := s.EntryDir(key)
	if !dirExists(entryDir) {
		return fmt.Errorf("removing %s: %w", key, ErrNotCached)
	}
	if err := os.RemoveAll(entryDir); err != nil {
		return fmt.Errorf("removing %s: %w", key, err)
	}
	// Prune the name directory when this was its last version.
	_ = os.Remove(filepath.Dir(entryDir))
	return nil
}

// BackupEntry moves the live entry for key aside into the backups area and
// returns the backup directory. The live entry is untouched when the move
// fails.
func (s *Store) BackupEntry(key Key, id string) (string, error) {
	entryDir := s.EntryDir(key)
	if !dirExists(entryDir) {
		return "", fmt.Errorf("backing up %s: %w", key, ErrNotCached)
	}
	backupDir := filepath.Join(s.root, backupsDirName,
		sanitizeComponent(key.Name)+"-"+sanitizeComponent(key.Version)+"-"+id)
	if err := os.Rename(entryDir, backupDir); err != nil {
		return "", fmt.Errorf("backing up %s: %w", key, err)
	}
	return backupDir, nil
}

// RestoreEntry puts a backup taken with BackupEntry back at the live path
// for key, replacing whatever partial state occupies it.
func (s *Store) RestoreEntry(key Key, backupDir string) error {
	entryDir := s.EntryDir(key)
	if err := os.RemoveAll(entryDir); err != nil {
		return fmt.Errorf("clearing partial entry for %s: %w", key, err)
	}
	if err := os.MkdirAll(filepath.Dir(entryDir), dirPerm); err != nil {
		return fmt.Errorf("restoring %s: %w", key, err)
	}
	if err := os.Rename(backupDir, entryDir); err != nil {
		return fmt.Errorf("restoring %s: %w", key, err)
	}
	return nil
}

// RemoveBackup discards a backup directory after a committed update.
func (s *Store) RemoveBackup(backupDir string) error {
	if err := os.RemoveAll(backupDir); err != nil {
		return fmt.Errorf("removing backup %s: %w", backupDir, err)
	}
	return nil
}

// sanitizeComponent makes a cache key component safe to use as a single
// path segment. Branch names like "feature/json" map to "feature_json".
func sanitizeComponent(component string) string {
	replacer := strings.NewReplacer("/", "_", "\\", "_", ":", "_")
	return replacer.Replace(component)
}

// installFile copies srcPath over dst via a temp file in the destination
// directory followed by a rename.
func installFile(srcPath, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), dirPerm); err != nil {
		return fmt.Errorf("creating artifact directory: %w", err)
	}

	src, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("opening artifact: %w", err)
	}
	defer func() { _ = src.Close() }()

	tempPath := dst + ".tmp"
	temp, err := os.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("creating temp artifact: %w", err)
	}

	if _, err = io.Copy(temp, src); err != nil {
		_ = temp.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("writing temp artifact: %w", err)
	}
	if err = temp.Sync(); err != nil {
		_ = temp.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("syncing temp artifact: %w", err)
	}
	if err = temp.Close(); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("closing temp artifact: %w", err)
	}

	if err = os.Rename(tempPath, dst); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("renaming temp artifact: %w", err)
	}
	return nil
}

// compareVersions orders semver strings by semver precedence and falls back
// to lexical comparison when either side does not parse.
func compareVersions(a, b string) int {
	av, aErr := semver.NewVersion(a)
	bv, bErr := semver.NewVersion(b)
	if aErr == nil && bErr == nil {
		return av.Compare(bv)
	}
	return strings.Compare(a, b)
}

// dirSize sums the sizes of regular files under dir, best effort.
func dirSize(dir string) int64 {
	var total int64
	_ = filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil //nolint:nilerr // unreadable entries are skipped, not fatal
		}
		if info, infoErr := d.Info(); infoErr == nil {
			total += info.Size()
		}
		return nil
	})
	return total
}

// dirExists reports whether path exists and is a directory.
func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// fileExists reports whether path exists and is a regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
