package source

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// maxFileSize caps a single extracted file to guard against decompression
// bombs.
const maxFileSize = 500 * 1024 * 1024 // 500MB

// extractDirPerm is the mode for directories created during extraction.
const extractDirPerm = 0750

// ExtractCrate extracts a .crate archive (a gzip tarball) into destDir.
// Registry archives nest every entry under a single "<name>-<version>/"
// root directory, which is stripped so destDir becomes the crate root.
func ExtractCrate(archivePath, destDir string) error {
	file, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer func() { _ = file.Close() }()

	gzReader, err := gzip.NewReader(file)
	if err != nil {
		return fmt.Errorf("reading gzip archive: %w", err)
	}
	defer func() { _ = gzReader.Close() }()

	if err := os.MkdirAll(destDir, extractDirPerm); err != nil {
		return fmt.Errorf("creating extraction directory: %w", err)
	}

	tarReader := tar.NewReader(gzReader)
	for {
		header, readErr := tarReader.Next()
		if errors.Is(readErr, io.EOF) {
			return nil
		}
		if readErr != nil {
			return fmt.Errorf("reading tar archive: %w", readErr)
		}

		name := stripArchiveRoot(header.Name)
		if name == "" {
			continue
		}
		target, pathErr := sanitizeArchivePath(destDir, name)
		if pathErr != nil {
			return pathErr
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, extractDirPerm); err != nil {
				return fmt.Errorf("creating directory %s: %w", name, err)
			}
		case tar.TypeReg:
			if header.Size > maxFileSize {
				return fmt.Errorf("archive entry %s exceeds size limit", name)
			}
			if err := writeArchiveFile(target, tarReader, header); err != nil {
				return fmt.Errorf("extracting %s: %w", name, err)
			}
		default:
			// Symlinks and special files do not occur in packaged crates.
			continue
		}
	}
}

// writeArchiveFile writes one regular file entry to target.
func writeArchiveFile(target string, r io.Reader, header *tar.Header) error {
	if err := os.MkdirAll(filepath.Dir(target), extractDirPerm); err != nil {
		return err
	}

	perm := os.FileMode(0600)
	if header.FileInfo().Mode()&0100 != 0 {
		perm = 0700
	}
	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}

	written, err := io.Copy(out, io.LimitReader(r, maxFileSize+1))
	if err != nil {
		_ = out.Close()
		return err
	}
	if written > maxFileSize {
		_ = out.Close()
		return errors.New("file exceeds size limit")
	}
	return out.Close()
}

// sanitizeArchivePath joins an archive entry name onto destDir, rejecting
// absolute names and any path that would escape the destination.
func sanitizeArchivePath(destDir, name string) (string, error) {
	if filepath.IsAbs(name) {
		return "", fmt.Errorf("archive entry has absolute path: %s", name)
	}
	target := filepath.Join(destDir, filepath.FromSlash(name))
	if !strings.HasPrefix(target, filepath.Clean(destDir)+string(os.PathSeparator)) {
		return "", fmt.Errorf("archive entry escapes destination: %s", name)
	}
	return target, nil
}

// stripArchiveRoot removes the leading path segment of a tar entry name.
// The root directory entry itself maps to "".
func stripArchiveRoot(name string) string {
	cleaned := strings.TrimPrefix(filepath.ToSlash(name), "./")
	idx := strings.Index(cleaned, "/")
	if idx < 0 {
		return ""
	}
	return strings.Trim(cleaned[idx+1:], "/")
}
