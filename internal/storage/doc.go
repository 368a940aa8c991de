// Package storage owns the on-disk layout of the cratedocs cache.
//
// Every cached crate release occupies one directory keyed by name and
// version. The directory holds the acquired source tree and, once
// generated, a package-level documentation artifact plus per-member
// artifacts for workspace crates:
//
//	<root>/crates/<name>/<version>/source/           acquired source tree
//	<root>/crates/<name>/<version>/docs.json         package artifact
//	<root>/crates/<name>/<version>/members/<m>.json  member artifacts
//	<root>/backups/<name>-<version>-<id>/            pending update backups
//
// The filesystem is the single source of truth: listings, presence checks,
// and removal all operate directly on the directory tree, so no index can
// drift out of sync. Artifact installation goes through a temp-file rename
// so a partially written artifact is never visible at its final path.
package storage
