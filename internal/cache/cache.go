// Package cache coordinates source acquisition, workspace inspection,
// and documentation generation behind a consistent on-disk cache.
// Public operations serialize per key on a sharded lock table, member
// fan-out runs concurrently, and in-place updates are wrapped in a
// backup/restore transaction so a failed refresh never corrupts an
// existing entry.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"

	"github.com/cratedocs/cratedocs/internal/docgen"
	"github.com/cratedocs/cratedocs/internal/logging"
	"github.com/cratedocs/cratedocs/internal/manifest"
	"github.com/cratedocs/cratedocs/internal/source"
	"github.com/cratedocs/cratedocs/internal/storage"
)

const (
	// lockShards sizes the arena of per-key mutexes.
	lockShards = 64
	// maxConcurrentMembers bounds parallel member generation; each task
	// may spawn a full compiler run.
	maxConcurrentMembers = 4
)

// Acquirer produces a local source tree for a descriptor.
type Acquirer interface {
	Acquire(ctx context.Context, desc source.Descriptor) (string, error)
}

// Inspector reports workspace topology from a root manifest file.
type Inspector interface {
	IsWorkspace(manifestPath string) (bool, error)
	Members(manifestPath string) ([]string, error)
}

// Generator produces and loads documentation artifacts for cached sources.
type Generator interface {
	Generate(ctx context.Context, key storage.Key) error
	GenerateMember(ctx context.Context, key storage.Key, memberPath string) error
	Load(key storage.Key) (json.RawMessage, error)
	LoadMember(key storage.Key, member string) (json.RawMessage, error)
}

// ManifestInspector implements Inspector with the manifest package.
type ManifestInspector struct{}

func (ManifestInspector) IsWorkspace(manifestPath string) (bool, error) {
	return manifest.IsWorkspace(manifestPath)
}

func (ManifestInspector) Members(manifestPath string) ([]string, error) {
	return manifest.Members(manifestPath)
}

// AmbiguousWorkspaceError reports a docs or source request against a
// workspace that did not name a member.
type AmbiguousWorkspaceError struct {
	Key     storage.Key
	Members []string
}

func (e *AmbiguousWorkspaceError) Error() string {
	return fmt.Sprintf("%s is a workspace; specify one of its members: %s",
		e.Key, strings.Join(e.Members, ", "))
}

// Cache is the public coordinator over storage, acquisition, inspection,
// and generation. Operations on the same key serialize on one lock
// shard; distinct keys proceed concurrently.
type Cache struct {
	store     *storage.Store
	acquirer  Acquirer
	inspector Inspector
	generator Generator

	locks [lockShards]sync.Mutex
}

// New assembles a Cache over the given collaborators.
func New(store *storage.Store, acquirer Acquirer, inspector Inspector, generator Generator) *Cache {
	return &Cache{store: store, acquirer: acquirer, inspector: inspector, generator: generator}
}

// keyLock returns the shard mutex serializing operations on key.
func (c *Cache) keyLock(key storage.Key) *sync.Mutex {
	return &c.locks[xxhash.Sum64String(key.String())%lockShards]
}

// EnsureDocs returns key's package-level artifact, acquiring the source
// and generating docs on a miss. A nil origin defaults to the registry.
// A second call for the same key is a pure cache hit.
func (c *Cache) EnsureDocs(ctx context.Context, key storage.Key, origin source.Descriptor) (json.RawMessage, error) {
	mu := c.keyLock(key)
	mu.Lock()
	defer mu.Unlock()
	return c.ensureDocs(ctx, key, origin)
}

func (c *Cache) ensureDocs(ctx context.Context, key storage.Key, origin source.Descriptor) (json.RawMessage, error) {
	if c.store.HasDocs(key) {
		log := logging.FromContext(ctx)
		log.Debug().
			Str("component", "cache").
			Str("operation", "ensure_docs").
			Str("key", key.String()).
			Msg("documentation cache hit")
		return c.generator.Load(key)
	}
	if err := c.ensureSource(ctx, key, origin); err != nil {
		return nil, err
	}
	if err := c.generator.Generate(ctx, key); err != nil {
		return nil, err
	}
	return c.generator.Load(key)
}

// EnsureMemberDocs returns one workspace member's artifact, generating
// it on a miss. memberPath is the member's path relative to the
// workspace root; the artifact is keyed by its final path segment.
func (c *Cache) EnsureMemberDocs(ctx context.Context, key storage.Key, origin source.Descriptor, memberPath string) (json.RawMessage, error) {
	mu := c.keyLock(key)
	mu.Lock()
	defer mu.Unlock()
	return c.ensureMemberDocs(ctx, key, origin, memberPath)
}

func (c *Cache) ensureMemberDocs(ctx context.Context, key storage.Key, origin source.Descriptor, memberPath string) (json.RawMessage, error) {
	member := manifest.MemberName(memberPath)
	if c.store.HasMemberDocs(key, member) {
		return c.generator.LoadMember(key, member)
	}
	if err := c.ensureSource(ctx, key, origin); err != nil {
		return nil, err
	}
	if err := c.generator.GenerateMember(ctx, key, memberPath); err != nil {
		return nil, err
	}
	return c.generator.LoadMember(key, member)
}

// EnsureDocsAuto dispatches between package and member documentation.
// Without a member, a workspace entry yields AmbiguousWorkspaceError
// listing the declared members rather than guessing one.
func (c *Cache) EnsureDocsAuto(ctx context.Context, key storage.Key, origin source.Descriptor, memberPath string) (json.RawMessage, error) {
	mu := c.keyLock(key)
	mu.Lock()
	defer mu.Unlock()

	if memberPath != "" {
		return c.ensureMemberDocs(ctx, key, origin, memberPath)
	}
	if c.store.HasDocs(key) {
		return c.generator.Load(key)
	}
	if err := c.ensureSource(ctx, key, origin); err != nil {
		return nil, err
	}
	if members, ok := c.workspaceMembers(ctx, key); ok {
		return nil, &AmbiguousWorkspaceError{Key: key, Members: members}
	}
	return c.ensureDocs(ctx, key, origin)
}

// EnsureSource returns key's source directory, acquiring it on a miss.
// No documentation is generated.
func (c *Cache) EnsureSource(ctx context.Context, key storage.Key, origin source.Descriptor) (string, error) {
	mu := c.keyLock(key)
	mu.Lock()
	defer mu.Unlock()

	if err := c.ensureSource(ctx, key, origin); err != nil {
		return "", err
	}
	return c.store.SourceDir(key), nil
}

// EnsureSourceAuto resolves a source directory, scoped to a member when
// one is given. A workspace without a member fails with
// AmbiguousWorkspaceError; a member without a manifest fails with
// MemberNotFoundError.
func (c *Cache) EnsureSourceAuto(ctx context.Context, key storage.Key, origin source.Descriptor, memberPath string) (string, error) {
	mu := c.keyLock(key)
	mu.Lock()
	defer mu.Unlock()

	if err := c.ensureSource(ctx, key, origin); err != nil {
		return "", err
	}
	srcDir := c.store.SourceDir(key)
	if memberPath != "" {
		memberDir := filepath.Join(srcDir, filepath.FromSlash(memberPath))
		if _, err := os.Stat(filepath.Join(memberDir, manifest.ManifestName)); err != nil {
			return "", &docgen.MemberNotFoundError{Key: key, Member: memberPath}
		}
		return memberDir, nil
	}
	if members, ok := c.workspaceMembers(ctx, key); ok {
		return "", &AmbiguousWorkspaceError{Key: key, Members: members}
	}
	return srcDir, nil
}

// ensureSource acquires key's source when it is not already cached. The
// caller holds the key lock.
func (c *Cache) ensureSource(ctx context.Context, key storage.Key, origin source.Descriptor) error {
	if c.store.IsCached(key) {
		return nil
	}
	_, err := c.acquirer.Acquire(ctx, c.resolveOrigin(key, origin))
	return err
}

// resolveOrigin defaults a nil descriptor to the public registry.
func (c *Cache) resolveOrigin(key storage.Key, origin source.Descriptor) source.Descriptor {
	if origin != nil {
		return origin
	}
	return source.RegistryRef{Name: key.Name, Version: key.Version}
}

// List enumerates every cached entry.
func (c *Cache) List() ([]storage.EntryInfo, error) {
	return c.store.List()
}

// Versions lists the cached versions of one crate.
func (c *Cache) Versions(name string) ([]string, error) {
	return c.store.Versions(name)
}

// Remove deletes one cached entry along with its artifacts.
func (c *Cache) Remove(key storage.Key) error {
	mu := c.keyLock(key)
	mu.Lock()
	defer mu.Unlock()
	return c.store.Remove(key)
}

// CacheFromSource caches the crate desc describes and classifies the
// result; it never returns an error. Updates of cached entries run
// inside a backup/restore transaction.
func (c *Cache) CacheFromSource(ctx context.Context, desc source.Descriptor) Outcome {
	if desc == nil {
		return Failure{Message: "no source descriptor provided"}
	}
	if err := desc.Validate(); err != nil {
		return Failure{Message: err.Error()}
	}
	key := desc.Key()

	mu := c.keyLock(key)
	mu.Lock()
	defer mu.Unlock()

	if desc.WantsUpdate() && c.store.IsCached(key) {
		return c.updateLocked(ctx, desc, key)
	}
	if len(desc.RequestedMembers()) == 0 && c.store.HasDocs(key) {
		return Success{Name: key.Name, Version: key.Version}
	}
	outcome, err := c.populateLocked(ctx, desc, false)
	if err != nil {
		return Failure{Message: err.Error()}
	}
	return outcome
}

// updateLocked re-caches key inside a transaction. Any failure restores
// the prior entry before it is reported.
func (c *Cache) updateLocked(ctx context.Context, desc source.Descriptor, key storage.Key) Outcome {
	txn, err := BeginUpdate(ctx, c.store, key)
	if err != nil {
		return Failure{Message: fmt.Sprintf("starting update transaction: %v", err)}
	}
	defer txn.Abandon(ctx)

	outcome, err := c.populateLocked(ctx, desc, true)
	if err != nil {
		if rbErr := txn.Rollback(); rbErr != nil {
			return Failure{Message: fmt.Sprintf("update failed: %v; restore also failed: %v", err, rbErr)}
		}
		return Failure{Message: fmt.Sprintf("update failed, restored from backup: %v", err)}
	}
	if err := txn.Commit(); err != nil {
		return Failure{Message: err.Error()}
	}
	return outcome
}

// populateLocked acquires desc's source and generates docs, classifying
// workspace topology on the way. The caller holds the key lock.
func (c *Cache) populateLocked(ctx context.Context, desc source.Descriptor, updated bool) (Outcome, error) {
	key := desc.Key()
	if !c.store.IsCached(key) {
		if _, err := c.acquirer.Acquire(ctx, desc); err != nil {
			return nil, err
		}
	}
	if members := desc.RequestedMembers(); len(members) > 0 {
		return c.cacheMembersLocked(ctx, key, members, updated)
	}
	if members, ok := c.workspaceMembers(ctx, key); ok {
		log := logging.FromContext(ctx)
		log.Debug().
			Str("component", "cache").
			Str("operation", "cache_from_source").
			Str("key", key.String()).
			Strs("members", members).
			Msg("workspace detected; no docs generated")
		return WorkspaceDetected{
			Name:    key.Name,
			Version: key.Version,
			Source:  desc.Kind(),
			Members: members,
			Updated: updated,
		}, nil
	}
	if !c.store.HasDocs(key) {
		if err := c.generator.Generate(ctx, key); err != nil {
			return nil, err
		}
	}
	if updated {
		return Updated{Name: key.Name, Version: key.Version}, nil
	}
	return Success{Name: key.Name, Version: key.Version}, nil
}

// cacheMembersLocked generates docs for each requested member as an
// independent task. Tasks are jointly awaited; a member's failure never
// aborts a sibling, and results keep request order.
func (c *Cache) cacheMembersLocked(ctx context.Context, key storage.Key, members []string, updated bool) (Outcome, error) {
	type memberResult struct {
		member string
		err    error
	}
	results := make([]memberResult, len(members))

	var g errgroup.Group
	g.SetLimit(maxConcurrentMembers)
	for i, memberPath := range members {
		i, memberPath := i, memberPath
		g.Go(func() error {
			name := manifest.MemberName(memberPath)
			if !updated && c.store.HasMemberDocs(key, name) {
				results[i] = memberResult{member: name}
				return nil
			}
			err := c.generator.GenerateMember(ctx, key, memberPath)
			results[i] = memberResult{member: name, err: err}
			return nil
		})
	}
	// Tasks record failures instead of returning them, so Wait cannot fail.
	_ = g.Wait()

	var cached, failures []string
	for _, r := range results {
		if r.err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", r.member, r.err))
		} else {
			cached = append(cached, r.member)
		}
	}

	if len(failures) == 0 {
		return MembersCached{Name: key.Name, Version: key.Version, Members: cached, Updated: updated}, nil
	}
	if updated && len(cached) == 0 {
		return nil, fmt.Errorf("failed to update any workspace members: %s", strings.Join(failures, "; "))
	}
	return PartialFailure{Name: key.Name, Version: key.Version, Cached: cached, Errors: failures, Updated: updated}, nil
}

// workspaceMembers probes key's root manifest. Probe errors are logged
// and treated as "not a workspace" so single-package flows continue.
func (c *Cache) workspaceMembers(ctx context.Context, key storage.Key) ([]string, bool) {
	manifestPath := filepath.Join(c.store.SourceDir(key), manifest.ManifestName)
	isWorkspace, err := c.inspector.IsWorkspace(manifestPath)
	if err != nil {
		log := logging.FromContext(ctx)
		log.Warn().
			Err(err).
			Str("component", "cache").
			Str("key", key.String()).
			Msg("workspace probe failed; continuing as a single package")
		return nil, false
	}
	if !isWorkspace {
		return nil, false
	}
	members, err := c.inspector.Members(manifestPath)
	if err != nil {
		log := logging.FromContext(ctx)
		log.Warn().
			Err(err).
			Str("component", "cache").
			Str("key", key.String()).
			Msg("workspace member listing failed; continuing as a single package")
		return nil, false
	}
	return members, true
}
