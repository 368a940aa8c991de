// Package docgen produces and loads structured documentation artifacts for
// cached crate sources. Artifact generation is delegated to an external
// toolchain behind the Tool interface; this package owns preconditions,
// artifact placement, and artifact loading.
package docgen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/cratedocs/cratedocs/internal/logging"
	"github.com/cratedocs/cratedocs/internal/manifest"
	"github.com/cratedocs/cratedocs/internal/storage"
)

var (
	// ErrSourceNotCached indicates generation was requested before the
	// crate source was acquired.
	ErrSourceNotCached = errors.New("crate source is not cached")
	// ErrDocsNotFound indicates no artifact has been generated for the key.
	ErrDocsNotFound = errors.New("documentation artifact not found")
	// ErrArtifactCorrupt indicates the on-disk artifact is unreadable.
	ErrArtifactCorrupt = errors.New("documentation artifact is not valid JSON")
)

// MemberNotFoundError indicates a requested workspace member has no
// manifest under the cached source tree.
type MemberNotFoundError struct {
	Key    storage.Key
	Member string
}

func (e *MemberNotFoundError) Error() string {
	return fmt.Sprintf("workspace member %q not found in %s", e.Member, e.Key)
}

// Tool runs the external documentation toolchain on one crate directory
// and returns the path of the JSON artifact it produced.
type Tool interface {
	Generate(ctx context.Context, dir string) (artifactPath string, err error)
}

// Generator coordinates artifact production for cached sources.
type Generator struct {
	store *storage.Store
	tool  Tool
}

// NewGenerator wires a Generator to its storage and tool backend.
func NewGenerator(store *storage.Store, tool Tool) *Generator {
	return &Generator{store: store, tool: tool}
}

// Generate produces the package-level artifact for key. The source must
// already be cached. On tool failure no artifact becomes visible to Load.
func (g *Generator) Generate(ctx context.Context, key storage.Key) error {
	if !g.store.IsCached(key) {
		return fmt.Errorf("generating docs for %s: %w", key, ErrSourceNotCached)
	}

	log := logging.FromContext(ctx)
	start := time.Now()

	artifactPath, err := g.tool.Generate(ctx, g.store.SourceDir(key))
	if err != nil {
		return fmt.Errorf("generating docs for %s: %w", key, err)
	}
	if err := g.store.InstallDocs(key, artifactPath); err != nil {
		return err
	}

	log.Info().
		Str("component", "docgen").
		Str("operation", "generate").
		Str("crate", key.String()).
		Dur("duration", time.Since(start)).
		Msg("documentation generated")
	return nil
}

// GenerateMember produces the artifact for one workspace member, identified
// by its path relative to the source root. Fails with MemberNotFoundError
// when the member's manifest is absent.
func (g *Generator) GenerateMember(ctx context.Context, key storage.Key, memberPath string) error {
	if !g.store.IsCached(key) {
		return fmt.Errorf("generating member docs for %s: %w", key, ErrSourceNotCached)
	}

	memberDir := filepath.Join(g.store.SourceDir(key), filepath.FromSlash(memberPath))
	if _, err := os.Stat(filepath.Join(memberDir, manifest.ManifestName)); err != nil {
		return &MemberNotFoundError{Key: key, Member: memberPath}
	}

	log := logging.FromContext(ctx)
	start := time.Now()
	memberName := manifest.MemberName(memberPath)

	artifactPath, err := g.tool.Generate(ctx, memberDir)
	if err != nil {
		return fmt.Errorf("generating docs for member %s of %s: %w", memberName, key, err)
	}
	if err := g.store.InstallMemberDocs(key, memberName, artifactPath); err != nil {
		return err
	}

	log.Info().
		Str("component", "docgen").
		Str("operation", "generate_member").
		Str("crate", key.String()).
		Str("member", memberName).
		Dur("duration", time.Since(start)).
		Msg("member documentation generated")
	return nil
}

// Load returns the package-level artifact for key as raw JSON. The artifact
// is opaque to cratedocs beyond being well-formed JSON.
func (g *Generator) Load(key storage.Key) (json.RawMessage, error) {
	return loadArtifact(g.store.DocsPath(key), key.String())
}

// LoadMember returns the artifact for the named member of key.
func (g *Generator) LoadMember(key storage.Key, member string) (json.RawMessage, error) {
	return loadArtifact(g.store.MemberDocsPath(key, member), key.String()+" member "+member)
}

// loadArtifact reads and checks one artifact file.
func loadArtifact(path, what string) (json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading docs for %s: %w", what, ErrDocsNotFound)
		}
		return nil, fmt.Errorf("loading docs for %s: %w", what, err)
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("loading docs for %s: %w", what, ErrArtifactCorrupt)
	}
	return json.RawMessage(data), nil
}
