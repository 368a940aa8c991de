package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/cratedocs/cratedocs/internal/logging"
)

// ErrCrateNotFound indicates the registry has no such name/version pair.
var ErrCrateNotFound = errors.New("crate not found in registry")

// RegistryClient downloads a published crate release into a destination
// directory.
type RegistryClient interface {
	Download(ctx context.Context, name, version, destDir string) error
}

// registryClient talks to a crates.io-compatible registry over HTTP.
type registryClient struct {
	baseURL   string
	userAgent string
	client    *http.Client
}

// NewRegistryClient returns a RegistryClient for the registry at baseURL.
// No request timeout is imposed here; callers bound downloads through ctx.
func NewRegistryClient(baseURL, userAgent string) RegistryClient {
	return &registryClient{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		userAgent: userAgent,
		client:    &http.Client{},
	}
}

// Download fetches the .crate archive for name/version and extracts it into
// destDir. The registry responds with a redirect to CDN storage, which the
// HTTP client follows.
func (c *registryClient) Download(ctx context.Context, name, version, destDir string) error {
	url := fmt.Sprintf("%s/api/v1/crates/%s/%s/download", c.baseURL, name, version)

	log := logging.FromContext(ctx)
	log.Debug().
		Str("component", "source").
		Str("operation", "registry_download").
		Str("crate", name).
		Str("version", version).
		Str("url", url).
		Msg("downloading crate archive")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("building download request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("downloading %s@%s: %w", name, version, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%s@%s: %w", name, version, ErrCrateNotFound)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("downloading %s@%s: registry returned %s", name, version, resp.Status)
	}

	archive, err := os.CreateTemp("", "cratedocs-*.crate")
	if err != nil {
		return fmt.Errorf("creating temp archive: %w", err)
	}
	archivePath := archive.Name()
	defer func() { _ = os.Remove(archivePath) }()

	if _, err = io.Copy(archive, resp.Body); err != nil {
		_ = archive.Close()
		return fmt.Errorf("writing crate archive: %w", err)
	}
	if err = archive.Close(); err != nil {
		return fmt.Errorf("closing crate archive: %w", err)
	}

	if err = ExtractCrate(archivePath, destDir); err != nil {
		return fmt.Errorf("extracting %s@%s: %w", name, version, err)
	}
	return nil
}
