package docgen

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/cratedocs/cratedocs/internal/logging"
	"github.com/cratedocs/cratedocs/internal/manifest"
)

// DefaultGenerateTimeout bounds one documentation build when the caller
// does not configure a limit.
const DefaultGenerateTimeout = 10 * time.Minute

// stderrTailLimit caps how much compiler output is carried into errors.
const stderrTailLimit = 2000

// CommandRunner executes an external command and returns its stdout, stderr, and error.
// This interface enables testing without spawning real subprocesses.
type CommandRunner interface {
	Run(ctx context.Context, dir string, name string, args ...string) (stdout []byte, stderr []byte, err error)
}

// execRunner is the default CommandRunner that uses exec.CommandContext.
type execRunner struct{}

func (r *execRunner) Run(ctx context.Context, dir string, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Env = os.Environ()

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// Runner is the package-level CommandRunner. Replace in tests with a mock.
var Runner CommandRunner = &execRunner{} //nolint:gochecknoglobals // Required for test injection

// CargoTool generates rustdoc JSON artifacts by shelling out to cargo.
// JSON output needs the nightly toolchain's unstable rustdoc flags.
type CargoTool struct {
	cargo     string
	toolchain string
	timeout   time.Duration
}

// NewCargoTool builds a CargoTool. Empty arguments select "cargo", the
// "nightly" toolchain, and DefaultGenerateTimeout.
func NewCargoTool(cargo, toolchain string, timeout time.Duration) *CargoTool {
	if cargo == "" {
		cargo = "cargo"
	}
	if toolchain == "" {
		toolchain = "nightly"
	}
	if timeout <= 0 {
		timeout = DefaultGenerateTimeout
	}
	return &CargoTool{cargo: cargo, toolchain: toolchain, timeout: timeout}
}

// Generate runs cargo rustdoc with JSON output in dir and returns the path
// of the artifact under dir's target directory. The crate name is read from
// the directory's manifest to locate the output file.
func (t *CargoTool) Generate(ctx context.Context, dir string) (string, error) {
	m, err := manifest.Load(filepath.Join(dir, manifest.ManifestName))
	if err != nil {
		return "", err
	}
	if m.Package == nil || m.Package.Name == "" {
		return "", fmt.Errorf("manifest in %s names no package", dir)
	}

	targetDir := filepath.Join(dir, "target")
	args := []string{
		"+" + t.toolchain,
		"rustdoc", "--lib", "--target-dir", targetDir,
		"--", "-Z", "unstable-options", "--output-format", "json",
	}

	log := logging.FromContext(ctx)
	log.Debug().
		Str("component", "docgen").
		Str("operation", "cargo_rustdoc").
		Str("dir", dir).
		Str("package", m.Package.Name).
		Msg("running documentation toolchain")

	runCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	_, stderr, err := Runner.Run(runCtx, dir, t.cargo, args...)
	if err != nil {
		return "", fmt.Errorf("cargo rustdoc for %s: %w: %s", m.Package.Name, err, tailOf(stderr))
	}

	// rustdoc writes <crate>.json with hyphens normalized to underscores.
	artifact := filepath.Join(targetDir, "doc", strings.ReplaceAll(m.Package.Name, "-", "_")+".json")
	if _, err := os.Stat(artifact); err != nil {
		return "", fmt.Errorf("cargo rustdoc for %s produced no artifact at %s", m.Package.Name, artifact)
	}
	return artifact, nil
}

// tailOf trims compiler output to its last lines so errors stay readable.
func tailOf(output []byte) string {
	trimmed := strings.TrimSpace(string(output))
	if len(trimmed) <= stderrTailLimit {
		return trimmed
	}
	return "..." + trimmed[len(trimmed)-stderrTailLimit:]
}
