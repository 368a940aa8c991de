package source

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/cratedocs/cratedocs/internal/logging"
)

// GitClient clones a repository ref into a destination directory.
type GitClient interface {
	Clone(ctx context.Context, url, ref, destDir string) error
}

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

// gitCloner shells out to the git binary.
type gitCloner struct {
	binary string
}

// NewGitCloner returns a GitClient backed by the named git binary.
func NewGitCloner(binary string) GitClient {
	if binary == "" {
		binary = "git"
	}
	return &gitCloner{binary: binary}
}

// Clone performs a shallow single-branch clone of ref into destDir. Branch
// and tag names are both accepted by --branch.
func (g *gitCloner) Clone(ctx context.Context, url, ref, destDir string) error {
	log := logging.FromContext(ctx)
	log.Debug().
		Str("component", "source").
		Str("operation", "git_clone").
		Str("url", url).
		Str("ref", ref).
		Msg("cloning repository")

	args := []string{"clone", "--depth", "1", "--branch", ref, "--single-branch", url, destDir}
	_, stderr, err := Runner.Run(ctx, "", g.binary, args...)
	if err != nil {
		return fmt.Errorf("git clone %s (ref %s): %w: %s", url, ref, err, strings.TrimSpace(string(stderr)))
	}
	return nil
}
