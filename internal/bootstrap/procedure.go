// Package bootstrap implements the container build step that installs the
// scraper's runtime dependencies from the pinned lockfile and then prunes
// the manifest, the lockfile and its own executable from the image layer.
// The files are inputs to the build only; the finished image does not
// need them.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
)

// Defaults for the external install tool. The tool's internals are not
// ours; it only has to honor the lockfile and exit non-zero on failure.
const (
	DefaultTool     = "pipenv"
	DefaultManifest = "Pipfile"
	DefaultLockfile = "Pipfile.lock"
)

// DefaultArgs instruct the tool to materialize exactly the locked
// versions into the ambient environment, with no re-resolution.
var DefaultArgs = []string{"install", "--system", "--deploy"}

// Procedure is the two-step install-and-prune sequence. The zero value is
// not usable; construct with Default and override as needed.
type Procedure struct {
	// Dir is the working directory holding the manifest and lockfile.
	Dir      string
	Tool     string
	Args     []string
	Manifest string
	Lockfile string
	// Self is the file removed as the final act. Empty means the running
	// executable.
	Self   string
	Stdout io.Writer
	Stderr io.Writer
}

// Default returns the stock procedure for the current directory, with the
// install tool overridable through HYPERSCHEDULE_INSTALL_TOOL.
func Default() Procedure {
	p := Procedure{
		Dir:      ".",
		Tool:     DefaultTool,
		Args:     DefaultArgs,
		Manifest: DefaultManifest,
		Lockfile: DefaultLockfile,
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
	}
	if tool := os.Getenv("HYPERSCHEDULE_INSTALL_TOOL"); tool != "" {
		p.Tool = tool
	}
	return p
}

// Run executes the sequence: install, then prune. The prune step runs
// only after a verified-successful install; on install failure the
// manifest and lockfile stay in place so the build can be inspected and
// retried.
func (p Procedure) Run(ctx context.Context) error {
	manifest := filepath.Join(p.Dir, p.Manifest)
	lockfile := filepath.Join(p.Dir, p.Lockfile)
	for _, f := range []string{manifest, lockfile} {
		if _, err := os.Stat(f); err != nil {
			return fmt.Errorf("precondition: %w", err)
		}
	}

	if err := p.install(ctx); err != nil {
		return err
	}
	return p.prune(manifest, lockfile)
}

func (p Procedure) install(ctx context.Context) error {
	slog.Info("installing dependencies", "tool", p.Tool, "args", p.Args)
	cmd := exec.CommandContext(ctx, p.Tool, p.Args...)
	cmd.Dir = p.Dir
	cmd.Stdout = p.Stdout
	cmd.Stderr = p.Stderr
	if err := cmd.Run(); err != nil {
		// No added context from the tool's own output; just the step.
		return fmt.Errorf("install step (%s): %w", p.Tool, err)
	}
	return nil
}

func (p Procedure) prune(manifest, lockfile string) error {
	self := p.Self
	if self == "" {
		exe, err := os.Executable()
		if err != nil {
			return fmt.Errorf("prune step: locate own executable: %w", err)
		}
		self = exe
	}
	for _, f := range []string{manifest, lockfile, self} {
		if err := os.Remove(f); err != nil {
			return fmt.Errorf("prune step: %w", err)
		}
		slog.Info("pruned", "file", f)
	}
	return nil
}

// ExitCode maps a Run error onto the process exit status, propagating the
// install tool's own status when there is one.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return 1
}
