package bootstrap

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeTool writes a shell script that records its invocation and exits
// with the given status.
func fakeTool(t *testing.T, dir string, exitCode int) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fake tool")
	}
	path := filepath.Join(dir, "fake-tool")
	script := "#!/bin/sh\necho \"tool ran: $@\"\nexit " + strconv.Itoa(exitCode) + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func setupDir(t *testing.T) (dir string, p Procedure, out *bytes.Buffer) {
	t.Helper()
	dir = t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Pipfile"), []byte("[packages]\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Pipfile.lock"), []byte("{}\n"), 0o644))
	self := filepath.Join(dir, "bootstrap-bin")
	require.NoError(t, os.WriteFile(self, []byte("binary"), 0o755))

	out = &bytes.Buffer{}
	p = Procedure{
		Dir:      dir,
		Args:     []string{"install", "--system", "--deploy"},
		Manifest: "Pipfile",
		Lockfile: "Pipfile.lock",
		Self:     self,
		Stdout:   out,
		Stderr:   out,
	}
	return dir, p, out
}

func TestRunInstallsThenPrunes(t *testing.T) {
	dir, p, out := setupDir(t)
	p.Tool = fakeTool(t, dir, 0)

	require.NoError(t, p.Run(context.Background()))
	require.Contains(t, out.String(), "tool ran: install --system --deploy")

	for _, f := range []string{"Pipfile", "Pipfile.lock", "bootstrap-bin"} {
		_, err := os.Stat(filepath.Join(dir, f))
		require.True(t, os.IsNotExist(err), "%s should be pruned", f)
	}
}

func TestRunKeepsFilesOnInstallFailure(t *testing.T) {
	dir, p, _ := setupDir(t)
	p.Tool = fakeTool(t, dir, 3)

	err := p.Run(context.Background())
	require.Error(t, err)
	require.Equal(t, 3, ExitCode(err))

	for _, f := range []string{"Pipfile", "Pipfile.lock", "bootstrap-bin"} {
		_, statErr := os.Stat(filepath.Join(dir, f))
		require.NoError(t, statErr, "%s should survive a failed install", f)
	}
}

func TestRunRequiresManifestAndLockfile(t *testing.T) {
	dir, p, out := setupDir(t)
	p.Tool = fakeTool(t, dir, 0)
	require.NoError(t, os.Remove(filepath.Join(dir, "Pipfile.lock")))

	err := p.Run(context.Background())
	require.ErrorContains(t, err, "precondition")
	require.NotContains(t, out.String(), "tool ran", "install must not run without the lockfile")
}

// A second run fails because the first one consumed its inputs.
func TestRunIsSingleShot(t *testing.T) {
	dir, p, _ := setupDir(t)
	p.Tool = fakeTool(t, dir, 0)

	require.NoError(t, p.Run(context.Background()))
	require.ErrorContains(t, p.Run(context.Background()), "precondition")
}

func TestRunMissingTool(t *testing.T) {
	dir, p, _ := setupDir(t)
	p.Tool = filepath.Join(dir, "does-not-exist")

	err := p.Run(context.Background())
	require.Error(t, err)
	require.Equal(t, 1, ExitCode(err))

	_, statErr := os.Stat(filepath.Join(dir, "Pipfile"))
	require.NoError(t, statErr)
}

func TestExitCode(t *testing.T) {
	require.Equal(t, 0, ExitCode(nil))
	require.Equal(t, 1, ExitCode(context.Canceled))
}

func TestDefaultHonorsToolOverride(t *testing.T) {
	t.Setenv("HYPERSCHEDULE_INSTALL_TOOL", "uv")
	p := Default()
	require.Equal(t, "uv", p.Tool)
	require.Equal(t, "Pipfile", p.Manifest)
	require.Equal(t, "Pipfile.lock", p.Lockfile)
}
