package targets

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// run executes an external command with the host's stdio attached, so
// interactive container sessions work. In dry-run mode the command line
// is echoed to the context's stderr instead. A non-zero exit is an error
// carrying the command line; the whole target aborts on the first one.
func run(ctx *Context, name string, args ...string) error {
	cmdline := name + " " + strings.Join(args, " ")
	if ctx.DryRun {
		fmt.Fprintln(ctx.Stderr, "+ "+cmdline)
		return nil
	}
	if os.Getenv("HYPERSCHEDULE_DEBUG") == "1" {
		fmt.Fprintln(ctx.Stderr, "+ "+cmdline)
	}
	cmd := exec.Command(name, args...)
	cmd.Dir = ctx.Dir
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w", cmdline, err)
	}
	return nil
}
