// Command dev exposes the developer convenience targets. Run a target by
// name; with no argument (or an unknown one) the target listing is
// printed to stderr.
//
//	dev [-n] <target> [args...]
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/hyperschedule/scrapers/internal/targets"
)

func main() {
	dryRun := flag.Bool("n", false, "print external commands instead of running them")
	flag.Parse()

	registry := targets.NewRegistry()
	registry.Register(targets.DevTarget())
	registry.Register(targets.HelpTarget(registry))

	ctx := targets.NewContext()
	ctx.DryRun = *dryRun
	ctx.Args = flag.Args()

	if flag.NArg() == 0 {
		registry.PrintHelp(ctx.Stderr)
		os.Exit(2)
	}
	name := flag.Arg(0)
	ctx.Args = flag.Args()[1:]
	if _, ok := registry.Lookup(name); !ok {
		fmt.Fprintf(ctx.Stderr, "unknown target %q\n\n", name)
		registry.PrintHelp(ctx.Stderr)
		os.Exit(2)
	}
	if err := registry.Run(name, ctx); err != nil {
		fmt.Fprintln(ctx.Stderr, "error:", err)
		os.Exit(1)
	}
}
