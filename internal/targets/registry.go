// Package targets implements the developer convenience targets exposed by
// the dev tool: named operations with one-line summaries, a help listing
// rendered from those summaries, and an exec wrapper for the external
// commands the targets orchestrate.
package targets

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// Context carries the shared settings target handlers need.
type Context struct {
	// Dir is the repository root the targets operate on.
	Dir string
	// DryRun prints the external commands instead of running them.
	DryRun bool
	// Stderr receives the help listing and command echoes.
	Stderr io.Writer
	// Args are the arguments after the target name.
	Args []string
}

// NewContext returns a context for the current directory.
func NewContext() *Context {
	dir, err := os.Getwd()
	if err != nil {
		dir = "."
	}
	return &Context{Dir: dir, Stderr: os.Stderr}
}

// Target is one named operation.
type Target struct {
	Name string
	// Summary is the one-line description printed by the help listing.
	Summary string
	Run     func(*Context) error
}

// Registry maps target names to targets, remembering registration order
// for the help listing.
type Registry struct {
	order   []string
	targets map[string]Target
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{targets: make(map[string]Target)}
}

// Register adds a target. It panics if the name is already taken.
func (r *Registry) Register(t Target) {
	if _, exists := r.targets[t.Name]; exists {
		panic(fmt.Sprintf("target %s already registered", t.Name))
	}
	r.order = append(r.order, t.Name)
	r.targets[t.Name] = t
}

// Lookup returns the target and whether it exists.
func (r *Registry) Lookup(name string) (Target, bool) {
	t, ok := r.targets[name]
	return t, ok
}

// Names returns the registered target names, sorted.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	sort.Strings(out)
	return out
}

// Run dispatches to the named target.
func (r *Registry) Run(name string, ctx *Context) error {
	t, ok := r.Lookup(name)
	if !ok {
		return fmt.Errorf("unknown target %q", name)
	}
	return t.Run(ctx)
}

// PrintHelp writes the two-column aligned target listing to w, in
// registration order.
func (r *Registry) PrintHelp(w io.Writer) {
	width := 0
	for _, name := range r.order {
		if len(name) > width {
			width = len(name)
		}
	}
	for _, name := range r.order {
		t := r.targets[name]
		fmt.Fprintf(w, "%s%s  %s\n", name, strings.Repeat(" ", width-len(name)), t.Summary)
	}
}
