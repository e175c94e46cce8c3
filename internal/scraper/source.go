// Package scraper defines the maintainer-facing API for writing a school
// scraper and the runtime that drives one scrape pass: discover the
// current term and course list, fetch details for courses not yet
// completed in this pass, and persist progress so the next pass resumes
// where this one stopped.
package scraper

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/hyperschedule/scrapers/internal/course"
	"github.com/hyperschedule/scrapers/internal/fetch"
)

// Source is implemented once per school.
type Source interface {
	// Discover returns the current term and the keys of every course the
	// school currently lists. The map value is a per-key hint (typically
	// the course code) passed back to Fetch and used to order fetches.
	Discover(ctx context.Context) (*course.Term, map[string]string, error)

	// Fetch returns full data for one course. Called concurrently.
	Fetch(ctx context.Context, key, hint string) (*course.Course, error)
}

// Factory builds a Source from the shared fetch client and the school's
// config options.
type Factory func(client *fetch.Client, opts map[string]string) (Source, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register makes a scraper available under name. It panics on duplicate
// registration; call from the scraper package's init.
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("scraper %q already registered", name))
	}
	registry[name] = f
}

// New instantiates the scraper registered under name.
func New(name string, client *fetch.Client, opts map[string]string) (Source, error) {
	registryMu.RLock()
	f, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown scraper %q (registered: %v)", name, Names())
	}
	return f(client, opts)
}

// Names lists the registered scraper names, sorted.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
