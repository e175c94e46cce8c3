package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/hyperschedule/scrapers/internal/config"
	"github.com/hyperschedule/scrapers/internal/fetch"
	"github.com/hyperschedule/scrapers/internal/scraper"
	"github.com/hyperschedule/scrapers/internal/state"
)

// ScrapeCmd implements the 'scrape' command: one resumable pass for one
// school.
type ScrapeCmd struct {
	School  string        `short:"s" help:"School slug to scrape" required:""`
	Output  string        `short:"o" help:"Write the snapshot to this file instead of stdout"`
	Shuffle bool          `help:"Fetch course details in random order"`
	Timeout time.Duration `help:"Override the configured pass timeout"`
	NoLimit bool          `name:"no-limit" help:"Run without a pass deadline"`
}

func (s *ScrapeCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyLogging(cfg)
	school, ok := cfg.SchoolBySlug(s.School)
	if !ok {
		return fmt.Errorf("school %q not found in configuration", s.School)
	}

	store, err := state.Open(cfg.State.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	client, err := fetch.New(cfg.Fetch, nil)
	if err != nil {
		return err
	}
	src, err := scraper.New(school.Scraper, client, school.Options)
	if err != nil {
		return err
	}

	runner := &scraper.Runner{
		School:       school.Slug,
		Source:       src,
		Store:        store,
		Concurrency:  school.Concurrency,
		IgnoreErrors: school.IgnoreErrors,
		Shuffle:      s.Shuffle,
	}

	ctx := context.Background()
	if !s.NoLimit {
		timeout := school.Timeout
		if s.Timeout > 0 {
			timeout = s.Timeout
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if _, err := runner.RunOnce(ctx); err != nil {
		return err
	}

	snap, err := state.BuildSnapshot(context.Background(), store, school.Slug)
	if err != nil {
		return err
	}
	data, err := snap.Encode()
	if err != nil {
		return err
	}
	if s.Output != "" {
		if err := os.WriteFile(s.Output, data, 0o644); err != nil {
			return fmt.Errorf("write snapshot: %w", err)
		}
		return nil
	}
	_, err = os.Stdout.Write(data)
	return err
}
