package commands

import (
	"fmt"
	"log/slog"

	"github.com/hyperschedule/scrapers/internal/config"
	"github.com/hyperschedule/scrapers/internal/scraper"
)

// ValidateCmd implements the 'validate' command.
type ValidateCmd struct{}

func (v *ValidateCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	applyLogging(cfg)
	// Config validation does not know which scrapers are compiled in;
	// check that here.
	registered := make(map[string]bool)
	for _, name := range scraper.Names() {
		registered[name] = true
	}
	for _, school := range cfg.Schools {
		if !registered[school.Scraper] {
			return fmt.Errorf("school %s references unknown scraper %q (registered: %v)",
				school.Slug, school.Scraper, scraper.Names())
		}
	}
	slog.Info("configuration valid", "path", root.Config, "schools", len(cfg.Schools))
	return nil
}
