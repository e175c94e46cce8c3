package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/hyperschedule/scrapers/cmd/hyperschedule/commands"
	"github.com/hyperschedule/scrapers/internal/version"

	// Registered scrapers.
	_ "github.com/hyperschedule/scrapers/internal/scraper/cuboulder"
)

func main() {
	cli := &commands.CLI{}
	kctx := kong.Parse(cli,
		kong.Name("hyperschedule"),
		kong.Description("Course catalog scraper platform."),
		kong.Vars{"version": version.Version},
	)
	if err := kctx.Run(&commands.Global{}, cli); err != nil {
		slog.Error("command failed", "command", kctx.Command(), "error", err)
		os.Exit(1)
	}
}
