package commands

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/hyperschedule/scrapers/internal/config"
)

// Global carries shared state for subcommands.
type Global struct {
	Logger *slog.Logger
}

// CLI is the root command definition and global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"config.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Scrape   ScrapeCmd   `cmd:"" help:"Run one scrape pass for a school and emit the snapshot"`
	Daemon   DaemonCmd   `cmd:"" help:"Run continuously: scheduled passes, HTTP API and metrics"`
	Init     InitCmd     `cmd:"" help:"Initialize a new configuration file"`
	Validate ValidateCmd `cmd:"" help:"Load and validate the configuration file"`
}

// logLevel stays adjustable after startup: the verbose setting can come
// from the configuration file or the VERBOSE environment variable, both
// of which are read after flag parsing.
var logLevel = new(slog.LevelVar)

// AfterApply runs after flag parsing; set up logging once.
func (c *CLI) AfterApply() error {
	logLevel.Set(slog.LevelInfo)
	if c.Verbose {
		logLevel.Set(slog.LevelDebug)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
	return nil
}

// applyLogging raises the log level when the loaded configuration asks
// for verbose output.
func applyLogging(cfg *config.Config) {
	if cfg.Verbose {
		logLevel.Set(slog.LevelDebug)
	}
}
