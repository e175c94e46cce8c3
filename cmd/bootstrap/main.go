// Command bootstrap is a container image build step: it installs the
// scraper's runtime dependencies from the pinned lockfile, then removes
// the manifest, the lockfile and itself from the layer. It takes no
// arguments; see internal/bootstrap for the environment overrides.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/hyperschedule/scrapers/internal/bootstrap"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	if err := bootstrap.Default().Run(context.Background()); err != nil {
		slog.Error("bootstrap failed", "error", err)
		os.Exit(bootstrap.ExitCode(err))
	}
}
