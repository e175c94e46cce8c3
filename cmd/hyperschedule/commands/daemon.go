package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/hyperschedule/scrapers/internal/config"
	"github.com/hyperschedule/scrapers/internal/daemon"
)

// DaemonCmd implements the 'daemon' command.
type DaemonCmd struct{}

func (d *DaemonCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyLogging(cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	svc, err := daemon.New(cfg, root.Config)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	return svc.Run(ctx)
}
