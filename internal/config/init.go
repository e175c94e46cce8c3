package config

import (
	"fmt"
	"os"
)

// starterConfig is written by `hyperschedule init`.
const starterConfig = `# Hyperschedule scraper configuration.
schools:
  - slug: cuboulder
    interval: 10m
    timeout: 60s
    concurrency: 8
    # ignore_errors: true

fetch:
  cache: true
  retry:
    backoff: linear
    initial: 1s
    max: 30s
    max_retries: 2

state:
  path: data/hyperschedule.db

daemon:
  listen: 127.0.0.1:3000
  # nats:
  #   url: nats://127.0.0.1:4222
  #   subject: hyperschedule.scrape.completed
`

// Init writes a starter configuration file. It refuses to overwrite an
// existing file unless force is set.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("configuration file %s already exists (use --force to overwrite)", path)
	}
	if err := os.WriteFile(path, []byte(starterConfig), 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}
