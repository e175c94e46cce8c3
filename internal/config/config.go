// Package config loads the scraper platform configuration: which schools
// to scrape, how to fetch, where state lives and how the daemon serves.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Schools []School     `yaml:"schools"`
	Fetch   FetchConfig  `yaml:"fetch"`
	State   StateConfig  `yaml:"state"`
	Daemon  DaemonConfig `yaml:"daemon"`
	// Verbose enables debug logging. The --verbose flag and the VERBOSE
	// environment variable both override it.
	Verbose bool `yaml:"verbose,omitempty"`
}

// School configures one scraper instance.
type School struct {
	// Slug identifies the school in state, snapshots and URLs.
	Slug string `yaml:"slug"`
	// Scraper names the registered scraper implementation. Defaults to the
	// slug.
	Scraper string `yaml:"scraper,omitempty"`
	// Options are passed verbatim to the scraper factory.
	Options map[string]string `yaml:"options,omitempty"`
	// Interval between scheduled passes in daemon mode.
	Interval time.Duration `yaml:"interval,omitempty"`
	// Timeout bounds one scrape pass; detail fetching stops early enough
	// to persist what it has.
	Timeout time.Duration `yaml:"timeout,omitempty"`
	// Concurrency bounds parallel detail fetches.
	Concurrency int `yaml:"concurrency,omitempty"`
	// IgnoreErrors keeps a pass going when individual course fetches fail.
	IgnoreErrors bool `yaml:"ignore_errors,omitempty"`
}

// FetchConfig configures the upstream HTTP client.
type FetchConfig struct {
	// Cache enables the in-process response cache. Defaults to on.
	Cache *bool `yaml:"cache,omitempty"`
	// CacheSize is the maximum number of cached responses.
	CacheSize int         `yaml:"cache_size,omitempty"`
	UserAgent string      `yaml:"user_agent,omitempty"`
	Retry     RetryConfig `yaml:"retry,omitempty"`
}

// RetryConfig configures backoff for transient upstream failures.
type RetryConfig struct {
	Backoff    string        `yaml:"backoff,omitempty"` // fixed|linear|exponential
	Initial    time.Duration `yaml:"initial,omitempty"`
	Max        time.Duration `yaml:"max,omitempty"`
	MaxRetries *int          `yaml:"max_retries,omitempty"`
}

// StateConfig locates the persistent scrape state.
type StateConfig struct {
	Path string `yaml:"path,omitempty"`
}

// DaemonConfig configures continuous mode.
type DaemonConfig struct {
	Listen string     `yaml:"listen,omitempty"`
	NATS   NATSConfig `yaml:"nats,omitempty"`
}

// NATSConfig configures optional scrape-completed event publishing.
// Publishing is disabled when URL is empty.
type NATSConfig struct {
	URL     string `yaml:"url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// Defaults applied during Load for fields the file leaves unset.
const (
	DefaultInterval    = 10 * time.Minute
	DefaultTimeout     = 60 * time.Second
	DefaultConcurrency = 8
	DefaultCacheSize   = 4096
	DefaultListen      = "127.0.0.1:3000"
	DefaultStatePath   = "data/hyperschedule.db"
	DefaultUserAgent   = "hyperschedule-scraper"
	DefaultNATSSubject = "hyperschedule.scrape.completed"
)

// Load reads, expands and validates the configuration file. A .env file in
// the working directory is loaded first (existing environment wins), then
// ${VAR} references inside the YAML are expanded, then HYPERSCHEDULE_*
// environment overrides are applied on top.
func Load(path string) (*Config, error) {
	// Missing .env is the normal case.
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	for i := range c.Schools {
		s := &c.Schools[i]
		if s.Scraper == "" {
			s.Scraper = s.Slug
		}
		if s.Interval <= 0 {
			s.Interval = DefaultInterval
		}
		if s.Timeout <= 0 {
			s.Timeout = DefaultTimeout
		}
		if s.Concurrency <= 0 {
			s.Concurrency = DefaultConcurrency
		}
	}
	if c.Fetch.CacheSize <= 0 {
		c.Fetch.CacheSize = DefaultCacheSize
	}
	if c.Fetch.UserAgent == "" {
		c.Fetch.UserAgent = DefaultUserAgent
	}
	if c.State.Path == "" {
		c.State.Path = DefaultStatePath
	}
	if c.Daemon.Listen == "" {
		c.Daemon.Listen = DefaultListen
	}
	if c.Daemon.NATS.URL != "" && c.Daemon.NATS.Subject == "" {
		c.Daemon.NATS.Subject = DefaultNATSSubject
	}
}

// CacheEnabled resolves the tri-state cache flag.
func (f FetchConfig) CacheEnabled() bool {
	if f.Cache == nil {
		return true
	}
	return *f.Cache
}

// Validate checks cross-field invariants after defaults are applied.
func (c *Config) Validate() error {
	if len(c.Schools) == 0 {
		return fmt.Errorf("config defines no schools")
	}
	seen := make(map[string]bool, len(c.Schools))
	for _, s := range c.Schools {
		if s.Slug == "" {
			return fmt.Errorf("school with empty slug")
		}
		if seen[s.Slug] {
			return fmt.Errorf("duplicate school slug %q", s.Slug)
		}
		seen[s.Slug] = true
	}
	switch c.Fetch.Retry.Backoff {
	case "", "fixed", "linear", "exponential":
	default:
		return fmt.Errorf("unknown retry backoff mode %q", c.Fetch.Retry.Backoff)
	}
	return nil
}

// SchoolBySlug returns the school entry with the given slug.
func (c *Config) SchoolBySlug(slug string) (*School, bool) {
	for i := range c.Schools {
		if c.Schools[i].Slug == slug {
			return &c.Schools[i], true
		}
	}
	return nil, false
}
