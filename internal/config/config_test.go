package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const minimalConfig = `
schools:
  - slug: cuboulder
`

// TestLoadDefaults verifies every unset field gets its documented default.
func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	s := cfg.Schools[0]
	if s.Scraper != "cuboulder" {
		t.Fatalf("scraper should default to slug, got %q", s.Scraper)
	}
	if s.Interval != DefaultInterval || s.Timeout != DefaultTimeout || s.Concurrency != DefaultConcurrency {
		t.Fatalf("unexpected school defaults: %+v", s)
	}
	if !cfg.Fetch.CacheEnabled() {
		t.Fatalf("cache should default to enabled")
	}
	if cfg.Fetch.CacheSize != DefaultCacheSize {
		t.Fatalf("cache size default: got %d", cfg.Fetch.CacheSize)
	}
	if cfg.State.Path != DefaultStatePath {
		t.Fatalf("state path default: got %q", cfg.State.Path)
	}
	if cfg.Daemon.Listen != DefaultListen {
		t.Fatalf("listen default: got %q", cfg.Daemon.Listen)
	}
	if cfg.Daemon.NATS.Subject != "" {
		t.Fatalf("nats subject should stay empty without a url, got %q", cfg.Daemon.NATS.Subject)
	}
}

func TestLoadExplicitValues(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
schools:
  - slug: cuboulder
    scraper: cuboulder
    interval: 5m
    timeout: 90s
    concurrency: 4
    ignore_errors: true
    options:
      base_url: https://example.edu
fetch:
  cache: false
  cache_size: 16
  retry:
    backoff: exponential
    initial: 500ms
    max: 10s
daemon:
  listen: 0.0.0.0:8080
  nats:
    url: nats://localhost:4222
verbose: true
`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	s := cfg.Schools[0]
	if s.Interval != 5*time.Minute || s.Timeout != 90*time.Second || s.Concurrency != 4 || !s.IgnoreErrors {
		t.Fatalf("unexpected school config: %+v", s)
	}
	if s.Options["base_url"] != "https://example.edu" {
		t.Fatalf("options not passed through: %+v", s.Options)
	}
	if cfg.Fetch.CacheEnabled() {
		t.Fatalf("cache: false should disable the cache")
	}
	if cfg.Fetch.Retry.Backoff != "exponential" || cfg.Fetch.Retry.Initial != 500*time.Millisecond {
		t.Fatalf("unexpected retry config: %+v", cfg.Fetch.Retry)
	}
	if cfg.Daemon.NATS.Subject != DefaultNATSSubject {
		t.Fatalf("nats subject should default when url set, got %q", cfg.Daemon.NATS.Subject)
	}
	if !cfg.Verbose {
		t.Fatalf("verbose: true not honored")
	}
}

func TestLoadVariableExpansion(t *testing.T) {
	t.Setenv("TEST_STATE_DIR", "/var/lib/hs")
	cfg, err := Load(writeConfig(t, `
schools:
  - slug: cuboulder
state:
  path: ${TEST_STATE_DIR}/state.db
`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.State.Path != "/var/lib/hs/state.db" {
		t.Fatalf("variable not expanded: %q", cfg.State.Path)
	}
}

func TestLoadValidation(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"no schools", "schools: []\n"},
		{"empty slug", "schools:\n  - scraper: cuboulder\n"},
		{"duplicate slug", "schools:\n  - slug: a\n  - slug: a\n"},
		{"bad backoff", minimalConfig + "fetch:\n  retry:\n    backoff: jitter\n"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, c.content)); err == nil {
				t.Fatalf("expected load error")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

// TestEnvOverrides layers HYPERSCHEDULE_* variables over the file.
func TestEnvOverrides(t *testing.T) {
	t.Setenv("HYPERSCHEDULE_CACHE", "off")
	t.Setenv("HYPERSCHEDULE_HOST", "0.0.0.0")
	t.Setenv("HYPERSCHEDULE_PORT", "9090")
	t.Setenv("HYPERSCHEDULE_SCRAPER_TIMEOUT", "120")
	t.Setenv("HYPERSCHEDULE_CONCURRENCY", "2")
	t.Setenv("HYPERSCHEDULE_STATE_PATH", "/tmp/hs.db")
	t.Setenv("HYPERSCHEDULE_NATS_URL", "nats://broker:4222")
	t.Setenv("HYPERSCHEDULE_VERBOSE", "yes")

	cfg, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Fetch.CacheEnabled() {
		t.Fatalf("CACHE=off should disable the cache")
	}
	if !cfg.Verbose {
		t.Fatalf("VERBOSE=yes should enable verbose logging")
	}
	if cfg.Daemon.Listen != "0.0.0.0:9090" {
		t.Fatalf("HOST/PORT override: got %q", cfg.Daemon.Listen)
	}
	if cfg.Schools[0].Timeout != 120*time.Second {
		t.Fatalf("SCRAPER_TIMEOUT override: got %v", cfg.Schools[0].Timeout)
	}
	if cfg.Schools[0].Concurrency != 2 {
		t.Fatalf("CONCURRENCY override: got %d", cfg.Schools[0].Concurrency)
	}
	if cfg.State.Path != "/tmp/hs.db" {
		t.Fatalf("STATE_PATH override: got %q", cfg.State.Path)
	}
	if cfg.Daemon.NATS.URL != "nats://broker:4222" || cfg.Daemon.NATS.Subject != DefaultNATSSubject {
		t.Fatalf("NATS_URL override: %+v", cfg.Daemon.NATS)
	}
}

func TestEnvOverridePortOnly(t *testing.T) {
	t.Setenv("HYPERSCHEDULE_PORT", "4000")
	cfg, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Daemon.Listen != "127.0.0.1:4000" {
		t.Fatalf("expected host kept from default, got %q", cfg.Daemon.Listen)
	}
}

func TestEnvOverrideMalformed(t *testing.T) {
	for name, val := range map[string]string{
		"HYPERSCHEDULE_CACHE":           "maybe",
		"HYPERSCHEDULE_VERBOSE":         "loud",
		"HYPERSCHEDULE_SCRAPER_TIMEOUT": "soon",
		"HYPERSCHEDULE_CONCURRENCY":     "-3",
	} {
		t.Run(name, func(t *testing.T) {
			t.Setenv(name, val)
			if _, err := Load(writeConfig(t, minimalConfig)); err == nil {
				t.Fatalf("expected error for %s=%s", name, val)
			}
		})
	}
}

// TestParseBool covers the lenient boolean grammar: 1/on and prefixes of
// yes/true/enabled are true, 0/off and prefixes of no/false/disabled are
// false.
func TestParseBool(t *testing.T) {
	truthy := []string{"1", "on", "ON", "y", "yes", "t", "true", "True", "e", "enabled"}
	for _, v := range truthy {
		b, err := parseBool("CACHE", v)
		if err != nil || !b {
			t.Fatalf("parseBool(%q) = %v, %v; want true", v, b, err)
		}
	}
	falsy := []string{"0", "off", "OFF", "n", "no", "f", "false", "False", "d", "disabled"}
	for _, v := range falsy {
		b, err := parseBool("CACHE", v)
		if err != nil || b {
			t.Fatalf("parseBool(%q) = %v, %v; want false", v, b, err)
		}
	}
	for _, v := range []string{"", "2", "yeah", "noped", "maybe"} {
		if _, err := parseBool("CACHE", v); err == nil {
			t.Fatalf("parseBool(%q) should fail", v)
		}
	}
}

func TestSchoolBySlug(t *testing.T) {
	cfg, err := Load(writeConfig(t, "schools:\n  - slug: a\n  - slug: b\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s, ok := cfg.SchoolBySlug("b"); !ok || s.Slug != "b" {
		t.Fatalf("SchoolBySlug(b) = %+v, %v", s, ok)
	}
	if _, ok := cfg.SchoolBySlug("c"); ok {
		t.Fatalf("SchoolBySlug(c) should miss")
	}
}
