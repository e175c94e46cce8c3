// Package daemon runs the scraper platform continuously: scheduled scrape
// passes per school, an HTTP surface for snapshots, health and metrics,
// optional scrape-completed events over NATS, and config reload on file
// change.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	prom "github.com/prometheus/client_golang/prometheus"
	promcollect "github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hyperschedule/scrapers/internal/config"
	"github.com/hyperschedule/scrapers/internal/fetch"
	"github.com/hyperschedule/scrapers/internal/metrics"
	"github.com/hyperschedule/scrapers/internal/scraper"
	"github.com/hyperschedule/scrapers/internal/state"
)

// Daemon owns the long-running pieces and their shutdown order.
type Daemon struct {
	cfg        *config.Config
	configPath string
	store      *state.Store
	registry   *prom.Registry
	recorder   *metrics.PrometheusRecorder
	publisher  *Publisher
	scheduler  *Scheduler
	http       *HTTPServer
	watcher    *ConfigWatcher
	workers    WorkerGroup

	mu        sync.Mutex
	runners   map[string]*scraper.Runner
	inFlight  map[string]bool
	lastStats map[string]*scraper.PassStats
	startTime time.Time
}

// New assembles a daemon from configuration. configPath enables config
// file watching; pass "" to disable it.
func New(cfg *config.Config, configPath string) (*Daemon, error) {
	store, err := state.Open(cfg.State.Path)
	if err != nil {
		return nil, err
	}

	registry := prom.NewRegistry()
	registry.MustRegister(promcollect.NewGoCollector(),
		promcollect.NewProcessCollector(promcollect.ProcessCollectorOpts{}))
	recorder := metrics.NewPrometheusRecorder(registry)

	d := &Daemon{
		cfg:        cfg,
		configPath: configPath,
		store:      store,
		registry:   registry,
		recorder:   recorder,
		runners:    make(map[string]*scraper.Runner),
		inFlight:   make(map[string]bool),
		lastStats:  make(map[string]*scraper.PassStats),
		startTime:  time.Now(),
	}
	if err := d.buildRunners(cfg); err != nil {
		_ = store.Close()
		return nil, err
	}

	d.publisher, err = NewPublisher(cfg.Daemon.NATS)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	d.scheduler, err = NewScheduler()
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	d.http = NewHTTPServer(cfg.Daemon.Listen, d)
	return d, nil
}

// buildRunners (re)creates one runner per configured school.
func (d *Daemon) buildRunners(cfg *config.Config) error {
	client, err := fetch.New(cfg.Fetch, d.recorder)
	if err != nil {
		return err
	}
	runners := make(map[string]*scraper.Runner, len(cfg.Schools))
	for _, school := range cfg.Schools {
		src, err := scraper.New(school.Scraper, client, school.Options)
		if err != nil {
			return fmt.Errorf("school %s: %w", school.Slug, err)
		}
		runners[school.Slug] = &scraper.Runner{
			School:       school.Slug,
			Source:       src,
			Store:        d.store,
			Concurrency:  school.Concurrency,
			IgnoreErrors: school.IgnoreErrors,
			Metrics:      d.recorder,
		}
	}
	d.mu.Lock()
	d.cfg = cfg
	d.runners = runners
	d.mu.Unlock()
	return nil
}

// Run starts everything and blocks until ctx is canceled, then shuts
// down.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.http.Start(); err != nil {
		return err
	}
	if err := d.scheduleAll(); err != nil {
		return err
	}
	d.scheduler.Start()

	if d.configPath != "" {
		watcher, err := NewConfigWatcher(d.configPath, d)
		if err != nil {
			slog.Warn("config watching disabled", "error", err)
		} else {
			d.watcher = watcher
			d.watcher.Start(ctx)
		}
	}

	slog.Info("daemon started",
		"listen", d.cfg.Daemon.Listen,
		"schools", len(d.runners),
		"events", d.publisher.Enabled())

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return d.Stop(stopCtx)
}

func (d *Daemon) scheduleAll() error {
	d.mu.Lock()
	schools := make([]config.School, len(d.cfg.Schools))
	copy(schools, d.cfg.Schools)
	d.mu.Unlock()

	for _, school := range schools {
		slug := school.Slug
		timeout := school.Timeout
		if err := d.scheduler.ScheduleSchool(slug, school.Interval, func() {
			d.runSchool(slug, timeout)
		}); err != nil {
			return err
		}
	}
	return nil
}

// runSchool executes one scrape pass, single-flight per school.
func (d *Daemon) runSchool(slug string, timeout time.Duration) {
	d.mu.Lock()
	runner, ok := d.runners[slug]
	if !ok || d.inFlight[slug] {
		if d.inFlight[slug] {
			d.recorder.IncScrapeOutcome(slug, metrics.ResultSkipped)
			slog.Warn("scrape pass still running, skipping", "school", slug)
		}
		d.mu.Unlock()
		return
	}
	d.inFlight[slug] = true
	d.mu.Unlock()
	release := func() {
		d.mu.Lock()
		d.inFlight[slug] = false
		d.mu.Unlock()
	}

	started := d.workers.Go(func() {
		defer release()
		runID := uuid.NewString()
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		slog.Info("scrape pass starting", "school", slug, "run_id", runID)
		stats, err := runner.RunOnce(ctx)
		if err != nil {
			slog.Error("scrape pass failed", "school", slug, "run_id", runID, "error", err)
			return
		}
		d.mu.Lock()
		d.lastStats[slug] = stats
		d.mu.Unlock()

		if err := d.publisher.PublishScrapeCompleted(runID, stats); err != nil {
			slog.Warn("event publish failed", "school", slug, "run_id", runID, "error", err)
		}
	})
	if !started {
		release()
	}
}

// Reload swaps in a freshly loaded configuration. Schedules are rebuilt;
// the HTTP listen address and state path stay as started.
func (d *Daemon) Reload() error {
	cfg, err := config.Load(d.configPath)
	if err != nil {
		return fmt.Errorf("reload config: %w", err)
	}
	if err := d.buildRunners(cfg); err != nil {
		return err
	}
	if err := d.scheduler.Clear(); err != nil {
		return err
	}
	if err := d.scheduleAll(); err != nil {
		return err
	}
	slog.Info("configuration reloaded", "schools", len(cfg.Schools))
	return nil
}

// Stop shuts down in dependency order: no new passes, wait for running
// ones, then the outward surfaces, then state.
func (d *Daemon) Stop(ctx context.Context) error {
	slog.Info("daemon stopping")
	if d.watcher != nil {
		d.watcher.Stop()
	}
	if err := d.scheduler.Stop(); err != nil {
		slog.Warn("scheduler shutdown", "error", err)
	}
	if err := d.workers.StopAndWait(ctx); err != nil {
		slog.Warn("worker shutdown", "error", err)
	}
	if err := d.http.Stop(ctx); err != nil {
		slog.Warn("http shutdown", "error", err)
	}
	d.publisher.Close()
	return d.store.Close()
}

// Status is the health endpoint payload.
type Status struct {
	Status    string                        `json:"status"`
	Uptime    string                        `json:"uptime"`
	Schools   []string                      `json:"schools"`
	LastRuns  map[string]*scraper.PassStats `json:"lastRuns"`
	Timestamp time.Time                     `json:"timestamp"`
}

// GetStatus snapshots daemon health for the HTTP surface.
func (d *Daemon) GetStatus() Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	schools := make([]string, 0, len(d.runners))
	for slug := range d.runners {
		schools = append(schools, slug)
	}
	last := make(map[string]*scraper.PassStats, len(d.lastStats))
	for slug, stats := range d.lastStats {
		last[slug] = stats
	}
	return Status{
		Status:    "ok",
		Uptime:    time.Since(d.startTime).Round(time.Second).String(),
		Schools:   schools,
		LastRuns:  last,
		Timestamp: time.Now(),
	}
}

// Store exposes the state store to the HTTP handlers.
func (d *Daemon) Store() *state.Store { return d.store }

// Registry exposes the Prometheus registry to the HTTP handlers.
func (d *Daemon) Registry() *prom.Registry { return d.registry }

// HasSchool reports whether slug is configured.
func (d *Daemon) HasSchool(slug string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.runners[slug]
	return ok
}
