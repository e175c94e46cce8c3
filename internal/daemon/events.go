package daemon

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/hyperschedule/scrapers/internal/config"
	"github.com/hyperschedule/scrapers/internal/scraper"
)

// Publisher emits scrape-completed events to NATS so downstream consumers
// (the API server, cache warmers) learn about fresh data without polling.
// A nil Publisher is valid and publishes nothing.
type Publisher struct {
	conn    *nats.Conn
	subject string
}

// ScrapeCompletedEvent is the published payload.
type ScrapeCompletedEvent struct {
	RunID     string             `json:"runId"`
	Stats     *scraper.PassStats `json:"stats"`
	Timestamp time.Time          `json:"timestamp"`
}

// NewPublisher connects to NATS when configured; with an empty URL it
// returns a disabled (nil) publisher.
func NewPublisher(cfg config.NATSConfig) (*Publisher, error) {
	if cfg.URL == "" {
		return nil, nil
	}
	conn, err := nats.Connect(cfg.URL,
		nats.Name("hyperschedule-scraper"),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	slog.Info("event publishing enabled", "url", cfg.URL, "subject", cfg.Subject)
	return &Publisher{conn: conn, subject: cfg.Subject}, nil
}

// Enabled reports whether events are being published.
func (p *Publisher) Enabled() bool {
	return p != nil && p.conn != nil
}

// PublishScrapeCompleted emits one event. No-op when disabled.
func (p *Publisher) PublishScrapeCompleted(runID string, stats *scraper.PassStats) error {
	if !p.Enabled() {
		return nil
	}
	payload, err := json.Marshal(ScrapeCompletedEvent{
		RunID:     runID,
		Stats:     stats,
		Timestamp: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := p.conn.Publish(p.subject, payload); err != nil {
		return fmt.Errorf("publish to %s: %w", p.subject, err)
	}
	return nil
}

// Close drains the connection. No-op when disabled.
func (p *Publisher) Close() {
	if p.Enabled() {
		if err := p.conn.Drain(); err != nil {
			slog.Debug("nats drain", "error", err)
		}
	}
}
