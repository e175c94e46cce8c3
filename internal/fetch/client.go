// Package fetch wraps the upstream HTTP traffic all scrapers share:
// context-aware requests, retry with backoff on transient failures and an
// optional in-process response cache for development runs.
package fetch

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/hyperschedule/scrapers/internal/config"
	"github.com/hyperschedule/scrapers/internal/metrics"
	"github.com/hyperschedule/scrapers/internal/retry"
)

// Client fetches upstream course data. Safe for concurrent use.
type Client struct {
	http      *http.Client
	policy    retry.Policy
	cache     *lru.Cache[string, []byte]
	rec       metrics.Recorder
	userAgent string
}

// New builds a client from fetch configuration. rec may be nil.
func New(cfg config.FetchConfig, rec metrics.Recorder) (*Client, error) {
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	maxRetries := -1
	if cfg.Retry.MaxRetries != nil {
		maxRetries = *cfg.Retry.MaxRetries
	}
	c := &Client{
		http:      &http.Client{Timeout: 30 * time.Second},
		policy:    retry.NewPolicy(retry.BackoffMode(cfg.Retry.Backoff), cfg.Retry.Initial, cfg.Retry.Max, maxRetries),
		rec:       rec,
		userAgent: cfg.UserAgent,
	}
	if cfg.CacheEnabled() {
		cache, err := lru.New[string, []byte](cfg.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("create response cache: %w", err)
		}
		c.cache = cache
	}
	return c, nil
}

// GetText fetches url and returns the response body as a string.
func (c *Client) GetText(ctx context.Context, url string) (string, error) {
	body, err := c.do(ctx, http.MethodGet, url, nil, "")
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// PostJSON posts body as JSON to url and decodes the JSON response into
// out.
func (c *Client) PostJSON(ctx context.Context, url string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request body: %w", err)
	}
	resp, err := c.do(ctx, http.MethodPost, url, payload, "application/json")
	if err != nil {
		return err
	}
	if err := json.Unmarshal(resp, out); err != nil {
		return fmt.Errorf("decode response from %s: %w", url, err)
	}
	return nil
}

// do runs one request through the cache and retry policy. POST requests
// participate in the cache too: scraper traffic is read-only searches, and
// caching them is what makes repeated development runs fast.
func (c *Client) do(ctx context.Context, method, url string, payload []byte, contentType string) ([]byte, error) {
	key := cacheKey(method, url, payload)
	if c.cache != nil {
		if body, ok := c.cache.Get(key); ok {
			c.rec.IncFetchCacheHit()
			return body, nil
		}
	}

	var lastErr error
	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			c.rec.IncFetchRetry()
			delay := c.policy.Delay(attempt)
			slog.Debug("retrying upstream request", "url", url, "attempt", attempt, "delay", delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				c.rec.IncFetchResult(metrics.ResultCanceled)
				return nil, ctx.Err()
			}
		}

		body, transient, err := c.once(ctx, method, url, payload, contentType)
		if err == nil {
			c.rec.IncFetchResult(metrics.ResultSuccess)
			if c.cache != nil {
				c.cache.Add(key, body)
			}
			return body, nil
		}
		lastErr = err
		if !transient || attempt >= c.policy.MaxRetries {
			c.rec.IncFetchResult(metrics.ResultError)
			return nil, lastErr
		}
	}
}

// once performs a single HTTP exchange. The second return value reports
// whether the failure is worth retrying.
func (c *Client) once(ctx context.Context, method, url string, payload []byte, contentType string) ([]byte, bool, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, false, fmt.Errorf("build request for %s: %w", url, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	c.rec.ObserveFetchDuration(time.Since(start))
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, true, fmt.Errorf("%s %s: %w", method, url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("read response from %s: %w", url, err)
	}
	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return nil, true, fmt.Errorf("%s %s: upstream status %s", method, url, resp.Status)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, false, fmt.Errorf("%s %s: upstream status %s", method, url, resp.Status)
	}
	return body, false, nil
}

func cacheKey(method, url string, payload []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte{0})
	h.Write([]byte(url))
	h.Write([]byte{0})
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}
