package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/hyperschedule/scrapers/internal/course"
	"github.com/hyperschedule/scrapers/internal/metrics"
	"github.com/hyperschedule/scrapers/internal/state"
)

// DefaultDeadlineSlack is how long before the pass deadline the runner
// stops starting new fetches, leaving time to persist what it has.
const DefaultDeadlineSlack = 15 * time.Second

// Runner drives scrape passes for one school.
type Runner struct {
	School       string
	Source       Source
	Store        *state.Store
	Concurrency  int
	IgnoreErrors bool
	// Shuffle randomizes fetch order instead of sorting by course code.
	Shuffle bool
	// DeadlineSlack overrides DefaultDeadlineSlack when positive.
	DeadlineSlack time.Duration
	Metrics       metrics.Recorder
}

// PassStats summarizes one scrape pass.
type PassStats struct {
	School    string        `json:"school"`
	Term      string        `json:"term"`
	Known     int           `json:"known"`
	Completed int           `json:"completed"`
	Fetched   int           `json:"fetched"`
	Failed    int           `json:"failed"`
	NewPass   bool          `json:"newPass"`
	Duration  time.Duration `json:"duration"`
}

// RunOnce performs one scrape pass: discover, prune stale courses, fetch
// details for the remaining keys until done or out of time, and persist
// progress. Passes are resumable; once every known key is completed the
// next pass starts over.
func (r *Runner) RunOnce(ctx context.Context) (*PassStats, error) {
	rec := r.Metrics
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	start := time.Now()
	stats, err := r.runOnce(ctx, rec)
	elapsed := time.Since(start)
	rec.ObserveScrapeDuration(r.School, elapsed)
	if err != nil {
		outcome := metrics.ResultError
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			outcome = metrics.ResultCanceled
		}
		rec.IncScrapeOutcome(r.School, outcome)
		return nil, err
	}
	stats.Duration = elapsed
	rec.IncScrapeOutcome(r.School, metrics.ResultSuccess)
	rec.SetCoursesKnown(r.School, stats.Known)
	rec.SetCoursesCompleted(r.School, stats.Completed)
	return stats, nil
}

func (r *Runner) runOnce(ctx context.Context, rec metrics.Recorder) (*PassStats, error) {
	term, available, err := r.Source.Discover(ctx)
	if err != nil {
		return nil, fmt.Errorf("discover %s: %w", r.School, err)
	}
	if term == nil {
		return nil, fmt.Errorf("discover %s: no current term", r.School)
	}
	slog.Info("discovered term", "school", r.School, "term", term.Code, "courses", len(available))

	// The result accumulates this pass in memory; it validates the term
	// and every course before anything is persisted.
	res := course.NewResult()
	if err := res.SetTerm(term); err != nil {
		return nil, fmt.Errorf("discover %s: %w", r.School, err)
	}

	if err := r.Store.SetTerm(ctx, r.School, term); err != nil {
		return nil, err
	}
	// Courses no longer listed by the school drop out of the snapshot.
	if err := r.Store.PruneCourses(ctx, r.School, available); err != nil {
		return nil, err
	}

	completed, err := r.Store.Completed(ctx, r.School)
	if err != nil {
		return nil, err
	}
	stats := &PassStats{School: r.School, Term: term.Code, Known: len(available)}

	remaining := make([]string, 0, len(available))
	for key := range available {
		if !completed[key] {
			remaining = append(remaining, key)
		}
	}
	if len(remaining) == 0 && len(available) > 0 {
		// Previous pass covered everything: start over so data stays fresh.
		if err := r.Store.ResetCompleted(ctx, r.School); err != nil {
			return nil, err
		}
		completed = make(map[string]bool)
		remaining = remaining[:0]
		for key := range available {
			remaining = append(remaining, key)
		}
		stats.NewPass = true
		slog.Info("starting new refine pass", "school", r.School)
	}
	r.orderKeys(remaining, available)

	fetched, failed, err := r.fetchAll(ctx, rec, res, remaining, available)
	stats.Fetched = fetched
	stats.Failed = failed
	if err != nil {
		return nil, err
	}

	completedNow, err := r.Store.Completed(ctx, r.School)
	if err != nil {
		return nil, err
	}
	stats.Completed = len(completedNow)
	slog.Info("scrape pass finished",
		"school", r.School,
		"term", term.Code,
		"known", stats.Known,
		"fetched", stats.Fetched,
		"failed", stats.Failed,
		"completed", stats.Completed)
	return stats, nil
}

func (r *Runner) orderKeys(keys []string, hints map[string]string) {
	if r.Shuffle {
		rand.Shuffle(len(keys), func(i, j int) { keys[i], keys[j] = keys[j], keys[i] })
		return
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if hints[a] != hints[b] {
			return hints[a] < hints[b]
		}
		return a < b
	})
}

// fetchAll fetches course details with bounded concurrency. It stops
// starting new fetches once the pass deadline (minus slack) is near, and
// aborts on the first error unless IgnoreErrors is set.
func (r *Runner) fetchAll(ctx context.Context, rec metrics.Recorder, res *course.Result, keys []string, hints map[string]string) (fetched, failed int, err error) {
	concurrency := r.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	slack := r.DeadlineSlack
	if slack <= 0 {
		slack = DefaultDeadlineSlack
	}
	var stopAt time.Time
	if deadline, ok := ctx.Deadline(); ok {
		stopAt = deadline.Add(-slack)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu       sync.Mutex
		firstErr error
	)
	// Result is not safe for concurrent use; the workers share it through
	// add.
	add := func(key string, c *course.Course) error {
		mu.Lock()
		defer mu.Unlock()
		return res.AddCourse(key, c)
	}
	work := make(chan string)
	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for key := range work {
				if fetchErr := r.fetchOne(ctx, rec, add, res.Term.Code, key, hints[key]); fetchErr != nil {
					mu.Lock()
					failed++
					if firstErr == nil {
						firstErr = fetchErr
					}
					mu.Unlock()
					if ctx.Err() != nil {
						return
					}
					slog.Error("course fetch failed", "school", r.School, "key", key, "error", fetchErr)
					if !r.IgnoreErrors {
						cancel()
						return
					}
					continue
				}
				mu.Lock()
				fetched++
				mu.Unlock()
			}
		}()
	}

feed:
	for _, key := range keys {
		if !stopAt.IsZero() && !time.Now().Before(stopAt) {
			slog.Info("pass deadline near, stopping new fetches", "school", r.School)
			break
		}
		select {
		case work <- key:
		case <-ctx.Done():
			break feed
		}
	}
	close(work)
	wg.Wait()

	if ctx.Err() != nil && !r.IgnoreErrors && firstErr != nil {
		return fetched, failed, firstErr
	}
	if !r.IgnoreErrors && firstErr != nil {
		return fetched, failed, firstErr
	}
	return fetched, failed, nil
}

func (r *Runner) fetchOne(ctx context.Context, rec metrics.Recorder, add func(string, *course.Course) error, termCode, key, hint string) error {
	slog.Debug("fetching course", "school", r.School, "key", key, "hint", hint)
	c, err := r.Source.Fetch(ctx, key, hint)
	if err != nil {
		rec.IncCourseFetch(r.School, metrics.ResultError)
		return err
	}
	if c != nil && c.TermCode == "" {
		c.TermCode = termCode
	}
	if err := add(key, c); err != nil {
		rec.IncCourseFetch(r.School, metrics.ResultError)
		return err
	}
	payload, err := json.Marshal(c)
	if err != nil {
		rec.IncCourseFetch(r.School, metrics.ResultError)
		return fmt.Errorf("encode course %s: %w", key, err)
	}
	if err := r.Store.PutCourse(ctx, r.School, key, payload); err != nil {
		rec.IncCourseFetch(r.School, metrics.ResultError)
		return err
	}
	if err := r.Store.MarkCompleted(ctx, r.School, key); err != nil {
		rec.IncCourseFetch(r.School, metrics.ResultError)
		return err
	}
	rec.IncCourseFetch(r.School, metrics.ResultSuccess)
	return nil
}
