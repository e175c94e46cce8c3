// Package metrics defines the observability hooks recorded during scrape
// runs. The Recorder interface decouples instrumented code from the
// Prometheus wiring in the daemon.
package metrics

import "time"

// ResultLabel enumerates result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultError    ResultLabel = "error"
	ResultCanceled ResultLabel = "canceled"
	ResultSkipped  ResultLabel = "skipped"
)

// Recorder defines observability hooks for scrape and fetch metrics.
// Implementations must tolerate concurrent use.
type Recorder interface {
	ObserveScrapeDuration(school string, d time.Duration)
	IncScrapeOutcome(school string, result ResultLabel)
	ObserveFetchDuration(d time.Duration)
	IncFetchResult(result ResultLabel)
	IncFetchCacheHit()
	IncFetchRetry()
	IncCourseFetch(school string, result ResultLabel)
	SetCoursesKnown(school string, n int)
	SetCoursesCompleted(school string, n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are
// not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveScrapeDuration(string, time.Duration) {}
func (NoopRecorder) IncScrapeOutcome(string, ResultLabel)        {}
func (NoopRecorder) ObserveFetchDuration(time.Duration)          {}
func (NoopRecorder) IncFetchResult(ResultLabel)                  {}
func (NoopRecorder) IncFetchCacheHit()                           {}
func (NoopRecorder) IncFetchRetry()                              {}
func (NoopRecorder) IncCourseFetch(string, ResultLabel)          {}
func (NoopRecorder) SetCoursesKnown(string, int)                 {}
func (NoopRecorder) SetCoursesCompleted(string, int)             {}
