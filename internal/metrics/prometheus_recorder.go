package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once             sync.Once
	scrapeDuration   *prom.HistogramVec
	scrapeOutcomes   *prom.CounterVec
	fetchDuration    prom.Histogram
	fetchResults     *prom.CounterVec
	fetchCacheHits   prom.Counter
	fetchRetries     prom.Counter
	courseFetches    *prom.CounterVec
	coursesKnown     *prom.GaugeVec
	coursesCompleted *prom.GaugeVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics on reg
// (a fresh registry is used when reg is nil).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.scrapeDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "hyperschedule",
			Name:      "scrape_duration_seconds",
			Help:      "Duration of full scrape passes per school",
			Buckets:   prom.DefBuckets,
		}, []string{"school"})
		pr.scrapeOutcomes = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "hyperschedule",
			Name:      "scrape_outcomes_total",
			Help:      "Scrape pass outcomes per school",
		}, []string{"school", "result"})
		pr.fetchDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "hyperschedule",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of individual upstream HTTP requests",
			Buckets:   prom.DefBuckets,
		})
		pr.fetchResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "hyperschedule",
			Name:      "fetch_results_total",
			Help:      "Upstream HTTP request results",
		}, []string{"result"})
		pr.fetchCacheHits = prom.NewCounter(prom.CounterOpts{
			Namespace: "hyperschedule",
			Name:      "fetch_cache_hits_total",
			Help:      "Upstream responses served from the in-process cache",
		})
		pr.fetchRetries = prom.NewCounter(prom.CounterOpts{
			Namespace: "hyperschedule",
			Name:      "fetch_retries_total",
			Help:      "Upstream HTTP request retries (transient failures)",
		})
		pr.courseFetches = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "hyperschedule",
			Name:      "course_fetches_total",
			Help:      "Per-course detail fetch results per school",
		}, []string{"school", "result"})
		pr.coursesKnown = prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: "hyperschedule",
			Name:      "courses_known",
			Help:      "Courses currently listed by the school",
		}, []string{"school"})
		pr.coursesCompleted = prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: "hyperschedule",
			Name:      "courses_completed",
			Help:      "Courses with full details in the current refine pass",
		}, []string{"school"})
		reg.MustRegister(pr.scrapeDuration, pr.scrapeOutcomes, pr.fetchDuration,
			pr.fetchResults, pr.fetchCacheHits, pr.fetchRetries,
			pr.courseFetches, pr.coursesKnown, pr.coursesCompleted)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveScrapeDuration(school string, d time.Duration) {
	if p == nil || p.scrapeDuration == nil {
		return
	}
	p.scrapeDuration.WithLabelValues(school).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncScrapeOutcome(school string, result ResultLabel) {
	if p == nil || p.scrapeOutcomes == nil {
		return
	}
	p.scrapeOutcomes.WithLabelValues(school, string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveFetchDuration(d time.Duration) {
	if p == nil || p.fetchDuration == nil {
		return
	}
	p.fetchDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncFetchResult(result ResultLabel) {
	if p == nil || p.fetchResults == nil {
		return
	}
	p.fetchResults.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) IncFetchCacheHit() {
	if p == nil || p.fetchCacheHits == nil {
		return
	}
	p.fetchCacheHits.Inc()
}

func (p *PrometheusRecorder) IncFetchRetry() {
	if p == nil || p.fetchRetries == nil {
		return
	}
	p.fetchRetries.Inc()
}

func (p *PrometheusRecorder) IncCourseFetch(school string, result ResultLabel) {
	if p == nil || p.courseFetches == nil {
		return
	}
	p.courseFetches.WithLabelValues(school, string(result)).Inc()
}

func (p *PrometheusRecorder) SetCoursesKnown(school string, n int) {
	if p == nil || p.coursesKnown == nil {
		return
	}
	p.coursesKnown.WithLabelValues(school).Set(float64(n))
}

func (p *PrometheusRecorder) SetCoursesCompleted(school string, n int) {
	if p == nil || p.coursesCompleted == nil {
		return
	}
	p.coursesCompleted.WithLabelValues(school).Set(float64(n))
}
