// Package metrics exposes Prometheus collectors for scrape and build runs.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics owns a dedicated registry so a run can be flushed to a textfile for
// the node-exporter textfile collector. All methods are safe on a nil receiver.
type Metrics struct {
	registry *prometheus.Registry

	scrapeResults  *prometheus.CounterVec
	rateLimitHits  prometheus.Counter
	sleepSeconds   prometheus.Histogram
	sessionsOpened prometheus.Counter
	buildEntries   *prometheus.CounterVec
	lastRun        *prometheus.GaugeVec
}

// New registers the bunprodict collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		scrapeResults: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bunprodict_scrape_results_total",
				Help: "Scrape loop results, labeled by action (scrape, error, break).",
			},
			[]string{"action"},
		),
		rateLimitHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "bunprodict_rate_limit_hits_total",
			Help: "The total number of times the scraper was rate limited.",
		}),
		sleepSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "bunprodict_sleep_seconds",
			Help:    "Histogram of planned pre-request delays.",
			Buckets: []float64{1, 2, 5, 10, 30, 60, 120, 300, 600},
		}),
		sessionsOpened: factory.NewCounter(prometheus.CounterOpts{
			Name: "bunprodict_sessions_opened_total",
			Help: "The total number of shared HTTP sessions opened.",
		}),
		buildEntries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bunprodict_build_entries_total",
				Help: "Build pipeline records, labeled by outcome (extracted, skipped, written).",
			},
			[]string{"outcome"},
		),
		lastRun: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "bunprodict_last_run_timestamp_seconds",
				Help: "Unix time of the last completed run, labeled by pipeline.",
			},
			[]string{"pipeline"},
		),
	}
}

// Registry exposes the underlying registry for gathering.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveScrape counts one loop result.
func (m *Metrics) ObserveScrape(action string) {
	if m == nil {
		return
	}
	m.scrapeResults.WithLabelValues(action).Inc()
}

// ObserveRateLimit counts a 429 response.
func (m *Metrics) ObserveRateLimit() {
	if m == nil {
		return
	}
	m.rateLimitHits.Inc()
}

// ObserveDelay records a pre-request delay.
func (m *Metrics) ObserveDelay(d time.Duration) {
	if m == nil {
		return
	}
	m.sleepSeconds.Observe(d.Seconds())
}

// ObserveSessionOpened counts a newly opened shared session.
func (m *Metrics) ObserveSessionOpened() {
	if m == nil {
		return
	}
	m.sessionsOpened.Inc()
}

// ObserveBuild adds n records for a build outcome.
func (m *Metrics) ObserveBuild(outcome string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.buildEntries.WithLabelValues(outcome).Add(float64(n))
}

// MarkRun stamps the completion time of a pipeline.
func (m *Metrics) MarkRun(pipeline string, at time.Time) {
	if m == nil {
		return
	}
	m.lastRun.WithLabelValues(pipeline).Set(float64(at.Unix()))
}

// WriteTextfile writes the registry in text exposition format to path.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile %s: %w", path, err)
	}
	return nil
}

// BuildEntries returns the build counter for outcome, for inspection in tests
// and reports. A nil Metrics yields a detached counter that stays at zero.
func (m *Metrics) BuildEntries(outcome string) prometheus.Counter {
	if m == nil {
		return detachedCounter()
	}
	return m.buildEntries.WithLabelValues(outcome)
}

// ScrapeResults returns the scrape counter for action.
func (m *Metrics) ScrapeResults(action string) prometheus.Counter {
	if m == nil {
		return detachedCounter()
	}
	return m.scrapeResults.WithLabelValues(action)
}

func detachedCounter() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "bunprodict",
		Name:      "detached_total",
		Help:      "Counter not registered anywhere; returned by a nil Metrics.",
	})
}
