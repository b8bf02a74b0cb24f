// Package metrics exposes Prometheus counters, gauges, and histograms
// for the harvest/render/diff/upload pipeline and the tick loop that
// drives it.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Tick-level metrics
	TickDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "articlesync_tick_duration_seconds",
			Help:    "Time taken to complete one sync tick",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
	)

	TicksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "articlesync_ticks_total",
			Help: "Total number of sync ticks by outcome",
		},
		[]string{"outcome"}, // success | error
	)

	// Harvest metrics
	HarvestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "articlesync_harvest_duration_seconds",
			Help:    "Time taken to harvest the full remote article set",
			Buckets: prometheus.DefBuckets,
		},
	)

	ArticlesHarvestedTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "articlesync_articles_harvested",
			Help: "Number of articles seen in the most recent harvest",
		},
	)

	// Diff metrics
	DiffDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "articlesync_diff_duration_seconds",
			Help:    "Time taken to diff the harvested set against the lock",
			Buckets: prometheus.DefBuckets,
		},
	)

	ArticlesByOutcome = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "articlesync_articles_by_outcome",
			Help: "Article count in the most recent diff by outcome",
		},
		[]string{"outcome"}, // new | updated | deleted | unchanged | failed
	)

	// Upload metrics
	UploadDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "articlesync_upload_duration_seconds",
			Help:    "Time taken for one upload batch",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"batch"}, // create | replace | delete
	)

	UploadFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "articlesync_upload_failures_total",
			Help: "Total number of per-article upload failures across all ticks",
		},
	)
)

func init() {
	prometheus.MustRegister(
		TickDuration,
		TicksTotal,
		HarvestDuration,
		ArticlesHarvestedTotal,
		DiffDuration,
		ArticlesByOutcome,
		UploadDuration,
		UploadFailuresTotal,
	)
}

// Handler returns the Prometheus scrape endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer measures an operation's wall-clock duration.
type Timer struct {
	start time.Time
}

// NewTimer starts a timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the elapsed time to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// ObserveDurationVec records the elapsed time to a labeled histogram.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
