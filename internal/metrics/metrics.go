// Package metrics exposes run outcomes as Prometheus collectors.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the job collectors on a private registry
type Metrics struct {
	registry    *prometheus.Registry
	runs        *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	feedItems   prometheus.Gauge
	lastSuccess prometheus.Gauge
}

// New creates and registers the collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "arkfeed",
				Name:      "runs_total",
				Help:      "Job runs by final status",
			},
			[]string{"status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "arkfeed",
				Name:      "run_duration_seconds",
				Help:      "Wall time of job runs",
				Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
			},
			[]string{"status"},
		),
		feedItems: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "arkfeed",
			Name:      "feed_items",
			Help:      "Items in the last generated feed",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "arkfeed",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last run that committed or found nothing to commit",
		}),
	}

	m.registry.MustRegister(
		m.runs,
		m.duration,
		m.feedItems,
		m.lastSuccess,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveRun records one finished run
func (m *Metrics) ObserveRun(status string, duration time.Duration, endedAt time.Time) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(status).Inc()
	m.duration.WithLabelValues(status).Observe(duration.Seconds())
	if status == "committed" || status == "unchanged" {
		m.lastSuccess.Set(float64(endedAt.Unix()))
	}
}

// SetFeedItems records the size of the generated feed
func (m *Metrics) SetFeedItems(n int) {
	if m == nil {
		return
	}
	m.feedItems.Set(float64(n))
}

// Registry returns the private registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
