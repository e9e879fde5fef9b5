// Package metrics exposes sync counters to Prometheus. A nil *Metrics is
// valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "catalogsync"

type Metrics struct {
	registry      *prometheus.Registry
	records       *prometheus.CounterVec
	runs          *prometheus.CounterVec
	imageFailures prometheus.Counter
	stageDuration *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_total",
			Help:      "Catalog records processed, by stage and action.",
		}, []string{"stage", "action"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Sync runs by final status.",
		}, []string{"status"}),
		imageFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "image_failures_total",
			Help:      "Product images dropped after exhausting retries.",
		}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Wall time of each sync stage.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		}, []string{"stage"}),
	}
	m.registry.MustRegister(
		m.records,
		m.runs,
		m.imageFailures,
		m.stageDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// RecordStats adds a stage's created/updated/skipped counts.
func (m *Metrics) RecordStats(stage string, created, updated, skipped int) {
	if m == nil {
		return
	}
	m.records.WithLabelValues(stage, "created").Add(float64(created))
	m.records.WithLabelValues(stage, "updated").Add(float64(updated))
	m.records.WithLabelValues(stage, "skipped").Add(float64(skipped))
}

func (m *Metrics) RunFinished(status string) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(status).Inc()
}

func (m *Metrics) ImageFailed() {
	if m == nil {
		return
	}
	m.imageFailures.Inc()
}

func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
