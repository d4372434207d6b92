// Package metrics exposes Prometheus counters for store changes and commits.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MrSnakeDoc/itour/internal/domain"
)

const namespace = "itour"

type Metrics struct {
	registry       *prometheus.Registry
	changes        *prometheus.CounterVec
	commits        *prometheus.CounterVec
	commitDuration *prometheus.HistogramVec
}

// New builds a Metrics on its own registry, with Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		changes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_changes_total",
			Help:      "Store changes by entity and action.",
		}, []string{"entity", "action"}),
		commits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_commits_total",
			Help:      "Commit attempts by trigger and result.",
		}, []string{"trigger", "result"}),
		commitDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_commit_duration_seconds",
			Help:      "Time spent writing snapshots to the backend.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"trigger"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.changes,
		m.commits,
		m.commitDuration,
	)
	return m
}

// ObserveChange counts one store change.
func (m *Metrics) ObserveChange(c domain.Change) {
	if m == nil {
		return
	}
	m.changes.WithLabelValues(string(c.Entity), string(c.Action)).Inc()
}

// ObserveCommit records a commit attempt.
func (m *Metrics) ObserveCommit(trigger string, took time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.commits.WithLabelValues(trigger, result).Inc()
	m.commitDuration.WithLabelValues(trigger).Observe(took.Seconds())
}

// TrackDestinations exports the current destination count.
func (m *Metrics) TrackDestinations(count func() int) {
	if m == nil {
		return
	}
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "destinations",
		Help:      "Destinations currently held by the store.",
	}, func() float64 { return float64(count()) }))
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
