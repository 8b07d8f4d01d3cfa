// Package metrics exposes Prometheus instrumentation for the refresh
// runner and the snapshot it maintains.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the server's Prometheus collectors.
type Metrics struct {
	jobRuns     *prometheus.CounterVec
	jobDuration prometheus.Histogram
	jobSkipped  prometheus.Counter
	snapshotAge prometheus.Gauge
	districts   prometheus.Gauge
}

// New registers all collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		jobRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "weatherjob_runs_total",
			Help: "Fetch job runs by trigger and outcome.",
		}, []string{"trigger", "outcome"}),
		jobDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "weatherjob_duration_seconds",
			Help:    "Wall-clock duration of fetch job runs.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
		jobSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "weatherjob_skipped_total",
			Help: "Refresh triggers skipped because a run was already in flight.",
		}),
		snapshotAge: factory.NewGauge(prometheus.GaugeOpts{
			Name: "snapshot_age_seconds",
			Help: "Age of the current snapshot.",
		}),
		districts: factory.NewGauge(prometheus.GaugeOpts{
			Name: "snapshot_districts",
			Help: "Districts present in the current snapshot.",
		}),
	}
}

// JobFinished records one completed fetch job run.
func (m *Metrics) JobFinished(trigger string, d time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.jobRuns.WithLabelValues(trigger, outcome).Inc()
	m.jobDuration.Observe(d.Seconds())
}

// JobSkipped records a refresh trigger that found a run already in flight.
func (m *Metrics) JobSkipped() {
	m.jobSkipped.Inc()
}

// ObserveSnapshot updates the snapshot gauges.
func (m *Metrics) ObserveSnapshot(age time.Duration, districts int) {
	m.snapshotAge.Set(age.Seconds())
	m.districts.Set(float64(districts))
}
