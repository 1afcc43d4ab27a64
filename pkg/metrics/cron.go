// Package metrics exposes Prometheus instrumentation for the background
// workers. The HTTP surface stays unmetered; only scheduled jobs report.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const jobLabel = "job"

// CronJobMetrics tracks per-job outcomes and runtimes for the cron worker.
// The zero value is a no-op, so callers never need nil checks around it.
type CronJobMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
}

// NewCronJobMetrics builds the job collectors and registers them on reg.
// Passing a nil registerer yields an inert instance, which the tests and
// one-shot CLI invocations rely on.
func NewCronJobMetrics(reg prometheus.Registerer) *CronJobMetrics {
	m := &CronJobMetrics{}
	if reg == nil {
		return m
	}

	m.duration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "job_duration_seconds",
		Help:    "Wall-clock runtime of each scheduled job.",
		Buckets: prometheus.DefBuckets,
	}, []string{jobLabel})
	m.success = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "job_success",
		Help: "Scheduled job runs that completed without error.",
	}, []string{jobLabel})
	m.failure = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "job_failure",
		Help: "Scheduled job runs that returned an error.",
	}, []string{jobLabel})

	reg.MustRegister(m.duration, m.success, m.failure)
	return m
}

// ObserveDuration records how long the named job ran.
func (m *CronJobMetrics) ObserveDuration(job string, d time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(jobName(job)).Observe(d.Seconds())
}

// IncSuccess counts a clean completion of the named job.
func (m *CronJobMetrics) IncSuccess(job string) {
	if m == nil || m.success == nil {
		return
	}
	m.success.WithLabelValues(jobName(job)).Inc()
}

// IncFailure counts a failed run of the named job.
func (m *CronJobMetrics) IncFailure(job string) {
	if m == nil || m.failure == nil {
		return
	}
	m.failure.WithLabelValues(jobName(job)).Inc()
}

func jobName(job string) string {
	if job == "" {
		return "unknown"
	}
	return job
}
