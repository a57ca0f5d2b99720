// Package metrics exposes Prometheus metrics for the scoring engine.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "gulfer"
	subsystem = "scoring"
)

// manager owns every collector on a private registry so tests and the
// default process registry never collide.
type manager struct {
	registry *prometheus.Registry

	submissionsProcessed prometheus.Counter
	submissionsDuplicate prometheus.Counter
	submissionsRejected  prometheus.Counter

	cascades        prometheus.Counter
	cascadeFailures prometheus.Counter
	stageRecomputes prometheus.Counter
	cascadeDuration prometheus.Histogram

	queueSize     prometheus.Gauge
	queueCapacity prometheus.Gauge
	workerCount   prometheus.Gauge

	storeEvents prometheus.Gauge
	storeScores prometheus.Gauge

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

var (
	mgr  *manager
	once sync.Once
)

func get() *manager {
	once.Do(func() {
		reg := prometheus.NewRegistry()
		m := &manager{registry: reg}

		m.submissionsProcessed = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "submissions_processed_total", Help: "Score submissions accepted for processing.",
		})
		m.submissionsDuplicate = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "submissions_duplicate_total", Help: "Score submissions rejected as duplicates.",
		})
		m.submissionsRejected = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "submissions_rejected_total", Help: "Score submissions rejected by validation.",
		})
		m.cascades = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "cascades_total", Help: "Recomputation cascades run.",
		})
		m.cascadeFailures = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "cascade_failures_total", Help: "Recomputation cascades aborted by an error.",
		})
		m.stageRecomputes = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "stage_recomputes_total", Help: "Individual stage recomputations performed.",
		})
		m.cascadeDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "cascade_duration_ms", Help: "End-to-end cascade duration in milliseconds.",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		})
		m.queueSize = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "queue_size", Help: "Submissions currently queued.",
		})
		m.queueCapacity = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "queue_capacity", Help: "Configured queue capacity.",
		})
		m.workerCount = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "worker_count", Help: "Configured scoring workers.",
		})
		m.storeEvents = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "store_events", Help: "Events tracked by the store.",
		})
		m.storeScores = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "store_scores", Help: "Score rows tracked by the store.",
		})
		m.httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "http",
			Name: "requests_total", Help: "HTTP requests by endpoint, method, and status.",
		}, []string{"endpoint", "method", "status"})
		m.httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "http",
			Name: "request_duration_ms", Help: "HTTP request duration in milliseconds.",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		}, []string{"endpoint", "method", "status"})

		reg.MustRegister(
			m.submissionsProcessed, m.submissionsDuplicate, m.submissionsRejected,
			m.cascades, m.cascadeFailures, m.stageRecomputes, m.cascadeDuration,
			m.queueSize, m.queueCapacity, m.workerCount,
			m.storeEvents, m.storeScores,
			m.httpRequests, m.httpRequestDuration,
		)
		mgr = m
	})
	return mgr
}

// GetRegistry returns the registry every engine collector lives on.
func GetRegistry() *prometheus.Registry { return get().registry }

// Record helpers, safe to call from any goroutine.

func RecordSubmissionProcessed() { get().submissionsProcessed.Inc() }
func RecordSubmissionDuplicate() { get().submissionsDuplicate.Inc() }
func RecordSubmissionRejected()  { get().submissionsRejected.Inc() }

func RecordCascade()                   { get().cascades.Inc() }
func RecordCascadeFailure()            { get().cascadeFailures.Inc() }
func RecordStageRecompute()            { get().stageRecomputes.Inc() }
func RecordCascadeDuration(ms float64) { get().cascadeDuration.Observe(ms) }

func UpdateQueueSize(n int)     { get().queueSize.Set(float64(n)) }
func UpdateQueueCapacity(n int) { get().queueCapacity.Set(float64(n)) }
func UpdateWorkerCount(n int)   { get().workerCount.Set(float64(n)) }

func UpdateStoreEvents(n int) { get().storeEvents.Set(float64(n)) }
func UpdateStoreScores(n int) { get().storeScores.Set(float64(n)) }

// RecordHTTPRequest counts one request and its duration.
func RecordHTTPRequest(endpoint, method, status string, durationMS float64) {
	get().httpRequests.WithLabelValues(endpoint, method, status).Inc()
	get().httpRequestDuration.WithLabelValues(endpoint, method, status).Observe(durationMS)
}
