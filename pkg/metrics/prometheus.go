// Package metrics provides Prometheus metrics for the tinsel leaderboard service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	registry         prometheus.Registerer

	// Synchronizer outcomes, one counter per verdict
	scoreUpdates     prometheus.Counter
	memeOnlyUpdates  prometheus.Counter
	noopSubmissions  prometheus.Counter
	leaderboardReads prometheus.Counter

	// Row-store client health
	storeCalls   *prometheus.CounterVec
	storeErrors  *prometheus.CounterVec
	storeLatency prometheus.Histogram

	// Assignment generator
	assignmentBuilds    prometheus.Counter
	assignmentFallbacks prometheus.Counter

	// Meme catalog cache
	memeCatalogHits   prometheus.Counter
	memeCatalogMisses prometheus.Counter

	// HTTP layer
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "tinsel",
		subsystem:        "leaderboard",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.scoreUpdates = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "score_updates_total",
		Help:      "Submissions that improved a participant's best score",
	})
	m.memeOnlyUpdates = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "meme_only_updates_total",
		Help:      "Submissions that updated meme fields without improving the score",
	})
	m.noopSubmissions = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "noop_submissions_total",
		Help:      "Submissions that changed nothing (score not beaten, no meme fields)",
	})
	m.leaderboardReads = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "reads_total",
		Help:      "Leaderboard read requests served",
	})

	m.storeCalls = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "store",
		Name:      "calls_total",
		Help:      "Row-store calls by operation",
	}, []string{"op"})
	m.storeErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "store",
		Name:      "errors_total",
		Help:      "Row-store call failures by operation",
	}, []string{"op"})
	m.storeLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "store",
		Name:      "call_duration_ms",
		Help:      "Row-store call latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.assignmentBuilds = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "assignment",
		Name:      "builds_total",
		Help:      "Secret Santa assignment computations",
	})
	m.assignmentFallbacks = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "assignment",
		Name:      "rotation_fallbacks_total",
		Help:      "Assignment builds that exhausted shuffle attempts and rotated instead",
	})

	m.memeCatalogHits = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "memes",
		Name:      "catalog_cache_hits_total",
		Help:      "Meme catalog lookups served from the process cache",
	})
	m.memeCatalogMisses = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "memes",
		Name:      "catalog_cache_misses_total",
		Help:      "Meme catalog lookups that required an upstream fetch",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by endpoint, method and status",
	}, []string{"endpoint", "method", "status"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "request_duration_ms",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status"})
}

// GetRegistry returns the custom registry used by the global manager, for
// exposition via promhttp.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Package-level helpers recording on the global manager.

// RecordScoreUpdate records a submission that improved the stored best score.
func RecordScoreUpdate() {
	if globalManager.enabled {
		globalManager.scoreUpdates.Inc()
	}
}

// RecordMemeOnlyUpdate records a submission that only touched meme fields.
func RecordMemeOnlyUpdate() {
	if globalManager.enabled {
		globalManager.memeOnlyUpdates.Inc()
	}
}

// RecordNoopSubmission records a submission that changed nothing.
func RecordNoopSubmission() {
	if globalManager.enabled {
		globalManager.noopSubmissions.Inc()
	}
}

// RecordLeaderboardRead records a served leaderboard read.
func RecordLeaderboardRead() {
	if globalManager.enabled {
		globalManager.leaderboardReads.Inc()
	}
}

// RecordStoreCall records a row-store call for the given operation.
func RecordStoreCall(op string) {
	if globalManager.enabled {
		globalManager.storeCalls.WithLabelValues(op).Inc()
	}
}

// RecordStoreError records a failed row-store call for the given operation.
func RecordStoreError(op string) {
	if globalManager.enabled {
		globalManager.storeErrors.WithLabelValues(op).Inc()
	}
}

// RecordStoreLatency records row-store call latency in milliseconds.
func RecordStoreLatency(ms float64) {
	if globalManager.enabled {
		globalManager.storeLatency.Observe(ms)
	}
}

// RecordAssignmentBuild records one assignment computation.
func RecordAssignmentBuild() {
	if globalManager.enabled {
		globalManager.assignmentBuilds.Inc()
	}
}

// RecordAssignmentFallback records a rotation fallback.
func RecordAssignmentFallback() {
	if globalManager.enabled {
		globalManager.assignmentFallbacks.Inc()
	}
}

// RecordMemeCatalogHit records a meme catalog cache hit.
func RecordMemeCatalogHit() {
	if globalManager.enabled {
		globalManager.memeCatalogHits.Inc()
	}
}

// RecordMemeCatalogMiss records a meme catalog cache miss.
func RecordMemeCatalogMiss() {
	if globalManager.enabled {
		globalManager.memeCatalogMisses.Inc()
	}
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, status string) {
	if globalManager.enabled {
		globalManager.httpRequests.WithLabelValues(endpoint, method, status).Inc()
	}
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, status string, ms float64) {
	if globalManager.enabled {
		globalManager.httpRequestDuration.WithLabelValues(endpoint, method, status).Observe(ms)
	}
}
