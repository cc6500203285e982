package discovery

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// cacheHits tracks the number of snapshot hits per source.
	cacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "discovery_cache_hits_total",
		Help: "Total number of catalog cache hits by source",
	}, []string{"source"})

	// cacheMisses tracks the number of snapshot misses per source.
	cacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "discovery_cache_misses_total",
		Help: "Total number of catalog cache misses by source",
	}, []string{"source"})

	// cacheLoadDuration tracks the time taken to load each source snapshot.
	cacheLoadDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "discovery_cache_load_duration_seconds",
		Help:    "Time taken to load catalog snapshot by source",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	}, []string{"source"})

	// cacheLoadErrors tracks snapshot load errors.
	cacheLoadErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "discovery_cache_load_errors_total",
		Help: "Total number of catalog snapshot load errors by source",
	}, []string{"source"})

	// queryResultCount tracks the distribution of nearby-query result sizes.
	queryResultCount = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "discovery_query_results_count",
		Help:    "Number of results returned by catalog queries",
		Buckets: []float64{0, 1, 5, 10, 20, 50, 100},
	})

	// snapshotMemoryBytes tracks the memory usage of source snapshots.
	snapshotMemoryBytes = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "discovery_snapshot_memory_bytes",
		Help: "Estimated memory usage of catalog snapshots in bytes",
	}, []string{"source"})

	// snapshotPOICount tracks the number of entries in each source snapshot.
	snapshotPOICount = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "discovery_snapshot_pois",
		Help: "Number of points of interest in catalog snapshots",
	}, []string{"source"})
)

// MetricsRecorder provides methods to record catalog cache metrics.
type MetricsRecorder struct{}

// NewMetricsRecorder creates a new metrics recorder.
func NewMetricsRecorder() *MetricsRecorder {
	return &MetricsRecorder{}
}

// RecordCacheHit records a snapshot hit for a source.
func (m *MetricsRecorder) RecordCacheHit(source string) {
	cacheHits.WithLabelValues(source).Inc()
}

// RecordCacheMiss records a snapshot miss for a source.
func (m *MetricsRecorder) RecordCacheMiss(source string) {
	cacheMisses.WithLabelValues(source).Inc()
}

// RecordCacheLoad records a snapshot load operation.
func (m *MetricsRecorder) RecordCacheLoad(source string, durationSeconds float64, success bool) {
	cacheLoadDuration.WithLabelValues(source).Observe(durationSeconds)
	if !success {
		cacheLoadErrors.WithLabelValues(source).Inc()
	}
}

// RecordQueryResults records the size of a nearby-query result set.
func (m *MetricsRecorder) RecordQueryResults(count int) {
	queryResultCount.Observe(float64(count))
}

// RecordSnapshot records the footprint of a loaded source snapshot.
func (m *MetricsRecorder) RecordSnapshot(source string, bytes int64, pois int) {
	snapshotMemoryBytes.WithLabelValues(source).Set(float64(bytes))
	snapshotPOICount.WithLabelValues(source).Set(float64(pois))
}

// ClearSourceMetrics clears all metrics for a specific source.
// Useful when a source is removed or its snapshot is dropped.
func (m *MetricsRecorder) ClearSourceMetrics(source string) {
	snapshotMemoryBytes.DeleteLabelValues(source)
	snapshotPOICount.DeleteLabelValues(source)
}
