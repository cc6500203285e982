package planner

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// scoreDuration tracks the time taken to score a candidate batch.
	scoreDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "planner_score_duration_seconds",
		Help:    "Time taken to score a candidate batch",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
	})

	// routeDuration tracks the time taken to optimize a route by solver.
	routeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "planner_route_duration_seconds",
		Help:    "Time taken to optimize a route by solver",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2},
	}, []string{"solver"})

	// candidateCount tracks the distribution of scoring batch sizes.
	candidateCount = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "planner_candidates_count",
		Help:    "Number of candidates in scoring requests",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500},
	})

	// routeStops tracks the distribution of route sizes.
	routeStops = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "planner_route_stops_count",
		Help:    "Number of stops in route optimization requests",
		Buckets: []float64{1, 2, 4, 8, 16, 32, 64, 128},
	})

	// routeObjective tracks the aggregate objective of returned routes.
	routeObjective = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "planner_route_objective",
		Help:    "Objective value of optimized routes (lower is better)",
		Buckets: []float64{-10, -1, 0, 1, 5, 10, 50, 100},
	})

	// topScore tracks the best candidate score per scoring request.
	topScore = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "planner_top_candidate_score",
		Help:    "Score of the top-ranked candidate per request",
		Buckets: []float64{-2, -1, 0, 0.5, 1, 2, 3, 5},
	})

	// infeasibleRoutes counts routes returned with violated strict windows.
	infeasibleRoutes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "planner_infeasible_routes_total",
		Help: "Total number of routes returned infeasible under strict windows",
	})
)

// MetricsRecorder provides methods to record planner metrics.
type MetricsRecorder struct{}

// NewMetricsRecorder creates a new metrics recorder.
func NewMetricsRecorder() *MetricsRecorder {
	return &MetricsRecorder{}
}

// RecordScoreDuration records the duration of a scoring call.
func (m *MetricsRecorder) RecordScoreDuration(d time.Duration) {
	scoreDuration.Observe(d.Seconds())
}

// RecordRouteDuration records the duration of a route optimization by solver.
func (m *MetricsRecorder) RecordRouteDuration(solver string, d time.Duration) {
	routeDuration.WithLabelValues(solver).Observe(d.Seconds())
}

// RecordCandidateCount records the size of a scoring batch.
func (m *MetricsRecorder) RecordCandidateCount(count int) {
	candidateCount.Observe(float64(count))
}

// RecordRouteStops records the number of stops in a route request.
func (m *MetricsRecorder) RecordRouteStops(count int) {
	routeStops.Observe(float64(count))
}

// RecordRouteObjective records the objective of an optimized route.
func (m *MetricsRecorder) RecordRouteObjective(obj float64) {
	routeObjective.Observe(obj)
}

// RecordTopScore records the best candidate score of a scoring request.
func (m *MetricsRecorder) RecordTopScore(score float64) {
	topScore.Observe(score)
}

// RecordInfeasibleRoute counts a route returned infeasible under strict windows.
func (m *MetricsRecorder) RecordInfeasibleRoute() {
	infeasibleRoutes.Inc()
}
