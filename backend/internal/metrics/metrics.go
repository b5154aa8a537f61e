package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collectors for the graph, profile and recommendation paths. They register
// with the default registry and are served on /metrics.
var (
	// Graph build metrics
	GraphBuildDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "graph_build_duration_seconds",
			Help:    "Duration of knowledge graph builds in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"scope"}, // "full", "types"
	)

	GraphBuilds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "graph_builds_total",
			Help: "Total number of knowledge graph builds by outcome",
		},
		[]string{"scope", "result"}, // result: "success", "store_unavailable", "error"
	)

	GraphCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "graph_cache_hits_total",
			Help: "Total number of graph requests served from the cache slot",
		},
	)

	GraphCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "graph_cache_misses_total",
			Help: "Total number of graph requests that required a rebuild",
		},
	)

	GraphNodes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "graph_nodes",
			Help: "Node count of the most recently cached full graph",
		},
	)

	GraphEdges = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "graph_edges",
			Help: "Edge count of the most recently cached full graph",
		},
	)

	// Profile metrics
	ProfileEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "profile_events_total",
			Help: "Total number of interaction events folded into profiles",
		},
		[]string{"event_type"},
	)

	// Recommendation metrics
	Recommendations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendations_total",
			Help: "Total number of recommendation results by algorithm",
		},
		[]string{"mode", "algorithm"},
	)

	RecommendationConfidence = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommendation_confidence",
			Help:    "Confidence of produced recommendation results",
			Buckets: []float64{0, 0.1, 0.25, 0.5, 0.75, 0.9, 1},
		},
	)
)

// RecordGraphBuild records the outcome and duration of a graph build
func RecordGraphBuild(scope, result string, duration time.Duration) {
	GraphBuildDuration.WithLabelValues(scope).Observe(duration.Seconds())
	GraphBuilds.WithLabelValues(scope, result).Inc()
}

// RecordGraphSize updates the cached graph gauges
func RecordGraphSize(nodes, edges int) {
	GraphNodes.Set(float64(nodes))
	GraphEdges.Set(float64(edges))
}

// RecordRecommendation records one produced recommendation result
func RecordRecommendation(mode, algorithm string, confidence float64) {
	Recommendations.WithLabelValues(mode, algorithm).Inc()
	RecommendationConfidence.Observe(confidence)
}
