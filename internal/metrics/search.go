package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search Prometheus metrics.
var (
	SearchLookupDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_lookup_duration_seconds",
			Help:      "Ranked lookup duration in seconds, index round trip included",
			Buckets:   []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"scope"}, // "all" / "video"
	)

	SearchResults = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_results",
			Help:      "Ranked frames returned per search",
			Buckets:   []float64{0, 1, 5, 10, 20, 30, 50, 100},
		},
	)

	SearchSegments = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_segments",
			Help:      "Consolidated segments returned per search",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50},
		},
	)

	SearchIndexUnavailableTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_index_unavailable_total",
			Help:      "Searches rejected because no frame index has been built",
		},
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers Prometheus search metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchLookupDuration)
	prometheus.MustRegister(SearchResults)
	prometheus.MustRegister(SearchSegments)
	prometheus.MustRegister(SearchIndexUnavailableTotal)
	searchMetricsRegistered = true
}
