package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "moviescout",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests by method, path and status code.",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "moviescout",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds.",
		Buckets:   []float64{0.05, 0.1, 0.3, 0.5, 1, 2, 5, 10, 20},
	}, []string{"method", "path"})

	CatalogRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "moviescout",
		Name:      "catalog_requests_total",
		Help:      "Total requests to the movie catalog API by endpoint and result status.",
	}, []string{"endpoint", "status"})

	CatalogRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "moviescout",
		Name:      "catalog_request_duration_seconds",
		Help:      "Catalog API request duration in seconds.",
		Buckets:   []float64{0.1, 0.3, 0.5, 1, 2, 5, 10, 15},
	}, []string{"endpoint"})

	SearchPipelineDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "moviescout",
		Name:      "search_pipeline_duration_seconds",
		Help:      "End-to-end search pipeline duration in seconds by query kind.",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 20, 30},
	}, []string{"kind"})

	SearchResultsDropped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "moviescout",
		Name:      "search_results_dropped_total",
		Help:      "Entries removed from search results by pipeline stage.",
	}, []string{"stage"})

	CacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "moviescout",
		Name:      "catalog_cache_hits_total",
		Help:      "Total number of catalog cache hits.",
	})

	CacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "moviescout",
		Name:      "catalog_cache_misses_total",
		Help:      "Total number of catalog cache misses.",
	})

	LiveSearchStaleDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "moviescout",
		Name:      "live_search_stale_dropped_total",
		Help:      "Completed live-search runs discarded because a newer run already published.",
	})
)

func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		CatalogRequestsTotal,
		CatalogRequestDuration,
		SearchPipelineDuration,
		SearchResultsDropped,
		CacheHitsTotal,
		CacheMissesTotal,
		LiveSearchStaleDropped,
	)
}
