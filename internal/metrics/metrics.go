package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Data API.

	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "devhub_api_requests_total",
		Help: "Data API requests by route pattern, method and status code.",
	}, []string{"route", "method", "status"})

	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "devhub_api_request_duration_seconds",
		Help:    "Data API request latency by route pattern.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"route"})

	RateLimitedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "devhub_api_rate_limited_total",
		Help: "Requests rejected by the /users rate limiter.",
	})

	DevelopersTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "devhub_developers_total",
		Help: "Developers in the data store.",
	})

	BlogsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "devhub_blogs_total",
		Help: "Blogs in the data store.",
	})

	// Query layer.

	CacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "devhub_query_cache_hits_total",
		Help: "Queries served from the response cache.",
	}, []string{"endpoint"})

	CacheMissesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "devhub_query_cache_misses_total",
		Help: "Queries that missed the response cache.",
	}, []string{"endpoint"})

	FetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "devhub_query_fetches_total",
		Help: "Transport calls issued by the query layer, after in-flight de-duplication.",
	}, []string{"endpoint", "outcome"})

	InvalidatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "devhub_query_cache_invalidated_total",
		Help: "Cache entries dropped by tag invalidation.",
	})

	// Session manager.

	SessionTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "devhub_session_transitions_total",
		Help: "Authentication state transitions by target state.",
	}, []string{"state"})
)
