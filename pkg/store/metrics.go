package store

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits counts loads that returned a usable result, by backend.
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sf_credential_cache_hits_total",
			Help: "Total number of credential cache hits",
		},
		[]string{"backend"}, // "file", "redis"
	)

	// CacheMisses counts loads that found nothing stored, by backend.
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sf_credential_cache_misses_total",
			Help: "Total number of credential cache misses",
		},
		[]string{"backend"},
	)

	// CacheErrors counts failed operations, by backend and operation.
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sf_credential_cache_errors_total",
			Help: "Total number of credential cache operation errors",
		},
		[]string{"backend", "operation"}, // "load", "save", "clear"
	)
)
