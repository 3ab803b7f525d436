package contracts

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fetchCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "depositindexor_fetch_cache_hits_total",
			Help: "Total number of contract reads served from cache by effect",
		},
		[]string{"effect"},
	)

	fetchCacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "depositindexor_fetch_cache_misses_total",
			Help: "Total number of cacheable contract reads that missed the cache by effect",
		},
		[]string{"effect"},
	)

	contractReads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "depositindexor_contract_reads_total",
			Help: "Total number of contract reads issued by effect",
		},
		[]string{"effect"},
	)

	contractReadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "depositindexor_contract_read_duration_seconds",
			Help:    "Duration of contract reads by effect",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"effect"},
	)
)

func contractReadObserve(effect string, start time.Time) {
	contractReads.WithLabelValues(effect).Inc()
	contractReadDuration.WithLabelValues(effect).Observe(time.Since(start).Seconds())
}
