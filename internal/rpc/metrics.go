package rpc

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RPCRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "depositindexor_rpc_requests_total",
			Help: "Total number of RPC requests by chain and method",
		},
		[]string{"chain_id", "method"},
	)

	RPCErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "depositindexor_rpc_errors_total",
			Help: "Total number of failed RPC requests by chain and method",
		},
		[]string{"chain_id", "method"},
	)

	RPCRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "depositindexor_rpc_retries_total",
			Help: "Total number of RPC retries by method",
		},
		[]string{"method"},
	)

	RPCDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "depositindexor_rpc_request_duration_seconds",
			Help:    "Duration of RPC requests including retries",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"chain_id", "method"},
	)
)

func rpcObserve(chainID uint64, method string, start time.Time, err error) {
	chain := strconv.FormatUint(chainID, 10)
	RPCRequests.WithLabelValues(chain, method).Inc()
	RPCDuration.WithLabelValues(chain, method).Observe(time.Since(start).Seconds())
	if err != nil {
		RPCErrors.WithLabelValues(chain, method).Inc()
	}
}

func RPCRetryInc(method string) {
	RPCRetries.WithLabelValues(method).Inc()
}
