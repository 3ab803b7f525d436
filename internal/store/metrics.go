package store

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	storeWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "depositindexor_store_writes_total",
			Help: "Total number of entity writes by kind",
		},
		[]string{"entity"},
	)

	storeTxTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "depositindexor_store_transactions_total",
			Help: "Total number of store transactions by outcome",
		},
		[]string{"outcome"},
	)
)

func storeWritesInc(kind string) {
	storeWrites.WithLabelValues(kind).Inc()
}

func storeTxInc(err error) {
	if err != nil {
		storeTxTotal.WithLabelValues("rollback").Inc()
		return
	}
	storeTxTotal.WithLabelValues("commit").Inc()
}
