package handlers

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	eventsHandled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "depositindexor_events_handled_total",
			Help: "Total number of contract events handled by chain, contract kind and event",
		},
		[]string{"chain", "contract", "event"},
	)

	handlerErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "depositindexor_handler_errors_total",
			Help: "Total number of event handler failures by chain, contract kind and event",
		},
		[]string{"chain", "contract", "event"},
	)

	blockCallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "depositindexor_block_callbacks_total",
			Help: "Total number of snapshot block callbacks by chain and target",
		},
		[]string{"chain", "target"},
	)
)

func eventHandledInc(chainID uint64, contract, event string, err error) {
	chain := strconv.FormatUint(chainID, 10)
	if err != nil {
		handlerErrors.WithLabelValues(chain, contract, event).Inc()
		return
	}
	eventsHandled.WithLabelValues(chain, contract, event).Inc()
}

func blockCallbackInc(chainID uint64, target string) {
	blockCallbacks.WithLabelValues(strconv.FormatUint(chainID, 10), target).Inc()
}
