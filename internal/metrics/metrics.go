package metrics

import (
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Indexing metrics
	LastIndexedBlock = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "depositindexor_last_indexed_block",
			Help: "The last block number successfully indexed",
		},
		[]string{"chain"},
	)

	HeadBlock = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "depositindexor_head_block",
			Help: "The head block the chain follower trusts",
		},
		[]string{"chain"},
	)

	BlocksProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "depositindexor_blocks_processed_total",
			Help: "Total number of blocks processed",
		},
		[]string{"chain"},
	)

	LogsIndexed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "depositindexor_logs_indexed_total",
			Help: "Total number of logs indexed",
		},
		[]string{"chain"},
	)

	BatchProcessingTime = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "depositindexor_batch_processing_duration_seconds",
			Help:    "Time taken to apply a batch of blocks",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"chain"},
	)

	IndexingRate = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "depositindexor_indexing_rate_blocks_per_second",
			Help: "Current indexing rate in blocks per second",
		},
		[]string{"chain"},
	)

	BatchRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "depositindexor_batch_retries_total",
			Help: "Number of batches retried from the last checkpoint",
		},
		[]string{"chain"},
	)

	// System metrics
	Uptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "depositindexor_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)

	ComponentHealth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "depositindexor_component_health",
			Help: "Component health status (1=healthy, 0=unhealthy)",
		},
		[]string{"component"},
	)

	Goroutines = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "depositindexor_goroutines",
			Help: "Number of active goroutines",
		},
	)

	MemoryUsage = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "depositindexor_memory_usage_bytes",
			Help: "Memory usage statistics",
		},
		[]string{"type"},
	)

	startTime = time.Now()
)

func chainLabel(chainID uint64) string {
	return strconv.FormatUint(chainID, 10)
}

func LastIndexedBlockSet(chainID, blockNum uint64) {
	LastIndexedBlock.WithLabelValues(chainLabel(chainID)).Set(float64(blockNum))
}

func HeadBlockSet(chainID, blockNum uint64) {
	HeadBlock.WithLabelValues(chainLabel(chainID)).Set(float64(blockNum))
}

func BatchRetryInc(chainID uint64) {
	BatchRetries.WithLabelValues(chainLabel(chainID)).Inc()
}

// BatchProcessed records a batch of blocks [from, to] applied in elapsed.
func BatchProcessed(chainID uint64, logs int, from, to uint64, elapsed time.Duration) {
	chain := chainLabel(chainID)
	blocks := to - from + 1

	LogsIndexed.WithLabelValues(chain).Add(float64(logs))
	BlocksProcessed.WithLabelValues(chain).Add(float64(blocks))
	BatchProcessingTime.WithLabelValues(chain).Observe(elapsed.Seconds())

	seconds := elapsed.Seconds()
	if seconds == 0 {
		seconds = 1 // prevent division by zero
	}
	IndexingRate.WithLabelValues(chain).Set(float64(blocks) / seconds)
}

func ComponentHealthSet(component string, healthy bool) {
	boolAsFloat := float64(1)
	if !healthy {
		boolAsFloat = 0
	}

	ComponentHealth.WithLabelValues(component).Set(boolAsFloat)
}

// UpdateSystemMetrics updates runtime system metrics.
// This should be called periodically (e.g., every 15 seconds).
func UpdateSystemMetrics() {
	Uptime.Set(time.Since(startTime).Seconds())

	Goroutines.Set(float64(runtime.NumGoroutine()))

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	MemoryUsage.WithLabelValues("alloc").Set(float64(m.Alloc))
	MemoryUsage.WithLabelValues("total_alloc").Set(float64(m.TotalAlloc))
	MemoryUsage.WithLabelValues("sys").Set(float64(m.Sys))
	MemoryUsage.WithLabelValues("heap_inuse").Set(float64(m.HeapInuse))
}
