package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// InventoryFetchDuration observes indexing requests per standard and outcome.
	InventoryFetchDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "nft_manager",
		Name:      "inventory_fetch_duration_seconds",
		Help:      "Duration of indexing service requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"standard", "outcome"})

	// InventoryFetchErrors counts fetches that left a standard empty.
	InventoryFetchErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nft_manager",
		Name:      "inventory_fetch_errors_total",
		Help:      "Indexing fetches that failed and yielded an empty sequence.",
	}, []string{"standard"})

	// InventoryTokens is the size of the latest aggregated sequence per standard.
	InventoryTokens = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "nft_manager",
		Name:      "inventory_tokens",
		Help:      "Number of tokens in the latest aggregation per standard.",
	}, []string{"standard"})

	// TransferEvents counts dispatch lifecycle events per state and standard.
	TransferEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nft_manager",
		Name:      "transfer_events_total",
		Help:      "Transfer lifecycle events by state.",
	}, []string{"state", "standard"})
)

var registerOnce sync.Once

// MustRegisterMetrics registers every collector with the default registry.
// Calling it more than once is a no-op.
func MustRegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			InventoryFetchDuration,
			InventoryFetchErrors,
			InventoryTokens,
			TransferEvents,
		)
	})
}
