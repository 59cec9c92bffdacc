// Package metrics exposes Prometheus instrumentation for catalogue loading.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	loadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalogue_loads_total",
		Help: "Catalogue load attempts by source and resulting state",
	}, []string{"source", "state"}) // source=cache|remote|stale-cache|none

	remoteFetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalogue_remote_fetch_total",
		Help: "Remote catalogue fetches by outcome",
	}, []string{"outcome"}) // outcome=success|transport_error|ingestion_error

	cacheOpsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalogue_cache_operations_total",
		Help: "Cache store operations by kind and outcome",
	}, []string{"op", "outcome"}) // op=save|load, outcome=success|miss|failure

	recordsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "catalogue_records_active",
		Help: "Number of records in the active collection",
	})

	recordsCorrupted = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "catalogue_records_corrupted",
		Help: "Records that failed validation in the last adopted payload",
	})

	recordsRecovered = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "catalogue_records_recovered",
		Help: "Records repaired by recovery in the last adopted payload",
	})
)

func IncLoad(source, state string) {
	if source == "" {
		source = "none"
	}
	loadsTotal.WithLabelValues(source, state).Inc()
}

func IncRemoteFetch(outcome string) {
	remoteFetchTotal.WithLabelValues(outcome).Inc()
}

func IncCacheOp(op, outcome string) {
	cacheOpsTotal.WithLabelValues(op, outcome).Inc()
}

// SetCollection records the counts of the collection that was just adopted.
func SetCollection(active, corrupted, recovered int) {
	recordsActive.Set(float64(active))
	recordsCorrupted.Set(float64(corrupted))
	recordsRecovered.Set(float64(recovered))
}
