// Package metrics exposes Prometheus counters for cache, filter, purge and
// scheduler activity. All collectors register against the default registry;
// Handler serves them in the Prometheus text format.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// StoreOps counts store adapter commands by operation name.
	StoreOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cachekit_store_operations_total",
		Help: "Store adapter commands issued, by operation.",
	}, []string{"op"})

	// StoreErrors counts failed store adapter commands by operation name.
	StoreErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cachekit_store_errors_total",
		Help: "Store adapter commands that failed, by operation.",
	}, []string{"op"})

	// CacheHits counts reads that found a key.
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cachekit_cache_hits_total",
		Help: "Cache reads that found the key.",
	})

	// CacheMisses counts reads of absent or expired keys.
	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cachekit_cache_misses_total",
		Help: "Cache reads that found nothing.",
	})

	// FilterChecks counts membership checks by outcome.
	FilterChecks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cachekit_filter_checks_total",
		Help: "Membership filter checks, by outcome.",
	}, []string{"outcome"}) // "maybe" or "absent"

	// FilterAdds counts items added to membership filters.
	FilterAdds = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cachekit_filter_adds_total",
		Help: "Items added to membership filters.",
	})

	// PurgeDeleted counts keys removed by the pattern purge engine.
	PurgeDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cachekit_purge_deleted_total",
		Help: "Keys deleted by pattern purge runs.",
	})

	// SchedulerTicks counts maintenance ticks by result.
	SchedulerTicks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cachekit_scheduler_ticks_total",
		Help: "Maintenance scheduler ticks, by result.",
	}, []string{"result"}) // "ok" or "error"
)

// Handler returns the Prometheus scrape handler for the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
