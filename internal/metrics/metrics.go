// Package metrics centralizes the Prometheus collectors shared by the
// cache, write queue, WAL, and node packages, so a single /metrics
// endpoint reflects the whole node.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Registry groups every collector a node reports. Each component that
// cares about a subset of these fields holds this struct (or a pointer to
// it) rather than registering its own global collectors, which keeps
// tests free of global-registry collisions.
type Registry struct {
	CacheHits      prometheus.Counter
	CacheMisses    prometheus.Counter
	CacheEvictions prometheus.Counter
	CacheSize      prometheus.Gauge

	QueueDepth        prometheus.Gauge
	QueueFlushes      prometheus.Counter
	QueueFlushFailure prometheus.Counter

	WALAppends prometheus.Counter
	WALFailure prometheus.Counter

	NodeGets               prometheus.Counter
	NodePuts               prometheus.Counter
	NodeRemoves            prometheus.Counter
	NodeForwards           prometheus.Counter
	NodeReplicationOK      prometheus.Counter
	NodeReplicationFailure prometheus.Counter
}

// New builds a Registry and registers every collector with reg.
func New(reg prometheus.Registerer) *Registry {
	m := &Registry{
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "distcache_cache_hits_total",
			Help: "Cache Get calls that found a live-or-stale entry.",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "distcache_cache_misses_total",
			Help: "Cache Get calls that found nothing.",
		}),
		CacheEvictions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "distcache_cache_evictions_total",
			Help: "Entries evicted due to capacity overflow.",
		}),
		CacheSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "distcache_cache_size",
			Help: "Current number of entries held in the cache.",
		}),
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "distcache_writequeue_depth",
			Help: "Entries currently buffered in the write queue.",
		}),
		QueueFlushes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "distcache_writequeue_flushes_total",
			Help: "Batches successfully handed to the WAL.",
		}),
		QueueFlushFailure: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "distcache_writequeue_flush_failures_total",
			Help: "Batches dropped because the WAL write failed.",
		}),
		WALAppends: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "distcache_wal_appends_total",
			Help: "Successful WAL batch writes.",
		}),
		WALFailure: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "distcache_wal_failures_total",
			Help: "Failed WAL batch writes.",
		}),
		NodeGets: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "distcache_node_gets_total",
			Help: "Get requests handled by this node.",
		}),
		NodePuts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "distcache_node_puts_total",
			Help: "Put requests handled by this node.",
		}),
		NodeRemoves: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "distcache_node_removes_total",
			Help: "Remove requests handled by this node.",
		}),
		NodeForwards: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "distcache_node_forwards_total",
			Help: "Requests forwarded to another node because this node was not responsible.",
		}),
		NodeReplicationOK: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "distcache_node_replication_success_total",
			Help: "Replica Puts that succeeded.",
		}),
		NodeReplicationFailure: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "distcache_node_replication_failure_total",
			Help: "Replica Puts that failed.",
		}),
	}

	reg.MustRegister(
		m.CacheHits, m.CacheMisses, m.CacheEvictions, m.CacheSize,
		m.QueueDepth, m.QueueFlushes, m.QueueFlushFailure,
		m.WALAppends, m.WALFailure,
		m.NodeGets, m.NodePuts, m.NodeRemoves, m.NodeForwards,
		m.NodeReplicationOK, m.NodeReplicationFailure,
	)
	return m
}

// NewUnregistered builds a Registry whose collectors are registered only
// with a fresh private registry, not the global one, for use in unit tests
// that construct many Caches or Nodes in the same process.
func NewUnregistered() *Registry {
	return New(prometheus.NewRegistry())
}
