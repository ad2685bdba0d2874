package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SessionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_sessions_total",
		Help: "Total sync sessions by terminal status",
	}, []string{"status"})

	SessionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sync_session_duration_seconds",
		Help:    "Time spent processing a single sync session",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
	})

	ItemsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_queue_items_total",
		Help: "Queue items processed by outcome",
	}, []string{"outcome", "entity_type"})

	ConflictsDetected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_conflicts_detected_total",
		Help: "Conflicts detected by classification",
	}, []string{"conflict_type"})

	ConflictsResolved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_conflicts_resolved_total",
		Help: "Conflicts resolved by strategy",
	}, []string{"strategy"})

	CacheSweepRemoved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sync_cache_sweep_removed_total",
		Help: "Expired mobile cache entries removed by the sweeper",
	})

	StaleItemsRecovered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sync_stale_items_recovered_total",
		Help: "IN_PROGRESS items reverted to PENDING by the recovery sweep",
	})
)
