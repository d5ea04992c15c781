package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ReconcileCyclesTotal counts completed reconcile attempts, by outcome.
	ReconcileCyclesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shardctl_reconcile_cycles_total",
			Help: "Total number of completed reconcile attempts by outcome",
		},
		[]string{"outcome"},
	)

	// ReconcileDuration is the wall-clock time of a single reconcile
	// attempt, from MaybeReconcile's spawn to the result being applied.
	ReconcileDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "shardctl_reconcile_duration_seconds",
			Help:    "Reconcile attempt duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// ReconcileErrorsTotal counts failed reconcile attempts, by shard.
	ReconcileErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shardctl_reconcile_errors_total",
			Help: "Total number of failed reconcile attempts",
		},
		[]string{"tenant_shard_id"},
	)

	// DirtyShardsTotal is the number of shards whose observed state does
	// not currently match intent, sampled on every controller tick.
	DirtyShardsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "shardctl_dirty_shards",
			Help: "Number of shards whose observed state differs from intent",
		},
	)

	// InFlightReconcilesTotal is the number of reconcile tasks currently
	// running, sampled on every controller tick.
	InFlightReconcilesTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "shardctl_inflight_reconciles",
			Help: "Number of reconcile tasks currently running",
		},
	)

	// ResultQueueDepth is the number of ReconcileResults waiting to be
	// drained from the controller's result channel.
	ResultQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "shardctl_result_queue_depth",
			Help: "Number of reconcile results queued for the control loop",
		},
	)

	// NodeAvailabilityTotal counts registered nodes by their current
	// availability state.
	NodeAvailabilityTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "shardctl_nodes_total",
			Help: "Number of registered nodes by availability",
		},
		[]string{"availability"},
	)
)

func init() {
	prometheus.MustRegister(
		ReconcileCyclesTotal,
		ReconcileDuration,
		ReconcileErrorsTotal,
		DirtyShardsTotal,
		InFlightReconcilesTotal,
		ResultQueueDepth,
		NodeAvailabilityTotal,
	)
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a small helper for timing an operation and later observing its
// duration against a histogram.
type Timer struct {
	start time.Time
}

// NewTimer starts a timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the elapsed time against histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
