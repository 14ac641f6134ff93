package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// PutsTotal counts RAPI.Put calls by outcome (created, unchanged).
	PutsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "revstore_puts_total",
			Help: "Total number of put operations by outcome",
		},
		[]string{"outcome"},
	)

	DeletesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "revstore_deletes_total",
			Help: "Total number of delete operations",
		},
	)

	// CSetsWrittenTotal counts appended change records by type (snapshot,
	// delta, delete).
	CSetsWrittenTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "revstore_csets_written_total",
			Help: "Total number of change records appended by type",
		},
		[]string{"type"},
	)

	CollisionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "revstore_hash_collisions_total",
			Help: "Total number of refused writes due to a hash directory collision",
		},
	)

	ErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "revstore_errors_total",
			Help: "Total number of RAPI calls that returned an error, by kind",
		},
		[]string{"kind"},
	)

	// ChainLength observes the number of CSet records folded together to
	// answer a single get_at call, the quantity SNAPF is meant to bound.
	ChainLength = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "revstore_chain_length",
			Help:    "Number of change records read to reconstruct a state",
			Buckets: []float64{1, 2, 3, 5, 8, 13, 21, 34, 55},
		},
	)

	PutDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "revstore_put_duration_seconds",
			Help:    "Time taken to execute a put operation in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	GetAtDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "revstore_get_at_duration_seconds",
			Help:    "Time taken to execute a get_at operation in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	IndexKeysServedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "revstore_index_keys_served_total",
			Help: "Total number of keys returned across all index_at pages",
		},
	)
)

func init() {
	prometheus.MustRegister(
		PutsTotal,
		DeletesTotal,
		CSetsWrittenTotal,
		CollisionsTotal,
		ErrorsTotal,
		ChainLength,
		PutDuration,
		GetAtDuration,
		IndexKeysServedTotal,
	)
}

// Handler returns the Prometheus HTTP handler, for embedding in whatever
// ambient HTTP mux the deployment uses (the HTTP front-end itself is out
// of scope for this module).
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations and reporting the elapsed
// duration to a histogram.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer, starting now.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the elapsed duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// ObserveDurationVec records the elapsed duration to a histogram vec with
// the given label values.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
