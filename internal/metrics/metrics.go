package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	recalcRuns = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "soukly_recalc_runs_total",
			Help: "Completed batch recalculation runs.",
		},
	)
	recalcProducts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "soukly_recalc_products_total",
			Help: "Products processed by the recalculation engine.",
		},
		[]string{"result"}, // updated | errored
	)
	recalcDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "soukly_recalc_run_duration_seconds",
			Help:    "Histogram of batch recalculation run durations.",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300},
		},
	)
)

func init() {
	prometheus.MustRegister(recalcRuns, recalcProducts, recalcDuration)
}

func RecordRun(updated, errored int, duration time.Duration) {
	recalcRuns.Inc()
	recalcProducts.WithLabelValues("updated").Add(float64(updated))
	recalcProducts.WithLabelValues("errored").Add(float64(errored))
	recalcDuration.Observe(duration.Seconds())
}
