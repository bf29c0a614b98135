// Package metrics exports model operation counters and latencies to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder implements model.Observer.
type Recorder struct {
	ops      *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewRecorder creates a Recorder and registers its collectors with reg.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		ops: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bmc_operations_total",
				Help: "Total number of model operations by entity, operation and result.",
			},
			[]string{"entity", "op", "result"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bmc_operation_duration_seconds",
				Help:    "Model operation latency in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"entity", "op"},
		),
	}

	for _, c := range []prometheus.Collector{r.ops, r.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Recorder) Observe(entity, op, result string, elapsed time.Duration) {
	r.ops.WithLabelValues(entity, op, result).Inc()
	r.duration.WithLabelValues(entity, op).Observe(elapsed.Seconds())
}
