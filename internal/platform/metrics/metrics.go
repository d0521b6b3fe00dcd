package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors shared by registry services.
type Metrics struct {
	Operations *prometheus.CounterVec
	Conflicts  prometheus.Counter
	Duration   *prometheus.HistogramVec
}

// New creates and registers all collectors on the default registry.
func New() *Metrics {
	return &Metrics{
		Operations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "landledger_operations_total",
			Help: "Ledger operations by name and result",
		}, []string{"operation", "result"}),
		Conflicts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "landledger_write_conflicts_total",
			Help: "Optimistic-concurrency write rejections",
		}),
		Duration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "landledger_operation_duration_seconds",
			Help:    "Ledger operation latency",
			Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),
	}
}

// Observe records one operation outcome. Safe on a nil receiver so services
// can run without metrics in tests.
func (m *Metrics) Observe(operation string, start time.Time, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.Operations.WithLabelValues(operation, result).Inc()
	m.Duration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// IncConflict counts a rejected compare-and-swap write.
func (m *Metrics) IncConflict() {
	if m == nil {
		return
	}
	m.Conflicts.Inc()
}
