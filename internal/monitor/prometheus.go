package monitor

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMonitor exports routing outcomes as Prometheus metrics while
// keeping local atomics so FailoverCount stays readable in-process.
type PrometheusMonitor struct {
	failoversTotal  prometheus.Counter
	operationsTotal *prometheus.CounterVec

	failovers atomic.Int64
	successes atomic.Int64
	failures  atomic.Int64
}

// NewPrometheusMonitor creates and registers the routing metrics
func NewPrometheusMonitor() *PrometheusMonitor {
	return &PrometheusMonitor{
		failoversTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "dyno_router_failovers_total",
				Help: "Total number of fallback host selections",
			},
		),
		operationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dyno_router_operations_total",
				Help: "Total number of routed operations by outcome",
			},
			[]string{"status"},
		),
	}
}

// RecordFailover counts a fallback selection
func (m *PrometheusMonitor) RecordFailover() {
	m.failovers.Add(1)
	m.failoversTotal.Inc()
}

// FailoverCount returns the number of fallback selections so far
func (m *PrometheusMonitor) FailoverCount() int64 { return m.failovers.Load() }

// RecordOperationSuccess counts a successfully routed request
func (m *PrometheusMonitor) RecordOperationSuccess() {
	m.successes.Add(1)
	m.operationsTotal.WithLabelValues("success").Inc()
}

// RecordOperationFailure counts a request that could not be routed
func (m *PrometheusMonitor) RecordOperationFailure() {
	m.failures.Add(1)
	m.operationsTotal.WithLabelValues("error").Inc()
}
