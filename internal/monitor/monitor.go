package monitor

import "sync/atomic"

// ConnectionPoolMonitor records routing outcomes. Passed explicitly into
// the routing core; there is no ambient global monitor.
type ConnectionPoolMonitor interface {
	// RecordFailover counts a fallback selection: a non-preferred host
	// was chosen because the preferred one was unavailable or a retry
	// forced a different replica
	RecordFailover()
	// FailoverCount returns the number of fallback selections so far
	FailoverCount() int64
	// RecordOperationSuccess counts a successfully routed request
	RecordOperationSuccess()
	// RecordOperationFailure counts a request that could not be routed
	RecordOperationFailure()
}

// CountingMonitor is the basic in-memory monitor backed by atomics
type CountingMonitor struct {
	failovers atomic.Int64
	successes atomic.Int64
	failures  atomic.Int64
}

// NewCountingMonitor creates a zeroed counting monitor
func NewCountingMonitor() *CountingMonitor {
	return &CountingMonitor{}
}

// RecordFailover counts a fallback selection
func (m *CountingMonitor) RecordFailover() { m.failovers.Add(1) }

// FailoverCount returns the number of fallback selections so far
func (m *CountingMonitor) FailoverCount() int64 { return m.failovers.Load() }

// RecordOperationSuccess counts a successfully routed request
func (m *CountingMonitor) RecordOperationSuccess() { m.successes.Add(1) }

// RecordOperationFailure counts a request that could not be routed
func (m *CountingMonitor) RecordOperationFailure() { m.failures.Add(1) }

// OperationSuccessCount returns the number of successfully routed requests
func (m *CountingMonitor) OperationSuccessCount() int64 { return m.successes.Load() }

// OperationFailureCount returns the number of requests that failed to route
func (m *CountingMonitor) OperationFailureCount() int64 { return m.failures.Load() }
