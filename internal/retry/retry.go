// Package retry provides the retry policies consumed by the routing
// core. The core only reads the current attempt count to offset replica
// selection; advancing the count between attempts is the caller's job.
package retry

import "sync/atomic"

// Policy tracks retry attempts for a single logical operation
type Policy interface {
	// AttemptCount returns the number of recorded failures so far;
	// 0 means the first attempt
	AttemptCount() int
	// RecordFailure notes a failed attempt, advancing the count
	RecordFailure(err error)
	// AllowRetry reports whether another attempt may be made
	AllowRetry() bool
}

// RunOnce never retries
type RunOnce struct {
	attempts atomic.Int32
}

// NewRunOnce creates a single-attempt policy
func NewRunOnce() *RunOnce {
	return &RunOnce{}
}

// AttemptCount returns the number of recorded failures
func (p *RunOnce) AttemptCount() int { return int(p.attempts.Load()) }

// RecordFailure notes the failed attempt
func (p *RunOnce) RecordFailure(err error) { p.attempts.Add(1) }

// AllowRetry always reports false
func (p *RunOnce) AllowRetry() bool { return false }

// RetryNTimes allows up to n retries after the initial attempt. When
// crossRack is set, retries are expected to land on a different rack:
// the selection layer offsets the replica index by the attempt count.
type RetryNTimes struct {
	n         int
	crossRack bool
	attempts  atomic.Int32
}

// NewRetryNTimes creates a bounded retry policy
func NewRetryNTimes(n int, crossRack bool) *RetryNTimes {
	return &RetryNTimes{n: n, crossRack: crossRack}
}

// AttemptCount returns the number of recorded failures
func (p *RetryNTimes) AttemptCount() int { return int(p.attempts.Load()) }

// RecordFailure notes a failed attempt
func (p *RetryNTimes) RecordFailure(err error) { p.attempts.Add(1) }

// AllowRetry reports whether the attempt budget remains
func (p *RetryNTimes) AllowRetry() bool { return int(p.attempts.Load()) <= p.n }

// AllowCrossRack reports whether retries may leave the local rack
func (p *RetryNTimes) AllowCrossRack() bool { return p.crossRack }
