package monitor

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCountingMonitor(t *testing.T) {
	m := NewCountingMonitor()

	m.RecordFailover()
	m.RecordFailover()
	m.RecordOperationSuccess()
	m.RecordOperationFailure()

	assert.EqualValues(t, 2, m.FailoverCount())
	assert.EqualValues(t, 1, m.OperationSuccessCount())
	assert.EqualValues(t, 1, m.OperationFailureCount())
}

func TestCountingMonitorConcurrent(t *testing.T) {
	m := NewCountingMonitor()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				m.RecordFailover()
				m.RecordOperationSuccess()
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 800, m.FailoverCount())
	assert.EqualValues(t, 800, m.OperationSuccessCount())
}
