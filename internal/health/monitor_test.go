package health

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/fakeNetflix/dyno/internal/model"
	"github.com/fakeNetflix/dyno/internal/pool"
)

type probePool struct {
	host    *model.Host
	active  atomic.Bool
	pingErr atomic.Pointer[error]
	pings   atomic.Int64
}

func newProbePool(name string) *probePool {
	p := &probePool{host: model.NewHost(name, 8102, "rack-1a", "dc-1", model.StatusUp)}
	p.active.Store(true)
	return p
}

func (p *probePool) setPingErr(err error) {
	if err == nil {
		p.pingErr.Store(nil)
		return
	}
	p.pingErr.Store(&err)
}

func (p *probePool) Host() *model.Host      { return p.host }
func (p *probePool) IsActive() bool         { return p.active.Load() }
func (p *probePool) MarkActive(active bool) { p.active.Store(active) }

func (p *probePool) Borrow(ctx context.Context) (pool.Connection, error) {
	return nil, pool.ErrPoolInactive
}

func (p *probePool) Ping(ctx context.Context) error {
	p.pings.Add(1)
	if e := p.pingErr.Load(); e != nil {
		return *e
	}
	return nil
}

func newTestMonitor(pools ...ProbeablePool) *Monitor {
	return NewMonitor(pools, Config{
		FailureThreshold: 2,
		ProbesPerSecond:  1000,
		Burst:            100,
	}, zap.NewNop())
}

func TestMonitorMarksDownAfterThreshold(t *testing.T) {
	p := newProbePool("host-1")
	p.setPingErr(errors.New("connection refused"))
	m := newTestMonitor(p)

	// First failure stays under the threshold
	m.probeAll(context.Background())
	assert.True(t, p.IsActive())
	assert.True(t, p.Host().IsUp())

	// Second consecutive failure crosses it
	m.probeAll(context.Background())
	assert.False(t, p.IsActive())
	assert.False(t, p.Host().IsUp())
}

func TestMonitorRecoversOnSuccess(t *testing.T) {
	p := newProbePool("host-1")
	p.setPingErr(errors.New("connection refused"))
	m := newTestMonitor(p)

	m.probeAll(context.Background())
	m.probeAll(context.Background())
	assert.False(t, p.Host().IsUp())

	p.setPingErr(nil)
	m.probeAll(context.Background())
	assert.True(t, p.IsActive())
	assert.True(t, p.Host().IsUp())
}

func TestMonitorSuccessResetsFailureCount(t *testing.T) {
	p := newProbePool("host-1")
	m := newTestMonitor(p)

	p.setPingErr(errors.New("boom"))
	m.probeAll(context.Background())

	p.setPingErr(nil)
	m.probeAll(context.Background())

	// One more failure must not cross the threshold of two
	p.setPingErr(errors.New("boom"))
	m.probeAll(context.Background())
	assert.True(t, p.Host().IsUp())
}

func TestMonitorProbesEveryPool(t *testing.T) {
	p1 := newProbePool("host-1")
	p2 := newProbePool("host-2")
	m := newTestMonitor(p1, p2)

	m.probeAll(context.Background())
	assert.EqualValues(t, 1, p1.pings.Load())
	assert.EqualValues(t, 1, p2.pings.Load())
}

func TestMonitorStopsOnCanceledContext(t *testing.T) {
	p := newProbePool("host-1")
	m := newTestMonitor(p)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// The limiter wait fails on a canceled context, so no probe runs
	m.probeAll(ctx)
	assert.EqualValues(t, 0, p.pings.Load())
}
