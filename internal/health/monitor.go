// Package health flips host and pool liveness from a background probing
// loop. The routing core never probes; it only reads the atomic flags
// this monitor maintains.
package health

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fakeNetflix/dyno/internal/model"
	"github.com/fakeNetflix/dyno/internal/pool"
)

// ProbeablePool is a connection pool the monitor can probe and flip
type ProbeablePool interface {
	pool.HostConnectionPool
	// Ping checks the backend within the context deadline
	Ping(ctx context.Context) error
	// MarkActive flips the pool's active flag
	MarkActive(active bool)
}

// Config holds health monitor settings
type Config struct {
	// ProbeInterval is the delay between full probe rounds
	ProbeInterval time.Duration
	// ProbeTimeout bounds each individual probe
	ProbeTimeout time.Duration
	// ProbesPerSecond rate-limits probes so a large topology does not
	// burst the backends every round
	ProbesPerSecond float64
	// Burst is the probe limiter's burst size
	Burst int
	// FailureThreshold is the number of consecutive probe failures
	// before a host is marked Down
	FailureThreshold int
}

// Monitor probes every pool on a schedule and flips host status and
// pool active flags. Selection paths observe the flips through atomic
// reads; the monitor never blocks them.
type Monitor struct {
	pools    []ProbeablePool
	cfg      Config
	limiter  *rate.Limiter
	failures map[string]int
	logger   *zap.Logger
	stopCh   chan struct{}
}

// NewMonitor creates a monitor over the given pools
func NewMonitor(pools []ProbeablePool, cfg Config, logger *zap.Logger) *Monitor {
	if cfg.ProbeInterval <= 0 {
		cfg.ProbeInterval = 10 * time.Second
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = 2 * time.Second
	}
	if cfg.ProbesPerSecond <= 0 {
		cfg.ProbesPerSecond = 20
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 5
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 3
	}
	return &Monitor{
		pools:    pools,
		cfg:      cfg,
		limiter:  rate.NewLimiter(rate.Limit(cfg.ProbesPerSecond), cfg.Burst),
		failures: make(map[string]int),
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

// Start runs the probe loop until the context is canceled or Stop is
// called. Intended to run in its own goroutine.
func (m *Monitor) Start(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.ProbeInterval)
	defer ticker.Stop()

	m.probeAll(ctx)

	for {
		select {
		case <-ticker.C:
			m.probeAll(ctx)
		case <-m.stopCh:
			m.logger.Info("Health monitor stopped")
			return
		case <-ctx.Done():
			m.logger.Info("Health monitor stopped")
			return
		}
	}
}

// Stop terminates the probe loop
func (m *Monitor) Stop() {
	close(m.stopCh)
}

// probeAll probes every pool once, under the rate limiter
func (m *Monitor) probeAll(ctx context.Context) {
	for _, p := range m.pools {
		if err := m.limiter.Wait(ctx); err != nil {
			return
		}
		m.probe(ctx, p)
	}
}

func (m *Monitor) probe(ctx context.Context, p ProbeablePool) {
	host := p.Host()
	probeCtx, cancel := context.WithTimeout(ctx, m.cfg.ProbeTimeout)
	defer cancel()

	if err := p.Ping(probeCtx); err != nil {
		m.failures[host.Key()]++
		m.logger.Warn("Health probe failed",
			zap.String("host", host.Key()),
			zap.Int("consecutive_failures", m.failures[host.Key()]),
			zap.Error(err))
		if m.failures[host.Key()] >= m.cfg.FailureThreshold {
			m.markDown(p)
		}
		return
	}

	m.failures[host.Key()] = 0
	m.markUp(p)
}

func (m *Monitor) markDown(p ProbeablePool) {
	host := p.Host()
	if host.IsUp() {
		m.logger.Error("Marking host down", zap.String("host", host.Key()))
	}
	p.MarkActive(false)
	host.SetStatus(model.StatusDown)
}

func (m *Monitor) markUp(p ProbeablePool) {
	host := p.Host()
	if !host.IsUp() {
		m.logger.Info("Marking host up", zap.String("host", host.Key()))
	}
	p.MarkActive(true)
	host.SetStatus(model.StatusUp)
}
