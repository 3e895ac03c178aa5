// Package routing implements the host-selection-with-fallback engine:
// given an operation and a deadline it picks exactly one live connection
// pool, applying rack locality, token-aware key routing, and health-aware
// fallback across racks and replicas.
package routing

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fakeNetflix/dyno/internal/algorithm"
	"github.com/fakeNetflix/dyno/internal/model"
	"github.com/fakeNetflix/dyno/internal/monitor"
	"github.com/fakeNetflix/dyno/internal/pool"
	"github.com/fakeNetflix/dyno/internal/retry"
	"github.com/fakeNetflix/dyno/internal/topology"
)

// Strategy selects the load-balancing algorithm
type Strategy string

const (
	// StrategyRoundRobin spreads requests over the local rack's active
	// pools, falling back to remote racks when the local rack is out
	StrategyRoundRobin Strategy = "round_robin"
	// StrategyTokenAware routes by the operation's key to the replica
	// set owning its ring position, preferring the local-rack replica
	StrategyTokenAware Strategy = "token_aware"
)

// Options configures the routing core
type Options struct {
	Strategy        Strategy
	LocalRack       string
	LocalDatacenter string
	TokenSupplier   topology.TokenMapSupplier
	Hash            algorithm.HashFunction
	// RequireCompleteRing makes GetConnectionsToRing fail when any ring
	// position has no active host instead of omitting that position
	RequireCompleteRing bool
}

// HostSelectionWithFallback is the routing core. It owns the atomic
// topology snapshot and answers every selection query against it; host
// and pool health flips arrive from the health-monitoring path and are
// read atomically on the hot path without locks.
type HostSelectionWithFallback struct {
	opts    Options
	monitor monitor.ConnectionPoolMonitor
	logger  *zap.Logger

	snapshot  atomic.Pointer[topologySnapshot]
	rebuildMu sync.Mutex
}

// NewHostSelectionWithFallback creates the routing core. The monitor is
// an explicit dependency; there is no ambient global.
func NewHostSelectionWithFallback(opts Options, mon monitor.ConnectionPoolMonitor, logger *zap.Logger) *HostSelectionWithFallback {
	if opts.Strategy == "" {
		opts.Strategy = StrategyRoundRobin
	}
	if opts.Hash == nil {
		opts.Hash = algorithm.NewXXHash()
	}
	if mon == nil {
		mon = monitor.NewCountingMonitor()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HostSelectionWithFallback{
		opts:    opts,
		monitor: mon,
		logger:  logger,
	}
}

// InitWithHosts rebuilds the topology from the given pools and publishes
// it atomically. Safe to call repeatedly on membership changes: the
// rebuild is all-or-nothing, and on any error the previous snapshot
// stays in effect. Concurrent rebuilds are serialized, last writer wins.
func (s *HostSelectionWithFallback) InitWithHosts(ctx context.Context, pools map[*model.Host]pool.HostConnectionPool) error {
	s.rebuildMu.Lock()
	defer s.rebuildMu.Unlock()

	hosts := make([]*model.Host, 0, len(pools))
	hostsByKey := make(map[string]*model.Host, len(pools))
	poolsByHost := make(map[string]pool.HostConnectionPool, len(pools))
	byRack := make(map[string][]pool.HostConnectionPool)
	for h, p := range pools {
		hosts = append(hosts, h)
		hostsByKey[h.Key()] = h
		poolsByHost[h.Key()] = p
		byRack[h.Rack] = append(byRack[h.Rack], p)
	}

	tokens, err := s.opts.TokenSupplier.GetTokens(ctx, hosts)
	if err != nil {
		return fmt.Errorf("failed to fetch token map: %w", err)
	}

	// Re-key token assignments onto the pool hosts so the ring shares
	// the exact Host objects whose status the health monitor flips
	canonical := make([]model.HostToken, 0, len(tokens))
	for _, ht := range tokens {
		if h, ok := hostsByKey[ht.Host.Key()]; ok {
			canonical = append(canonical, model.NewHostToken(ht.Token, h))
		}
	}
	if len(pools) > 0 && len(canonical) == 0 {
		return fmt.Errorf("%w: token supplier returned no assignments for %d hosts",
			algorithm.ErrInvalidTopology, len(pools))
	}

	rf, err := algorithm.CalculateReplicationFactor(canonical)
	if err != nil {
		return err
	}
	ring := algorithm.NewTokenRing(canonical)

	rackSelectors := make(map[string]*RackPoolSelector, len(byRack))
	var remotePools []pool.HostConnectionPool
	var remoteRacks []string
	for rack, rackPools := range byRack {
		rackSelectors[rack] = NewRackPoolSelector(rack, rackPools)
		if s.opts.LocalRack != "" && rack != s.opts.LocalRack {
			remoteRacks = append(remoteRacks, rack)
			remotePools = append(remotePools, rackPools...)
		}
	}
	sort.Strings(remoteRacks)

	var localSelector *RackPoolSelector
	if s.opts.LocalRack == "" {
		// No locality configured: treat the whole cluster as local
		all := make([]pool.HostConnectionPool, 0, len(pools))
		for _, p := range poolsByHost {
			all = append(all, p)
		}
		localSelector = NewRackPoolSelector("", all)
	} else if sel, ok := rackSelectors[s.opts.LocalRack]; ok {
		localSelector = sel
	}

	var remoteSelector *RackPoolSelector
	if len(remotePools) > 0 {
		remoteSelector = NewRackPoolSelector("remote", remotePools)
	}

	snap := &topologySnapshot{
		localRack:         s.opts.LocalRack,
		localDatacenter:   s.opts.LocalDatacenter,
		localSelector:     localSelector,
		remoteSelector:    remoteSelector,
		rackSelectors:     rackSelectors,
		remoteRacks:       remoteRacks,
		poolsByHost:       poolsByHost,
		hostsByKey:        hostsByKey,
		ring:              ring,
		replicationFactor: rf,
	}
	s.snapshot.Store(snap)

	s.logger.Info("Topology published",
		zap.Int("hosts", len(pools)),
		zap.Int("racks", len(rackSelectors)),
		zap.Int("tokens", ring.Size()),
		zap.Int("replication_factor", rf),
		zap.String("local_rack", s.opts.LocalRack))

	return nil
}

// ReplicationFactor returns the RF derived from the current topology,
// or 0 before initialization
func (s *HostSelectionWithFallback) ReplicationFactor() int {
	snap := s.snapshot.Load()
	if snap == nil {
		return 0
	}
	return snap.replicationFactor
}

// GetConnection selects one live pool per the configured strategy and
// borrows a connection from it. The context deadline is an absolute
// bound covering selection, any fallback hops, and the borrow itself.
func (s *HostSelectionWithFallback) GetConnection(ctx context.Context, op model.Operation) (pool.Connection, error) {
	conn, err := s.getConnection(ctx, op, 0)
	s.recordOutcome(err)
	return conn, err
}

// GetConnectionUsingRetryPolicy behaves like GetConnection on the first
// attempt; once the policy has recorded failures, the candidate index
// into the replica set is offset by the attempt count, forcing a
// different host (typically a different rack) on every retry. The
// policy's count is only read here; the caller advances it between
// attempts via RecordFailure.
func (s *HostSelectionWithFallback) GetConnectionUsingRetryPolicy(ctx context.Context, op model.Operation, policy retry.Policy) (pool.Connection, error) {
	attempt := 0
	if policy != nil {
		attempt = policy.AttemptCount()
	}
	conn, err := s.getConnection(ctx, op, attempt)
	s.recordOutcome(err)
	return conn, err
}

func (s *HostSelectionWithFallback) recordOutcome(err error) {
	if err != nil {
		s.monitor.RecordOperationFailure()
	} else {
		s.monitor.RecordOperationSuccess()
	}
}

func (s *HostSelectionWithFallback) getConnection(ctx context.Context, op model.Operation, attempt int) (pool.Connection, error) {
	snap := s.snapshot.Load()
	if snap == nil {
		return nil, ErrNotInitialized
	}

	keyed := op != nil && op.Key() != ""
	if keyed && (s.opts.Strategy == StrategyTokenAware || attempt > 0) {
		return s.tokenAware(ctx, snap, op, attempt)
	}
	return s.roundRobin(ctx, snap)
}

// roundRobin walks the local rack's active pools in round-robin order,
// then falls back to the merged remote pool. A fallback to remote racks
// counts one failover.
func (s *HostSelectionWithFallback) roundRobin(ctx context.Context, snap *topologySnapshot) (pool.Connection, error) {
	var lastErr error

	if snap.localSelector != nil {
		for _, p := range snap.localSelector.NextCandidates() {
			conn, err := s.borrow(ctx, p)
			if err == nil {
				return conn, nil
			}
			if errors.Is(err, pool.ErrPoolTimeout) {
				return nil, err
			}
			lastErr = err
		}
	}

	if snap.remoteSelector != nil {
		candidates := snap.remoteSelector.NextCandidates()
		if len(candidates) > 0 {
			s.monitor.RecordFailover()
		}
		for _, p := range candidates {
			conn, err := s.borrow(ctx, p)
			if err == nil {
				return conn, nil
			}
			if errors.Is(err, pool.ErrPoolTimeout) {
				return nil, err
			}
			lastErr = err
		}
	}

	if lastErr != nil {
		return nil, lastErr
	}
	return nil, fmt.Errorf("%w: every pool in every rack is inactive", ErrNoActiveHost)
}

// tokenAware hashes the operation's key to a ring position and walks the
// owning replica set from the candidate at the attempt offset, in the
// deterministic local-first, rack-name order.
func (s *HostSelectionWithFallback) tokenAware(ctx context.Context, snap *topologySnapshot, op model.Operation, attempt int) (pool.Connection, error) {
	var hash uint64
	if bk := op.BinaryKey(); bk != nil {
		hash = s.opts.Hash.Hash(bk)
	} else {
		hash = s.opts.Hash.HashString(op.Key())
	}

	token, ok := snap.ring.OwnerToken(hash)
	if !ok {
		return nil, fmt.Errorf("%w: ring is empty", ErrNoActiveHost)
	}
	set, _ := snap.ring.ReplicaSetFor(token)
	return s.connectionForReplicaSet(ctx, snap, set, attempt)
}

// connectionForReplicaSet selects one connection within a replica set,
// preferring the candidate at the attempt offset and falling back along
// the deterministic order. Selecting any candidate other than the
// attempt-0 local preference counts exactly one failover.
func (s *HostSelectionWithFallback) connectionForReplicaSet(ctx context.Context, snap *topologySnapshot, set *algorithm.ReplicaSet, attempt int) (pool.Connection, error) {
	candidates := snap.replicaCandidates(set)
	n := len(candidates)
	if n == 0 {
		return nil, fmt.Errorf("%w: no pools for ring position", ErrNoActiveHost)
	}

	start := attempt % n
	failoverRecorded := false
	var lastErr error

	for i := 0; i < n; i++ {
		idx := (start + i) % n
		p := candidates[idx]
		if !isSelectable(p) {
			continue
		}
		if (idx != 0 || attempt > 0) && !failoverRecorded {
			s.monitor.RecordFailover()
			failoverRecorded = true
		}
		conn, err := s.borrow(ctx, p)
		if err == nil {
			return conn, nil
		}
		if errors.Is(err, pool.ErrPoolTimeout) {
			return nil, err
		}
		lastErr = err
	}

	if lastErr != nil {
		return nil, lastErr
	}
	if set != nil {
		return nil, fmt.Errorf("%w: token %d has no active replica", ErrNoActiveHost, set.Token)
	}
	return nil, ErrNoActiveHost
}

// GetConnectionsToRing selects exactly one connection per distinct ring
// position, applying the same local-preferred rule as token-aware
// single-key routing. Positions whose replica set has no active host are
// omitted unless RequireCompleteRing is set, in which case the whole
// call fails. Borrows run concurrently under the shared deadline; on
// error every already-borrowed connection is returned to its pool.
func (s *HostSelectionWithFallback) GetConnectionsToRing(ctx context.Context) ([]pool.Connection, error) {
	snap := s.snapshot.Load()
	if snap == nil {
		return nil, ErrNotInitialized
	}

	sets := snap.ring.AllReplicaSets()
	conns := make([]pool.Connection, 0, len(sets))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, set := range sets {
		set := set
		g.Go(func() error {
			conn, err := s.connectionForReplicaSet(gctx, snap, set, 0)
			if err != nil {
				if errors.Is(err, ErrNoActiveHost) && !s.opts.RequireCompleteRing {
					s.logger.Warn("Skipping ring position with no active replica",
						zap.Uint64("token", set.Token))
					return nil
				}
				return err
			}
			mu.Lock()
			conns = append(conns, conn)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		for _, c := range conns {
			_ = c.Close()
		}
		s.monitor.RecordOperationFailure()
		return nil, err
	}

	s.monitor.RecordOperationSuccess()
	return conns, nil
}

// borrow checks out a connection, honoring the absolute deadline
func (s *HostSelectionWithFallback) borrow(ctx context.Context, p pool.HostConnectionPool) (pool.Connection, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s", pool.ErrPoolTimeout, p.Host().Key())
	}
	return p.Borrow(ctx)
}
