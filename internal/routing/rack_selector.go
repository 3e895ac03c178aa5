package routing

import (
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/fakeNetflix/dyno/internal/pool"
)

// RackPoolSelector round-robins over one rack's connection pools,
// skipping pools that are inactive or whose host is Down. The cursor is
// advanced with an atomic increment so concurrent selectors spread load
// without a lock. Selectors are built for every rack observed in the
// topology, remote racks included: those serve as fallback pools.
type RackPoolSelector struct {
	rack   string
	pools  []pool.HostConnectionPool
	cursor atomic.Uint64
}

// NewRackPoolSelector creates a selector over the given pools. The
// member order is fixed (sorted by host identity) so iteration is
// deterministic across processes.
func NewRackPoolSelector(rack string, pools []pool.HostConnectionPool) *RackPoolSelector {
	sorted := make([]pool.HostConnectionPool, len(pools))
	copy(sorted, pools)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Host().Key() < sorted[j].Host().Key()
	})
	return &RackPoolSelector{rack: rack, pools: sorted}
}

// Rack returns the rack this selector serves
func (s *RackPoolSelector) Rack() string {
	return s.rack
}

// Pools returns the member pools in their fixed order
func (s *RackPoolSelector) Pools() []pool.HostConnectionPool {
	return s.pools
}

// Next returns the next active pool in round-robin order, or
// ErrNoActiveHost when every member is inactive or Down
func (s *RackPoolSelector) Next() (pool.HostConnectionPool, error) {
	candidates := s.NextCandidates()
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: rack %s", ErrNoActiveHost, s.rack)
	}
	return candidates[0], nil
}

// NextCandidates returns every currently selectable pool ordered for
// fallback, starting at the advanced round-robin offset. The cursor is
// bumped exactly once per call so repeated requests spread over the
// active members.
func (s *RackPoolSelector) NextCandidates() []pool.HostConnectionPool {
	n := len(s.pools)
	if n == 0 {
		return nil
	}
	start := int(s.cursor.Add(1) % uint64(n))
	candidates := make([]pool.HostConnectionPool, 0, n)
	for i := 0; i < n; i++ {
		p := s.pools[(start+i)%n]
		if isSelectable(p) {
			candidates = append(candidates, p)
		}
	}
	return candidates
}

// isSelectable requires both connection-level and host-level health:
// a pool can be inactive while its host is nominally Up, and vice versa
func isSelectable(p pool.HostConnectionPool) bool {
	return p.IsActive() && p.Host().IsUp()
}
