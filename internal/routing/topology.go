package routing

import (
	"sort"

	"github.com/fakeNetflix/dyno/internal/algorithm"
	"github.com/fakeNetflix/dyno/internal/model"
	"github.com/fakeNetflix/dyno/internal/pool"
)

// topologySnapshot is the immutable bundle published by InitWithHosts.
// Concurrent selectors read whichever snapshot was current when their
// request started; a rebuild swaps the whole bundle atomically so no
// reader ever sees a rack map inconsistent with the ring.
type topologySnapshot struct {
	localRack       string
	localDatacenter string

	// localSelector serves the local rack; nil when the local rack has
	// no pools. With no local rack configured, every pool is local.
	localSelector *RackPoolSelector
	// remoteSelector round-robins over the union of all non-local
	// racks so fallback traffic spreads instead of pinning to one rack
	remoteSelector *RackPoolSelector

	rackSelectors map[string]*RackPoolSelector
	remoteRacks   []string

	poolsByHost map[string]pool.HostConnectionPool
	hostsByKey  map[string]*model.Host

	ring              *algorithm.TokenRing
	replicationFactor int
}

// replicaCandidates returns the pools for a replica set in the fixed
// fallback order: local-rack hosts first, then remote racks sorted by
// name, hosts within a rack by identity. The order depends only on the
// topology, so repeated calls under identical health are deterministic.
func (t *topologySnapshot) replicaCandidates(set *algorithm.ReplicaSet) []pool.HostConnectionPool {
	if set == nil {
		return nil
	}
	hosts := make([]*model.Host, len(set.Hosts))
	copy(hosts, set.Hosts)

	// set.Hosts is already sorted by (rack, identity); a stable sort
	// only needs to move the local rack to the front
	sort.SliceStable(hosts, func(i, j int) bool {
		li := hosts[i].Rack == t.localRack
		lj := hosts[j].Rack == t.localRack
		return li && !lj
	})

	candidates := make([]pool.HostConnectionPool, 0, len(hosts))
	for _, h := range hosts {
		if p, ok := t.poolsByHost[h.Key()]; ok {
			candidates = append(candidates, p)
		}
	}
	return candidates
}
