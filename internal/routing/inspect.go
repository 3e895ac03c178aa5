package routing

import (
	"fmt"
	"sort"

	"github.com/fakeNetflix/dyno/internal/model"
)

// HostInfo describes one host's health as seen by the router
type HostInfo struct {
	Hostname   string `json:"hostname"`
	Port       int    `json:"port"`
	Up         bool   `json:"up"`
	PoolActive bool   `json:"pool_active"`
}

// RackInfo describes one rack and its hosts
type RackInfo struct {
	Name  string     `json:"name"`
	Local bool       `json:"local"`
	Hosts []HostInfo `json:"hosts"`
}

// TokenInfo describes one ring position and its replica set
type TokenInfo struct {
	Token uint64   `json:"token"`
	Hosts []string `json:"hosts"`
}

// TopologyInfo is a read-only view of the current snapshot
type TopologyInfo struct {
	LocalRack         string      `json:"local_rack"`
	LocalDatacenter   string      `json:"local_datacenter"`
	ReplicationFactor int         `json:"replication_factor"`
	Racks             []RackInfo  `json:"racks"`
	Tokens            []TokenInfo `json:"tokens"`
}

// Topology returns a view of the current snapshot for inspection
func (s *HostSelectionWithFallback) Topology() (*TopologyInfo, error) {
	snap := s.snapshot.Load()
	if snap == nil {
		return nil, ErrNotInitialized
	}

	rackNames := make([]string, 0, len(snap.rackSelectors))
	for rack := range snap.rackSelectors {
		rackNames = append(rackNames, rack)
	}
	sort.Strings(rackNames)

	racks := make([]RackInfo, 0, len(rackNames))
	for _, rack := range rackNames {
		sel := snap.rackSelectors[rack]
		hosts := make([]HostInfo, 0, len(sel.Pools()))
		for _, p := range sel.Pools() {
			h := p.Host()
			hosts = append(hosts, HostInfo{
				Hostname:   h.Hostname,
				Port:       h.Port,
				Up:         h.IsUp(),
				PoolActive: p.IsActive(),
			})
		}
		racks = append(racks, RackInfo{
			Name:  rack,
			Local: rack == snap.localRack,
			Hosts: hosts,
		})
	}

	tokens := make([]TokenInfo, 0, snap.ring.Size())
	for _, set := range snap.ring.AllReplicaSets() {
		names := make([]string, 0, len(set.Hosts))
		for _, h := range set.Hosts {
			names = append(names, h.Key())
		}
		tokens = append(tokens, TokenInfo{Token: set.Token, Hosts: names})
	}

	return &TopologyInfo{
		LocalRack:         snap.localRack,
		LocalDatacenter:   snap.localDatacenter,
		ReplicationFactor: snap.replicationFactor,
		Racks:             racks,
		Tokens:            tokens,
	}, nil
}

// RouteKey resolves which host would serve the given key right now,
// without borrowing a connection
func (s *HostSelectionWithFallback) RouteKey(key string) (*model.Host, error) {
	snap := s.snapshot.Load()
	if snap == nil {
		return nil, ErrNotInitialized
	}

	hash := s.opts.Hash.HashString(key)
	token, ok := snap.ring.OwnerToken(hash)
	if !ok {
		return nil, fmt.Errorf("%w: ring is empty", ErrNoActiveHost)
	}
	set, _ := snap.ring.ReplicaSetFor(token)
	for _, p := range snap.replicaCandidates(set) {
		if isSelectable(p) {
			return p.Host(), nil
		}
	}
	return nil, fmt.Errorf("%w: token %d has no active replica", ErrNoActiveHost, token)
}
