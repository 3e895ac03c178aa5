package algorithm

import (
	"sort"

	"github.com/fakeNetflix/dyno/internal/model"
)

// ReplicaSet is the group of hosts sharing one token value. Its size
// (after deduplicating by host identity) is the replication factor.
type ReplicaSet struct {
	Token uint64
	Hosts []*model.Host

	byRack map[string][]*model.Host
}

// HostsInRack returns the replica hosts placed in the given rack
func (r *ReplicaSet) HostsInRack(rack string) []*model.Host {
	return r.byRack[rack]
}

// TokenRing is the immutable token-to-hosts assignment for one topology
// epoch. It is rebuilt wholesale on every membership change and never
// mutated in place, so concurrent readers need no locking.
type TokenRing struct {
	tokens []uint64
	sets   map[uint64]*ReplicaSet
}

// NewTokenRing groups token assignments into replica sets and indexes
// each set by rack. Duplicate (token, host) pairs collapse to one entry.
func NewTokenRing(hostTokens []model.HostToken) *TokenRing {
	sets := make(map[uint64]*ReplicaSet)
	seen := make(map[uint64]map[string]bool)

	for _, ht := range hostTokens {
		set, ok := sets[ht.Token]
		if !ok {
			set = &ReplicaSet{
				Token:  ht.Token,
				byRack: make(map[string][]*model.Host),
			}
			sets[ht.Token] = set
			seen[ht.Token] = make(map[string]bool)
		}
		hostKey := ht.Host.Key()
		if seen[ht.Token][hostKey] {
			continue
		}
		seen[ht.Token][hostKey] = true
		set.Hosts = append(set.Hosts, ht.Host)
		set.byRack[ht.Host.Rack] = append(set.byRack[ht.Host.Rack], ht.Host)
	}

	tokens := make([]uint64, 0, len(sets))
	for token := range sets {
		tokens = append(tokens, token)
	}
	sort.Slice(tokens, func(i, j int) bool { return tokens[i] < tokens[j] })

	// Fixed intra-set order keeps fallback iteration deterministic
	for _, set := range sets {
		sort.Slice(set.Hosts, func(i, j int) bool {
			a, b := set.Hosts[i], set.Hosts[j]
			if a.Rack != b.Rack {
				return a.Rack < b.Rack
			}
			return a.Key() < b.Key()
		})
	}

	return &TokenRing{tokens: tokens, sets: sets}
}

// Size returns the number of distinct tokens on the ring
func (r *TokenRing) Size() int {
	return len(r.tokens)
}

// IsEmpty reports whether the ring has no tokens
func (r *TokenRing) IsEmpty() bool {
	return len(r.tokens) == 0
}

// Tokens returns the distinct token values in ascending order
func (r *TokenRing) Tokens() []uint64 {
	return r.tokens
}

// OwnerToken returns the token owning the given hashed key: the smallest
// token >= hash, wrapping to the smallest token overall when hash exceeds
// the ring maximum.
func (r *TokenRing) OwnerToken(hash uint64) (uint64, bool) {
	if len(r.tokens) == 0 {
		return 0, false
	}
	idx := sort.Search(len(r.tokens), func(i int) bool {
		return r.tokens[i] >= hash
	})
	if idx == len(r.tokens) {
		idx = 0
	}
	return r.tokens[idx], true
}

// ReplicaSetFor returns the replica set holding the given token value
func (r *TokenRing) ReplicaSetFor(token uint64) (*ReplicaSet, bool) {
	set, ok := r.sets[token]
	return set, ok
}

// AllReplicaSets returns every replica set in ascending token order,
// one per distinct ring position. Used for fan-out queries.
func (r *TokenRing) AllReplicaSets() []*ReplicaSet {
	out := make([]*ReplicaSet, 0, len(r.tokens))
	for _, token := range r.tokens {
		out = append(out, r.sets[token])
	}
	return out
}
