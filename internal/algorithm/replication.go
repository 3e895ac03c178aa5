package algorithm

import (
	"fmt"

	"github.com/fakeNetflix/dyno/internal/model"
)

// CalculateReplicationFactor derives the cluster's replication factor
// from the observed token assignments. Tokens are grouped by value and
// deduplicated by host identity within each group; every group must
// report the same replica count or the topology is rejected. Rack and
// datacenter placement are deliberately ignored: RF is a global property
// of the ring.
//
// An empty token list yields RF 0 with no error; the caller decides
// whether that is fatal for its use of the ring.
func CalculateReplicationFactor(hostTokens []model.HostToken) (int, error) {
	if len(hostTokens) == 0 {
		return 0, nil
	}

	replicas := make(map[uint64]map[string]bool)
	for _, ht := range hostTokens {
		hosts, ok := replicas[ht.Token]
		if !ok {
			hosts = make(map[string]bool)
			replicas[ht.Token] = hosts
		}
		hosts[ht.Host.Key()] = true
	}

	rf := -1
	for token, hosts := range replicas {
		if rf == -1 {
			rf = len(hosts)
			continue
		}
		if len(hosts) != rf {
			return 0, fmt.Errorf("%w: token %d has %d replicas, expected %d",
				ErrInvalidTopology, token, len(hosts), rf)
		}
	}

	return rf, nil
}
