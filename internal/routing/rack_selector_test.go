package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fakeNetflix/dyno/internal/model"
	"github.com/fakeNetflix/dyno/internal/pool"
)

func rackFixture() (*RackPoolSelector, map[string]*fakePool) {
	pools := make(map[string]*fakePool)
	members := make([]pool.HostConnectionPool, 0, 3)
	for _, name := range []string{"host-1", "host-2", "host-3"} {
		h := model.NewHost(name, 8102, "rack-1a", "dc-1", model.StatusUp)
		p := newFakePool(h)
		pools[name] = p
		members = append(members, p)
	}
	return NewRackPoolSelector("rack-1a", members), pools
}

func TestRackSelectorRoundRobins(t *testing.T) {
	sel, _ := rackFixture()

	seen := make(map[string]int)
	for i := 0; i < 9; i++ {
		p, err := sel.Next()
		require.NoError(t, err)
		seen[p.Host().Hostname]++
	}

	assert.Equal(t, 3, seen["host-1"])
	assert.Equal(t, 3, seen["host-2"])
	assert.Equal(t, 3, seen["host-3"])
}

func TestRackSelectorSkipsInactivePools(t *testing.T) {
	sel, pools := rackFixture()
	pools["host-2"].MarkActive(false)

	for i := 0; i < 6; i++ {
		p, err := sel.Next()
		require.NoError(t, err)
		assert.NotEqual(t, "host-2", p.Host().Hostname)
	}
}

func TestRackSelectorSkipsDownHosts(t *testing.T) {
	sel, pools := rackFixture()
	pools["host-1"].Host().SetStatus(model.StatusDown)
	pools["host-3"].Host().SetStatus(model.StatusDown)

	for i := 0; i < 4; i++ {
		p, err := sel.Next()
		require.NoError(t, err)
		assert.Equal(t, "host-2", p.Host().Hostname)
	}
}

func TestRackSelectorAllMembersOut(t *testing.T) {
	sel, pools := rackFixture()
	for _, p := range pools {
		p.MarkActive(false)
	}

	_, err := sel.Next()
	assert.ErrorIs(t, err, ErrNoActiveHost)
}

func TestRackSelectorCandidatesKeepFallbackOrder(t *testing.T) {
	sel, _ := rackFixture()

	candidates := sel.NextCandidates()
	require.Len(t, candidates, 3)

	// Every selectable member appears exactly once
	seen := make(map[string]bool)
	for _, p := range candidates {
		seen[p.Host().Key()] = true
	}
	assert.Len(t, seen, 3)
}

func TestRackSelectorEmpty(t *testing.T) {
	sel := NewRackPoolSelector("rack-1a", nil)
	assert.Nil(t, sel.NextCandidates())

	_, err := sel.Next()
	assert.ErrorIs(t, err, ErrNoActiveHost)
}
