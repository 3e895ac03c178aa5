package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/fakeNetflix/dyno/internal/model"
)

func testGossip(onChange func()) (*Gossip, *model.Host) {
	h := model.NewHost("host-1", 8102, "rack-1a", "dc-1", model.StatusUp)
	g := &Gossip{
		hosts:    map[string]*model.Host{h.Key(): h},
		onChange: onChange,
		logger:   zap.NewNop(),
	}
	return g, h
}

func TestNotifyFlipsStatus(t *testing.T) {
	changes := 0
	g, h := testGossip(func() { changes++ })

	g.notify("host-1:8102", model.StatusDown)
	assert.False(t, h.IsUp())
	assert.Equal(t, 1, changes)

	g.notify("host-1:8102", model.StatusUp)
	assert.True(t, h.IsUp())
	assert.Equal(t, 2, changes)
}

func TestNotifySkipsNoopTransitions(t *testing.T) {
	changes := 0
	g, h := testGossip(func() { changes++ })

	g.notify("host-1:8102", model.StatusUp)
	assert.True(t, h.IsUp())
	assert.Equal(t, 0, changes)
}

func TestNotifyIgnoresUnknownMembers(t *testing.T) {
	changes := 0
	g, h := testGossip(func() { changes++ })

	g.notify("stranger:9999", model.StatusDown)
	assert.True(t, h.IsUp())
	assert.Equal(t, 0, changes)
}
