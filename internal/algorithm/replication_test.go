package algorithm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fakeNetflix/dyno/internal/model"
)

func host(name, rack string) *model.Host {
	return model.NewHost(name, 8102, rack, "dc-1", model.StatusUp)
}

func TestReplicationFactorOne(t *testing.T) {
	tokens := []model.HostToken{
		model.NewHostToken(100, host("host-1", "rack-1a")),
		model.NewHostToken(200, host("host-2", "rack-1a")),
		model.NewHostToken(300, host("host-3", "rack-1a")),
	}

	rf, err := CalculateReplicationFactor(tokens)
	require.NoError(t, err)
	assert.Equal(t, 1, rf)
}

func TestReplicationFactorThree(t *testing.T) {
	tokens := []model.HostToken{
		model.NewHostToken(100, host("host-1", "rack-1a")),
		model.NewHostToken(100, host("host-3", "rack-1b")),
		model.NewHostToken(100, host("host-5", "rack-1c")),
		model.NewHostToken(200, host("host-2", "rack-1a")),
		model.NewHostToken(200, host("host-4", "rack-1b")),
		model.NewHostToken(200, host("host-6", "rack-1c")),
	}

	rf, err := CalculateReplicationFactor(tokens)
	require.NoError(t, err)
	assert.Equal(t, 3, rf)
}

func TestReplicationFactorDeduplicatesHosts(t *testing.T) {
	h := host("host-1", "rack-1a")
	tokens := []model.HostToken{
		model.NewHostToken(100, h),
		model.NewHostToken(100, h),
		model.NewHostToken(100, host("host-2", "rack-1b")),
		model.NewHostToken(200, host("host-3", "rack-1a")),
		model.NewHostToken(200, host("host-4", "rack-1b")),
	}

	rf, err := CalculateReplicationFactor(tokens)
	require.NoError(t, err)
	assert.Equal(t, 2, rf)
}

func TestReplicationFactorUnequalSets(t *testing.T) {
	tokens := []model.HostToken{
		model.NewHostToken(100, host("host-1", "rack-1a")),
		model.NewHostToken(100, host("host-3", "rack-1b")),
		model.NewHostToken(200, host("host-2", "rack-1a")),
	}

	_, err := CalculateReplicationFactor(tokens)
	assert.ErrorIs(t, err, ErrInvalidTopology)
}

func TestReplicationFactorEmpty(t *testing.T) {
	rf, err := CalculateReplicationFactor(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, rf)
}
