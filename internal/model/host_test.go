package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHostKey(t *testing.T) {
	h := NewHost("host-1", 8102, "rack-1a", "dc-1", StatusUp)
	assert.Equal(t, "host-1:8102", h.Key())
}

func TestHostStatusFlips(t *testing.T) {
	h := NewHost("host-1", 8102, "rack-1a", "dc-1", StatusUp)
	assert.True(t, h.IsUp())
	assert.Equal(t, StatusUp, h.Status())

	h.SetStatus(StatusDown)
	assert.False(t, h.IsUp())
	assert.Equal(t, "down", h.Status().String())
}

func TestHostEqualsIgnoresPlacement(t *testing.T) {
	a := NewHost("host-1", 8102, "rack-1a", "dc-1", StatusUp)
	b := NewHost("host-1", 8102, "rack-1b", "dc-2", StatusDown)
	c := NewHost("host-1", 8103, "rack-1a", "dc-1", StatusUp)

	assert.True(t, a.Equals(b))
	assert.False(t, a.Equals(c))
	assert.False(t, a.Equals(nil))
}

func TestKeyedOperation(t *testing.T) {
	op := NewOperation("get", "some-key")
	assert.Equal(t, "get", op.Name())
	assert.Equal(t, "some-key", op.Key())
	assert.Equal(t, []byte("some-key"), op.BinaryKey())

	keyless := NewOperation("ping", "")
	assert.Nil(t, keyless.BinaryKey())
}
