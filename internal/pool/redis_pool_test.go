package pool

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/fakeNetflix/dyno/internal/model"
)

func TestRedisPoolInactiveBorrow(t *testing.T) {
	host := model.NewHost("host-1", 6379, "rack-1a", "dc-1", model.StatusUp)
	p := NewRedisPool(host, RedisConfig{}, zap.NewNop())
	defer p.Close()

	p.MarkActive(false)
	assert.False(t, p.IsActive())

	_, err := p.Borrow(context.Background())
	assert.ErrorIs(t, err, ErrPoolInactive)
}

func TestRedisPoolBorrowExpiredDeadline(t *testing.T) {
	host := model.NewHost("host-1", 6379, "rack-1a", "dc-1", model.StatusUp)
	p := NewRedisPool(host, RedisConfig{}, zap.NewNop())
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Borrow(ctx)
	assert.ErrorIs(t, err, ErrPoolTimeout)
}

func TestRedisPoolCloseDeactivates(t *testing.T) {
	host := model.NewHost("host-1", 6379, "rack-1a", "dc-1", model.StatusUp)
	p := NewRedisPool(host, RedisConfig{}, zap.NewNop())

	assert.True(t, p.IsActive())
	assert.NoError(t, p.Close())
	assert.False(t, p.IsActive())
}
