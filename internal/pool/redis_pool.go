package pool

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fakeNetflix/dyno/internal/model"
)

// RedisConfig holds per-host Redis pool settings
type RedisConfig struct {
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
}

// RedisPool adapts a go-redis client to HostConnectionPool. The backend
// speaks the Redis protocol, so one client per host carries the actual
// socket pool; Borrow validates the checkout against the deadline and
// hands out a connection view bound to the host.
type RedisPool struct {
	host   *model.Host
	client *redis.Client
	active atomic.Bool
	logger *zap.Logger
}

// NewRedisPool creates an active pool for the given host
func NewRedisPool(host *model.Host, cfg RedisConfig, logger *zap.Logger) *RedisPool {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", host.Hostname, host.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
	})

	p := &RedisPool{
		host:   host,
		client: client,
		logger: logger,
	}
	p.active.Store(true)
	return p
}

// Host returns the host this pool serves
func (p *RedisPool) Host() *model.Host {
	return p.host
}

// IsActive reports whether the pool can serve borrows
func (p *RedisPool) IsActive() bool {
	return p.active.Load()
}

// MarkActive flips the pool's active flag. Called by the health monitor.
func (p *RedisPool) MarkActive(active bool) {
	p.active.Store(active)
}

// Borrow checks out a connection bound to this pool's host
func (p *RedisPool) Borrow(ctx context.Context) (Connection, error) {
	if !p.active.Load() {
		return nil, fmt.Errorf("%w: %s", ErrPoolInactive, p.host.Key())
	}

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %s", ErrPoolTimeout, p.host.Key())
	default:
	}

	// The go-redis client owns the socket pool; a cheap ping under the
	// caller's deadline stands in for the checkout.
	if err := p.client.Ping(ctx).Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("%w: %s", ErrPoolTimeout, p.host.Key())
		}
		if errors.Is(err, redis.ErrPoolTimeout) {
			return nil, fmt.Errorf("%w: %s", ErrPoolExhausted, p.host.Key())
		}
		return nil, fmt.Errorf("borrow from %s: %w", p.host.Key(), err)
	}

	return &redisConnection{host: p.host, client: p.client}, nil
}

// Ping probes the backend. Used by the health monitor.
func (p *RedisPool) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// Close releases the underlying client and its sockets
func (p *RedisPool) Close() error {
	p.active.Store(false)
	return p.client.Close()
}

// redisConnection is a borrowed view onto the shared client
type redisConnection struct {
	host   *model.Host
	client *redis.Client
}

func (c *redisConnection) Host() *model.Host { return c.host }

// Close is a no-op: the go-redis client reclaims sockets itself
func (c *redisConnection) Close() error { return nil }

// Client exposes the underlying go-redis client for executing commands
func (c *redisConnection) Client() *redis.Client { return c.client }
