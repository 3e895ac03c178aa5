package pool

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"

	"github.com/fakeNetflix/dyno/internal/model"
)

// GRPCConfig holds per-host gRPC channel settings
type GRPCConfig struct {
	KeepaliveTime    time.Duration
	KeepaliveTimeout time.Duration
	MaxRecvMsgSize   int
}

// GRPCPool adapts a gRPC client channel to HostConnectionPool. gRPC
// multiplexes streams over one channel, so the pool hands out views on
// a shared ClientConn and derives health from connectivity state.
type GRPCPool struct {
	host   *model.Host
	conn   *grpc.ClientConn
	active atomic.Bool
	logger *zap.Logger
}

// NewGRPCPool dials the host and returns an active pool
func NewGRPCPool(host *model.Host, cfg GRPCConfig, logger *zap.Logger) (*GRPCPool, error) {
	opts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}
	if cfg.KeepaliveTime > 0 {
		opts = append(opts, grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                cfg.KeepaliveTime,
			Timeout:             cfg.KeepaliveTimeout,
			PermitWithoutStream: true,
		}))
	}
	if cfg.MaxRecvMsgSize > 0 {
		opts = append(opts, grpc.WithDefaultCallOptions(grpc.MaxCallRecvMsgSize(cfg.MaxRecvMsgSize)))
	}

	conn, err := grpc.NewClient(fmt.Sprintf("%s:%d", host.Hostname, host.Port), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", host.Key(), err)
	}

	p := &GRPCPool{
		host:   host,
		conn:   conn,
		logger: logger,
	}
	p.active.Store(true)
	return p, nil
}

// Host returns the host this pool serves
func (p *GRPCPool) Host() *model.Host {
	return p.host
}

// IsActive combines the health flag with the channel's connectivity state
func (p *GRPCPool) IsActive() bool {
	if !p.active.Load() {
		return false
	}
	switch p.conn.GetState() {
	case connectivity.Ready, connectivity.Idle, connectivity.Connecting:
		return true
	default:
		return false
	}
}

// MarkActive flips the pool's active flag. Called by the health monitor.
func (p *GRPCPool) MarkActive(active bool) {
	p.active.Store(active)
}

// Borrow waits for the channel to become Ready within the deadline
func (p *GRPCPool) Borrow(ctx context.Context) (Connection, error) {
	if !p.active.Load() {
		return nil, fmt.Errorf("%w: %s", ErrPoolInactive, p.host.Key())
	}

	state := p.conn.GetState()
	for state != connectivity.Ready {
		if state == connectivity.Idle {
			p.conn.Connect()
		}
		if state == connectivity.Shutdown {
			return nil, fmt.Errorf("%w: %s", ErrPoolExhausted, p.host.Key())
		}
		if !p.conn.WaitForStateChange(ctx, state) {
			return nil, fmt.Errorf("%w: %s", ErrPoolTimeout, p.host.Key())
		}
		state = p.conn.GetState()
	}

	return &grpcConnection{host: p.host, conn: p.conn}, nil
}

// Ping probes the channel state. Used by the health monitor.
func (p *GRPCPool) Ping(ctx context.Context) error {
	switch p.conn.GetState() {
	case connectivity.Ready, connectivity.Idle:
		return nil
	case connectivity.Shutdown:
		return fmt.Errorf("channel to %s is shut down", p.host.Key())
	default:
		return fmt.Errorf("channel to %s is not ready", p.host.Key())
	}
}

// Close tears down the channel
func (p *GRPCPool) Close() error {
	p.active.Store(false)
	return p.conn.Close()
}

// grpcConnection is a borrowed view onto the shared channel
type grpcConnection struct {
	host *model.Host
	conn *grpc.ClientConn
}

func (c *grpcConnection) Host() *model.Host { return c.host }

// Close is a no-op: streams share the channel
func (c *grpcConnection) Close() error { return nil }

// ClientConn exposes the channel for issuing RPCs
func (c *grpcConnection) ClientConn() *grpc.ClientConn { return c.conn }
