package pool

import (
	"context"
	"errors"

	"github.com/fakeNetflix/dyno/internal/model"
)

// Connection is a borrowed connection to a single host. Callers must
// Close it when done so the owning pool can reclaim it.
type Connection interface {
	// Host returns the host this connection is bound to
	Host() *model.Host
	// Close returns the connection to its pool
	Close() error
}

// HostConnectionPool manages connections to a single host. The routing
// core only borrows; establishing, recycling and closing sockets is the
// pool's concern. IsActive may report false even while the host is
// nominally Up, when connection-level health says otherwise.
type HostConnectionPool interface {
	// IsActive reports whether the pool can currently serve borrows
	IsActive() bool
	// Borrow checks out a connection, honoring the context deadline as
	// an absolute wall-clock bound. Fails with ErrPoolTimeout when the
	// deadline passes, or ErrPoolExhausted when no connection is free.
	Borrow(ctx context.Context) (Connection, error)
	// Host returns the host this pool serves
	Host() *model.Host
}

var (
	// ErrPoolTimeout indicates a borrow exceeded the caller's deadline
	ErrPoolTimeout = errors.New("pool: borrow timed out")
	// ErrPoolExhausted indicates the pool has no free connections
	ErrPoolExhausted = errors.New("pool: exhausted")
	// ErrPoolInactive indicates a borrow against an inactive pool
	ErrPoolInactive = errors.New("pool: inactive")
)
