package routing

import "errors"

var (
	// ErrNoActiveHost indicates no candidate host was reachable for the
	// requested rack, replica set, or the whole cluster
	ErrNoActiveHost = errors.New("routing: no active host available")

	// ErrNotInitialized indicates selection was attempted before the
	// first topology snapshot was published
	ErrNotInitialized = errors.New("routing: topology not initialized")
)
