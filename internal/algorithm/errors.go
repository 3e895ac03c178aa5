package algorithm

import "errors"

// ErrInvalidTopology indicates a ring whose replica sets do not all have
// the same cardinality, or a token map that cannot form a valid ring.
// A rebuild that hits this error must keep the previous topology.
var ErrInvalidTopology = errors.New("invalid topology: replica sets have unequal sizes")
