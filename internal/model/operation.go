package model

// Operation describes a request to be routed. The routing key is only
// consulted by the token-aware strategy; a keyless operation is routed
// round-robin regardless of the configured strategy.
type Operation interface {
	// Name returns the operation name, used for logging and metrics
	Name() string
	// Key returns the routing key, or "" for keyless operations
	Key() string
	// BinaryKey returns the routing key as raw bytes, or nil
	BinaryKey() []byte
}

// KeyedOperation is the basic Operation implementation
type KeyedOperation struct {
	name string
	key  string
}

// NewOperation creates an operation with a name and routing key
func NewOperation(name, key string) KeyedOperation {
	return KeyedOperation{name: name, key: key}
}

// Name returns the operation name
func (o KeyedOperation) Name() string { return o.name }

// Key returns the routing key
func (o KeyedOperation) Key() string { return o.key }

// BinaryKey returns the routing key as bytes
func (o KeyedOperation) BinaryKey() []byte {
	if o.key == "" {
		return nil
	}
	return []byte(o.key)
}
