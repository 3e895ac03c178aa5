package model

import "fmt"

// HostToken pairs a position on the consistent-hash ring with the host
// that owns it. Several hosts (across racks) may carry the same token;
// together they form the replica set for that ring position.
type HostToken struct {
	Token uint64
	Host  *Host
}

// NewHostToken creates a token assignment for a host
func NewHostToken(token uint64, host *Host) HostToken {
	return HostToken{Token: token, Host: host}
}

// String returns a human-readable representation of the assignment
func (t HostToken) String() string {
	return fmt.Sprintf("HostToken{%d -> %s}", t.Token, t.Host.Key())
}
