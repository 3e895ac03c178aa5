package model

import (
	"fmt"
	"sync/atomic"
)

// HostStatus represents the liveness status of a host
type HostStatus int32

const (
	// StatusDown indicates the host is unreachable and must not be selected
	StatusDown HostStatus = iota
	// StatusUp indicates the host is accepting connections
	StatusUp
)

// String returns the status as a human-readable string
func (s HostStatus) String() string {
	if s == StatusUp {
		return "up"
	}
	return "down"
}

// Host identifies a backend node and its placement in the cluster.
// Identity is hostname+port; rack and datacenter are locality labels.
// Status is flipped by the health-monitoring path and read atomically
// by the routing core, so a Host must be shared by pointer.
type Host struct {
	Hostname   string
	Port       int
	Rack       string
	Datacenter string

	status atomic.Int32
}

// NewHost creates a host with the given identity, placement and initial status
func NewHost(hostname string, port int, rack, datacenter string, status HostStatus) *Host {
	h := &Host{
		Hostname:   hostname,
		Port:       port,
		Rack:       rack,
		Datacenter: datacenter,
	}
	h.status.Store(int32(status))
	return h
}

// Key returns the identity of the host (hostname:port)
func (h *Host) Key() string {
	return fmt.Sprintf("%s:%d", h.Hostname, h.Port)
}

// Status returns the current liveness status
func (h *Host) Status() HostStatus {
	return HostStatus(h.status.Load())
}

// IsUp reports whether the host is currently marked Up
func (h *Host) IsUp() bool {
	return HostStatus(h.status.Load()) == StatusUp
}

// SetStatus updates the liveness status. Called by the health monitor;
// the routing core only reads.
func (h *Host) SetStatus(status HostStatus) {
	h.status.Store(int32(status))
}

// Equals reports whether two hosts share the same identity
func (h *Host) Equals(other *Host) bool {
	if other == nil {
		return false
	}
	return h.Hostname == other.Hostname && h.Port == other.Port
}

// String returns a human-readable representation of the host
func (h *Host) String() string {
	return fmt.Sprintf("Host{%s, rack=%s, dc=%s, status=%s}", h.Key(), h.Rack, h.Datacenter, h.Status())
}
