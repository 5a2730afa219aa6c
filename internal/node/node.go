// Package node defines the fleet member as seen by the bootstrap protocol
// and discovers the identity of the local node.
package node

import (
	"cmp"
	"slices"
	"time"
)

// Health is the reachability of a node as observed by the load balancing layer.
type Health string

// Health values.
const (
	HealthUnknown   Health = "unknown"
	HealthHealthy   Health = "healthy"
	HealthUnhealthy Health = "unhealthy"
)

// Node is one interchangeable member of the fleet.
type Node struct {
	// ID is the opaque, immutable node identity.
	ID string
	// Name is the host name; the cluster runtime registers under it.
	Name string
	// LaunchTime is when the fleet manager started the node.
	LaunchTime time.Time
	// LocalAddress is the private address peers use to reach the node.
	LocalAddress string
	// PublicAddress is optional.
	PublicAddress string
	Health        Health
}

// AdvertiseAddress is the address other nodes should dial.
func (n Node) AdvertiseAddress() string {
	if n.LocalAddress != "" {
		return n.LocalAddress
	}
	return n.PublicAddress
}

// Compare orders nodes by launch time, then by ID. Launch times can collide
// at second granularity; the ID tie-break keeps the order total.
func Compare(a, b Node) int {
	if c := a.LaunchTime.Compare(b.LaunchTime); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// Sort orders nodes in place with Compare.
func Sort(nodes []Node) {
	slices.SortFunc(nodes, Compare)
}

// TargetHealth is one entry of the health registry.
type TargetHealth struct {
	NodeID string
	Health Health
}
