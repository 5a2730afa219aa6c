package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/imamik/fleetboot/internal/election"
	"github.com/imamik/fleetboot/internal/node"
	"github.com/imamik/fleetboot/internal/store"
	"github.com/imamik/fleetboot/internal/util/retry"
)

// HealthRegistry reports per-node health as seen by a load balancer.
type HealthRegistry interface {
	DescribeTargets(ctx context.Context, registryID string) ([]node.TargetHealth, error)
}

// LeaderLocator finds the address of the Initializer. Locate makes a single
// attempt; the Machine polls it.
type LeaderLocator interface {
	Locate(ctx context.Context, self node.Node, res election.Resolution) (string, error)
}

// HealthLocator picks the first healthy target of the health registry, other
// than the local node, whose address is published in the AddressRegistry.
type HealthLocator struct {
	Registry   HealthRegistry
	RegistryID string
	Addresses  store.AddressRegistry
}

// Locate implements LeaderLocator.
func (l HealthLocator) Locate(ctx context.Context, self node.Node, _ election.Resolution) (string, error) {
	targets, err := l.Registry.DescribeTargets(ctx, l.RegistryID)
	if err != nil {
		return "", fmt.Errorf("failed to describe targets of %s: %w", l.RegistryID, err)
	}
	var unpublished []string
	for _, t := range targets {
		if t.Health != node.HealthHealthy || t.NodeID == self.ID {
			continue
		}
		addr, err := l.Addresses.Lookup(ctx, t.NodeID)
		if errors.Is(err, store.ErrNotFound) {
			unpublished = append(unpublished, t.NodeID)
			continue
		}
		return addr, err
	}
	if len(unpublished) > 0 {
		return "", fmt.Errorf("healthy targets %v have no published address: %w", unpublished, store.ErrNotFound)
	}
	return "", fmt.Errorf("%w: %s (%d targets)", ErrNoHealthyTarget, l.RegistryID, len(targets))
}

// DirectoryLocator uses the leader named by the role resolution. When the
// directory listed no address for it, the AddressRegistry is consulted.
type DirectoryLocator struct {
	Addresses store.AddressRegistry
}

// Locate implements LeaderLocator.
func (l DirectoryLocator) Locate(ctx context.Context, _ node.Node, res election.Resolution) (string, error) {
	if res.Leader == nil {
		return "", retry.Fatal(ErrNoLeader)
	}
	if addr := res.Leader.AdvertiseAddress(); addr != "" {
		return addr, nil
	}
	if l.Addresses.Store == nil {
		return "", retry.Fatal(fmt.Errorf("leader %s has no address", res.Leader.ID))
	}
	return l.Addresses.Lookup(ctx, res.Leader.ID)
}
