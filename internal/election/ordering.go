package election

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/imamik/fleetboot/internal/node"
)

// FleetDirectory lists the currently running members of a fleet.
type FleetDirectory interface {
	ListFleet(ctx context.Context, fleet string) ([]node.Node, error)
}

// ErrEmptyFleet is returned while the directory does not list any node.
var ErrEmptyFleet = errors.New("fleet directory returned no running nodes")

// ErrSelfNotListed is returned while the directory does not yet list the
// local node. Deciding without it could elect a second Initializer once the
// directory catches up.
var ErrSelfNotListed = errors.New("local node not yet listed in fleet directory")

// InstanceOrdering elects the oldest running node of the fleet.
type InstanceOrdering struct {
	Directory FleetDirectory
	Fleet     string
}

// Resolve implements Resolver.
func (o *InstanceOrdering) Resolve(ctx context.Context, self node.Node) (Resolution, error) {
	nodes, err := o.Directory.ListFleet(ctx, o.Fleet)
	if err != nil {
		return Resolution{}, fmt.Errorf("failed to list fleet %s: %w", o.Fleet, err)
	}
	if len(nodes) == 0 {
		return Resolution{}, ErrEmptyFleet
	}
	if !slices.ContainsFunc(nodes, func(n node.Node) bool { return n.ID == self.ID }) {
		return Resolution{}, fmt.Errorf("%w: %s", ErrSelfNotListed, self.ID)
	}

	leader := Oldest(nodes)
	role := RoleJoiner
	if leader.ID == self.ID {
		role = RoleInitializer
	}
	return Resolution{Role: role, Leader: &leader}, nil
}

// Oldest returns the minimum node under node.Compare. nodes must not be empty.
func Oldest(nodes []node.Node) node.Node {
	return slices.MinFunc(nodes, node.Compare)
}
