package election

import (
	"context"
	"errors"
	"fmt"

	"github.com/imamik/fleetboot/internal/node"
	"github.com/imamik/fleetboot/internal/store"
)

// Role is the part a node plays in cluster formation.
type Role string

// Roles.
const (
	RoleInitializer Role = "initializer"
	RoleJoiner      Role = "joiner"
)

// Resolution is the outcome of role resolution.
type Resolution struct {
	Role Role
	// Leader is the elected Initializer when the strategy knows it.
	// VersionedLock leaves it nil: the winner is only known to itself.
	Leader *node.Node
}

// Resolver determines the role of the local node. A single call is one
// attempt; callers wrap it in a bounded retry loop.
type Resolver interface {
	Resolve(ctx context.Context, self node.Node) (Resolution, error)
}

// Strategy names accepted in configuration.
const (
	StrategyInstanceOrdering = "instance-ordering"
	StrategyVersionedLock    = "versioned-lock"
)

// ErrUnknownStrategy is returned for unsupported strategy names.
var ErrUnknownStrategy = errors.New("unknown election strategy")

// Deps are the backends a strategy may need.
type Deps struct {
	Directory FleetDirectory
	Fleet     string
	Store     store.VersionedStore
}

// New returns the resolver for a strategy name.
func New(strategy string, deps Deps) (Resolver, error) {
	switch strategy {
	case StrategyInstanceOrdering:
		if deps.Directory == nil {
			return nil, fmt.Errorf("%s requires a fleet directory", strategy)
		}
		return &InstanceOrdering{Directory: deps.Directory, Fleet: deps.Fleet}, nil
	case StrategyVersionedLock:
		if deps.Store == nil {
			return nil, fmt.Errorf("%s requires a versioned store", strategy)
		}
		return &VersionedLock{Store: deps.Store}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}
}
