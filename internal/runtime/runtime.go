// Package runtime declares the hooks the bootstrap sequence uses to drive the
// local cluster software. Implementations live in subpackages.
package runtime

import (
	"context"

	"github.com/imamik/fleetboot/internal/node"
	"github.com/imamik/fleetboot/internal/token"
)

// InitOptions configure the first member of a new cluster.
type InitOptions struct {
	Self node.Node
	// Token, when set, is reused instead of generating a new one. This keeps
	// credentials stable when an Initializer is replaced mid-formation.
	Token token.ClusterToken
}

// JoinOptions configure a member joining an existing cluster.
type JoinOptions struct {
	Self          node.Node
	LeaderAddress string
	Token         token.ClusterToken
}

// Cluster is the local cluster software.
type Cluster interface {
	// IsAlreadyRunning reports whether the software is installed locally,
	// e.g. after a reboot of a node that already completed bootstrap.
	IsAlreadyRunning(ctx context.Context) (bool, error)
	// Init creates a new cluster with the local node as its first member and
	// returns the join token.
	Init(ctx context.Context, opts InitOptions) (token.ClusterToken, error)
	// Join attaches the local node to the cluster served at the leader.
	Join(ctx context.Context, opts JoinOptions) error
}
