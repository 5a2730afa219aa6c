package handlers

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/imamik/fleetboot/internal/election"
	"github.com/imamik/fleetboot/internal/node"
	"github.com/imamik/fleetboot/internal/util/retry"
)

// ErrVersioningDisabled is returned when the versioned lock runs on a bucket
// without object versioning.
var ErrVersioningDisabled = errors.New("bucket versioning is not enabled")

// versioningGuard checks bucket versioning before the first lock write.
type versioningGuard struct {
	election.Resolver
	bucket Bucket

	mu      sync.Mutex
	checked bool
}

// Resolve implements election.Resolver.
func (g *versioningGuard) Resolve(ctx context.Context, self node.Node) (election.Resolution, error) {
	g.mu.Lock()
	if !g.checked {
		enabled, err := g.bucket.VersioningEnabled(ctx)
		if err != nil {
			g.mu.Unlock()
			return election.Resolution{}, fmt.Errorf("failed to check bucket versioning: %w", err)
		}
		if !enabled {
			g.mu.Unlock()
			return election.Resolution{}, retry.Fatal(ErrVersioningDisabled)
		}
		g.checked = true
	}
	g.mu.Unlock()
	return g.Resolver.Resolve(ctx, self)
}
