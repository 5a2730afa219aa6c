package election

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/imamik/fleetboot/internal/node"
	"github.com/imamik/fleetboot/internal/store"
)

// ErrEmptyHistory is returned when the lock key lists no version even though
// this node has written it, i.e. the store has not caught up yet.
var ErrEmptyHistory = errors.New("lock history is empty")

// ErrVersionNotListed is returned while the local write is missing from the
// lock history. Comparing against an incomplete history is unsafe.
var ErrVersionNotListed = errors.New("local lock version not yet listed")

// VersionedLock elects the node whose write to the lock key received the
// oldest version.
//
// The store must keep the full version history of the lock key for as long
// as nodes may still be resolving. A backend that prunes or expires old
// versions can make a later writer appear oldest.
type VersionedLock struct {
	Store store.VersionedStore

	mu      sync.Mutex
	written store.Version
}

// Resolve implements Resolver. The node publishes its address, writes the
// lock once and compares the oldest listed version with its own. Retried
// calls after a successful write only re-read the history.
func (l *VersionedLock) Resolve(ctx context.Context, self node.Node) (Resolution, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.written == "" {
		registry := store.AddressRegistry{Store: l.Store}
		if err := registry.Publish(ctx, self.ID, self.AdvertiseAddress()); err != nil {
			return Resolution{}, err
		}

		marker := fmt.Sprintf("%s/%s", self.ID, uuid.NewString())
		v, err := l.Store.Put(ctx, store.KeyLock, []byte(marker))
		if err != nil {
			return Resolution{}, fmt.Errorf("failed to write lock: %w", err)
		}
		l.written = v
	}

	history, err := l.Store.ListVersions(ctx, store.KeyLock)
	if err != nil {
		return Resolution{}, fmt.Errorf("failed to list lock versions: %w", err)
	}
	if len(history) == 0 {
		return Resolution{}, ErrEmptyHistory
	}
	if !slices.Contains(history, l.written) {
		return Resolution{}, fmt.Errorf("%w: %s", ErrVersionNotListed, l.written)
	}

	if IsLeaderVersion(history, l.written) {
		return Resolution{Role: RoleInitializer, Leader: &self}, nil
	}
	return Resolution{Role: RoleJoiner}, nil
}

// Version returns the version of this node's lock write, empty before the
// first successful write.
func (l *VersionedLock) Version() store.Version {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.written
}

// IsLeaderVersion reports whether v is the oldest entry of history.
func IsLeaderVersion(history []store.Version, v store.Version) bool {
	return len(history) > 0 && history[0] == v
}
