package store

import (
	"context"
	"errors"
	"path"
)

// ErrNotFound is returned by Get when the key has never been written.
var ErrNotFound = errors.New("key not found")

// Well-known keys.
const (
	KeyToken    = "token"
	KeyLock     = "lock"
	nodesPrefix = "nodes"
)

// Version identifies one write of a key. Versions are opaque; only their
// order in ListVersions is meaningful.
type Version string

// Store is the put/get capability shared by all nodes.
type Store interface {
	// Put writes value under key and returns the version the store assigned.
	Put(ctx context.Context, key string, value []byte) (Version, error)
	// Get returns the latest value of key or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
}

// VersionedStore additionally exposes the write history of a key.
//
// The versioned-lock election requires that history is never pruned: the
// first version written must stay visible to every reader for the whole
// formation window.
type VersionedStore interface {
	Store
	// ListVersions returns every version of key, oldest first.
	ListVersions(ctx context.Context, key string) ([]Version, error)
}

// NodeKey returns the address registry key for a node.
func NodeKey(nodeID string) string {
	return path.Join(nodesPrefix, nodeID)
}

// Prefixed scopes every key of an underlying store below prefix, so several
// fleets can share one bucket.
type Prefixed struct {
	Prefix string
	Inner  VersionedStore
}

func (p Prefixed) key(k string) string {
	if p.Prefix == "" {
		return k
	}
	return path.Join(p.Prefix, k)
}

// Put implements Store.
func (p Prefixed) Put(ctx context.Context, key string, value []byte) (Version, error) {
	return p.Inner.Put(ctx, p.key(key), value)
}

// Get implements Store.
func (p Prefixed) Get(ctx context.Context, key string) ([]byte, error) {
	return p.Inner.Get(ctx, p.key(key))
}

// ListVersions implements VersionedStore.
func (p Prefixed) ListVersions(ctx context.Context, key string) ([]Version, error) {
	return p.Inner.ListVersions(ctx, p.key(key))
}
