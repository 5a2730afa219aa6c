package store

import (
	"context"
	"fmt"
	"strings"
)

// AddressRegistry maps node IDs to advertised addresses.
type AddressRegistry struct {
	Store Store
}

// Publish records the address of nodeID.
func (r AddressRegistry) Publish(ctx context.Context, nodeID, address string) error {
	if nodeID == "" || address == "" {
		return fmt.Errorf("cannot publish empty node id or address (id=%q, address=%q)", nodeID, address)
	}
	if _, err := r.Store.Put(ctx, NodeKey(nodeID), []byte(address)); err != nil {
		return fmt.Errorf("failed to publish address of node %s: %w", nodeID, err)
	}
	return nil
}

// Lookup returns the advertised address of nodeID, or an error wrapping
// ErrNotFound if the node has not published one yet.
func (r AddressRegistry) Lookup(ctx context.Context, nodeID string) (string, error) {
	raw, err := r.Store.Get(ctx, NodeKey(nodeID))
	if err != nil {
		return "", fmt.Errorf("failed to look up address of node %s: %w", nodeID, err)
	}
	addr := strings.TrimSpace(string(raw))
	if addr == "" {
		return "", fmt.Errorf("node %s published an empty address: %w", nodeID, ErrNotFound)
	}
	return addr, nil
}
