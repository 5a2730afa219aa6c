package bootstrap

import (
	"errors"
	"fmt"
)

// ErrResolutionTimeout is returned when a blocking wait exhausted its
// attempt budget. It wraps retry.ErrExhausted and the last attempt error.
var ErrResolutionTimeout = errors.New("resolution timeout")

// ErrNoHealthyTarget is returned while the health registry reports no
// healthy peer.
var ErrNoHealthyTarget = errors.New("no healthy target in health registry")

// ErrNoLeader is returned by a locator that cannot name a leader at all.
var ErrNoLeader = errors.New("resolution carries no leader")

// Runtime hook names used in ClusterRuntimeError.
const (
	OpIsAlreadyRunning = "is-already-running"
	OpInit             = "init"
	OpJoin             = "join"
)

// ClusterRuntimeError reports a failing cluster runtime hook. It is never
// retried locally.
type ClusterRuntimeError struct {
	Op  string
	Err error
}

func (e *ClusterRuntimeError) Error() string {
	return fmt.Sprintf("cluster runtime %s failed: %v", e.Op, e.Err)
}

func (e *ClusterRuntimeError) Unwrap() error {
	return e.Err
}

// IsClusterRuntimeError reports whether err is or wraps a ClusterRuntimeError.
func IsClusterRuntimeError(err error) bool {
	var rtErr *ClusterRuntimeError
	return errors.As(err, &rtErr)
}
