// Package bootstrap drives one node from first boot to cluster membership.
//
// Every node of the fleet runs a [Machine] independently:
//
//	DETERMINING_ROLE -> INITIALIZING -> READY
//	DETERMINING_ROLE -> AWAITING_LEADER -> JOINING -> READY
//
// Any state may end in FAILED. Blocking waits (role resolution, leader
// discovery, token wait, readiness) share one [retry.Policy]; exhausting it
// yields [ErrResolutionTimeout]. Failures of the cluster runtime itself are
// reported as [*ClusterRuntimeError]. Both are terminal: the process exits
// non-zero and the fleet manager replaces the node.
//
// A node whose runtime is already installed goes straight to READY without
// touching the shared store.
package bootstrap
