// Package store defines the shared store the fleet coordinates through.
//
// Nodes never talk to each other before the cluster exists. Everything one
// node needs to know about another (the join token, advertised addresses,
// the election lock) is written to and polled from a [Store]. Nodes only put
// and get; no node deletes another node's entries.
//
// Key layout, relative to an optional per-fleet prefix:
//
//	nodes/<node-id>   advertised address of a node
//	token             cluster join token
//	lock              election marker, read only for its version history
//
// Backends: [Memory] (tests, simulation), badgerstore (embedded, local) and
// the S3 client in internal/platform/s3.
package store
