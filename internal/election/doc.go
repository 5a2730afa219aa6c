// Package election decides, for the local node, whether it initializes the
// cluster or joins it.
//
// Every node runs the same [Resolver] concurrently and without talking to its
// peers. Both strategies derive the single Initializer from a total order the
// whole fleet observes identically:
//
//   - [InstanceOrdering] orders the running fleet by (launch time, node ID)
//     as reported by the fleet directory.
//   - [VersionedLock] orders writes to one store key by the version the store
//     assigned; the writer of the oldest version wins.
//
// Neither strategy holds an exclusive lock and nothing is ever released.
// At most one Initializer follows from the order being total and observed
// consistently, which the directory and store are assumed to provide.
package election
