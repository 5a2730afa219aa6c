// Package simulation boots a virtual fleet inside one process.
//
// Every virtual node runs a real bootstrap.Machine against a shared store,
// an in-memory fleet directory, a health registry that reports a node
// healthy once it is READY, and a runtime that only records cluster
// membership. The runtime refuses a second initialization and joins with a
// wrong token or leader, so a successful simulation shows that the fleet
// formed exactly one cluster.
package simulation
