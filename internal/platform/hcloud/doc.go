// Package hcloud reads the fleet directory and the health registry from the
// Hetzner Cloud API.
//
// # Fleet Directory
//
// Fleet members are servers carrying the label fleetboot.io/fleet=<fleet>.
// [RealClient.ListFleet] lists the running ones and maps each server to a
// node: the server ID is the node ID, the creation time is the launch time,
// the first private network IP is the local address and the public IPv4 is
// the public address.
//
// # Health Registry
//
// [RealClient.DescribeTargets] reads the targets of a load balancer. Label
// selector targets are expanded into the servers they matched. A server is
// healthy when every service on the load balancer reports it healthy.
//
// # Errors
//
// Authentication and invalid-input API errors are marked fatal with
// retry.Fatal so bootstrap polling stops immediately; everything else,
// including rate limiting, is left to the caller's retry budget.
package hcloud
