// Package labels builds and matches the Hetzner Cloud labels that put a
// server into a fleet.
//
// Fleet membership is the label fleetboot.io/fleet=<fleet>. The fleet
// directory selects on it with [SelectorForFleet].
package labels
