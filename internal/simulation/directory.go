package simulation

import (
	"context"
	"maps"
	"sync"

	"github.com/imamik/fleetboot/internal/node"
	"github.com/imamik/fleetboot/internal/util/labels"
)

type member struct {
	node    node.Node
	labels  map[string]string
	healthy bool
}

// Directory is an in-memory fleet directory and health registry.
type Directory struct {
	mu      sync.Mutex
	members []*member
	polls   int
}

// Add registers a running node with its labels.
func (d *Directory) Add(n node.Node, l map[string]string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.members = append(d.members, &member{node: n, labels: l})
}

// ListFleet implements election.FleetDirectory.
func (d *Directory) ListFleet(_ context.Context, fleet string) ([]node.Node, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []node.Node
	for _, m := range d.members {
		if labels.InFleet(m.labels, fleet) {
			out = append(out, m.node)
		}
	}
	return out, nil
}

// DescribeTargets implements bootstrap.HealthRegistry. The registry ID is
// the fleet name.
func (d *Directory) DescribeTargets(_ context.Context, fleet string) ([]node.TargetHealth, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.polls++
	var out []node.TargetHealth
	for _, m := range d.members {
		if !labels.InFleet(m.labels, fleet) {
			continue
		}
		h := node.HealthUnhealthy
		if m.healthy {
			h = node.HealthHealthy
		}
		out = append(out, node.TargetHealth{NodeID: m.node.ID, Health: h})
	}
	return out, nil
}

// Polls returns how often the health registry was queried.
func (d *Directory) Polls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.polls
}

// markReady flags a node healthy and records its role label.
func (d *Directory) markReady(id, role string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, m := range d.members {
		if m.node.ID == id {
			m.healthy = true
			m.labels = labels.NewLabelBuilder(m.labels[labels.KeyFleet]).Merge(m.labels).WithRole(role).Build()
		}
	}
}

// Labels returns the labels of a node.
func (d *Directory) Labels(id string) map[string]string {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, m := range d.members {
		if m.node.ID == id {
			return maps.Clone(m.labels)
		}
	}
	return nil
}
