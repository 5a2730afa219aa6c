package hcloud

import (
	"context"
	"fmt"
	"strconv"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/imamik/fleetboot/internal/node"
	"github.com/imamik/fleetboot/internal/util/labels"
)

// ListFleet lists the running servers of a fleet.
func (c *RealClient) ListFleet(ctx context.Context, fleet string) ([]node.Node, error) {
	servers, err := c.client.Server.AllWithOpts(ctx, hcloud.ServerListOpts{
		ListOpts: hcloud.ListOpts{LabelSelector: labels.SelectorForFleet(fleet)},
		Status:   []hcloud.ServerStatus{hcloud.ServerStatusRunning},
	})
	if err != nil {
		return nil, classify(fmt.Errorf("failed to list servers of fleet %s: %w", fleet, err))
	}

	nodes := make([]node.Node, 0, len(servers))
	for _, s := range servers {
		// The API filters by status already; guard against stale caches.
		if s.Status != hcloud.ServerStatusRunning {
			continue
		}
		nodes = append(nodes, ServerNode(s))
	}
	return nodes, nil
}

// ServerNode maps a server to a fleet node.
func ServerNode(s *hcloud.Server) node.Node {
	n := node.Node{
		ID:         strconv.FormatInt(s.ID, 10),
		Name:       s.Name,
		LaunchTime: s.Created,
		Health:     node.HealthUnknown,
	}
	for _, pn := range s.PrivateNet {
		if pn.IP != nil {
			n.LocalAddress = pn.IP.String()
			break
		}
	}
	if ip := s.PublicNet.IPv4.IP; ip != nil && !ip.IsUnspecified() {
		n.PublicAddress = ip.String()
	}
	return n
}
