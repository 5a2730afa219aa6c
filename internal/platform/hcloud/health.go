package hcloud

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/imamik/fleetboot/internal/node"
)

// ErrLoadBalancerNotFound is returned when the registry load balancer does not exist.
var ErrLoadBalancerNotFound = errors.New("load balancer not found")

// DescribeTargets returns the health of every server behind the load balancer
// identified by ID or name, in the order the API lists them.
func (c *RealClient) DescribeTargets(ctx context.Context, registryID string) ([]node.TargetHealth, error) {
	lb, _, err := c.client.LoadBalancer.Get(ctx, registryID)
	if err != nil {
		return nil, classify(fmt.Errorf("failed to get load balancer %s: %w", registryID, err))
	}
	if lb == nil {
		return nil, fmt.Errorf("%w: %s", ErrLoadBalancerNotFound, registryID)
	}

	var out []node.TargetHealth
	seen := map[string]bool{}
	var visit func(targets []hcloud.LoadBalancerTarget)
	visit = func(targets []hcloud.LoadBalancerTarget) {
		for _, t := range targets {
			switch t.Type {
			case hcloud.LoadBalancerTargetTypeServer:
				if t.Server == nil || t.Server.Server == nil {
					continue
				}
				id := strconv.FormatInt(t.Server.Server.ID, 10)
				if seen[id] {
					continue
				}
				seen[id] = true
				out = append(out, node.TargetHealth{NodeID: id, Health: targetHealth(t.HealthStatus)})
			case hcloud.LoadBalancerTargetTypeLabelSelector:
				visit(t.Targets)
			}
		}
	}
	visit(lb.Targets)
	return out, nil
}

// targetHealth folds the per-service statuses of one target.
func targetHealth(statuses []hcloud.LoadBalancerTargetHealthStatus) node.Health {
	if len(statuses) == 0 {
		return node.HealthUnknown
	}
	result := node.HealthHealthy
	for _, s := range statuses {
		switch s.Status {
		case hcloud.LoadBalancerTargetHealthStatusStatusHealthy:
		case hcloud.LoadBalancerTargetHealthStatusStatusUnhealthy:
			return node.HealthUnhealthy
		default:
			result = node.HealthUnknown
		}
	}
	return result
}
