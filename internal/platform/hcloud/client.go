package hcloud

import (
	"context"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/imamik/fleetboot/internal/node"
)

// FleetDirectory lists the running members of a fleet.
type FleetDirectory interface {
	ListFleet(ctx context.Context, fleet string) ([]node.Node, error)
}

// HealthRegistry reports per-node health as seen by a load balancer.
type HealthRegistry interface {
	DescribeTargets(ctx context.Context, registryID string) ([]node.TargetHealth, error)
}

// RealClient implements FleetDirectory and HealthRegistry on the Hetzner Cloud API.
type RealClient struct {
	client *hcloud.Client
}

var (
	_ FleetDirectory = (*RealClient)(nil)
	_ HealthRegistry = (*RealClient)(nil)
)

// ClientOption configures a RealClient.
type ClientOption func(*RealClient)

// WithHCloudClient sets a custom hcloud client (useful for testing).
func WithHCloudClient(hc *hcloud.Client) ClientOption {
	return func(c *RealClient) {
		c.client = hc
	}
}

// NewRealClient creates a new RealClient for the given API token.
func NewRealClient(token string, opts ...ClientOption) *RealClient {
	c := &RealClient{
		client: hcloud.NewClient(
			hcloud.WithToken(token),
			hcloud.WithApplication("fleetboot", ""),
		),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
