package config

import (
	"fmt"
	"slices"
)

// ValidStrategies lists the role resolution strategies.
var ValidStrategies = []string{"instance-ordering", "versioned-lock"}

// Validate checks the configuration for errors that would only surface
// halfway through a boot.
func (c *Config) Validate() error {
	if c.Fleet == "" {
		return fmt.Errorf("fleet is required")
	}
	if !slices.Contains(ValidStrategies, c.Strategy) {
		return fmt.Errorf("unknown strategy %q (valid: %v)", c.Strategy, ValidStrategies)
	}

	if err := c.validatePoll(); err != nil {
		return fmt.Errorf("poll validation failed: %w", err)
	}
	if err := c.validateLeader(); err != nil {
		return fmt.Errorf("leader validation failed: %w", err)
	}

	if c.Store.Bucket == "" {
		return fmt.Errorf("store.bucket is required")
	}
	if c.HCloudToken == "" && c.needsHCloud() {
		return fmt.Errorf("%s is required for strategy %s with %s discovery", EnvHCloudToken, c.Strategy, c.LeaderDiscovery())
	}

	if c.Runtime.Kind != DefaultRuntime {
		return fmt.Errorf("unsupported runtime %q", c.Runtime.Kind)
	}
	if c.Runtime.NodeName != "" && c.Runtime.NodeName != NodeNameID && c.Runtime.NodeName != NodeNameHostname {
		return fmt.Errorf("runtime.node_name must be %s or %s, got %q", NodeNameID, NodeNameHostname, c.Runtime.NodeName)
	}
	if c.Runtime.APIPort < 0 || c.Runtime.APIPort > 65535 {
		return fmt.Errorf("runtime.api_port %d out of range", c.Runtime.APIPort)
	}
	return nil
}

func (c *Config) validatePoll() error {
	if c.Poll.Interval <= 0 {
		return fmt.Errorf("interval must be positive, got %s", c.Poll.Interval)
	}
	if c.Poll.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be at least 1, got %d", c.Poll.MaxAttempts)
	}
	return nil
}

func (c *Config) validateLeader() error {
	switch c.LeaderDiscovery() {
	case DiscoveryDirectory:
		if c.Strategy != "instance-ordering" {
			return fmt.Errorf("%s discovery requires the instance-ordering strategy", DiscoveryDirectory)
		}
	case DiscoveryHealth:
		if c.Leader.Registry == "" {
			return fmt.Errorf("%s discovery requires leader.registry", DiscoveryHealth)
		}
	default:
		return fmt.Errorf("unknown discovery %q", c.Leader.Discovery)
	}
	return nil
}

// needsHCloud reports whether the Hetzner Cloud API is queried.
func (c *Config) needsHCloud() bool {
	return c.Strategy == "instance-ordering" || c.LeaderDiscovery() == DiscoveryHealth
}
