package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/imamik/fleetboot/internal/config"
)

// configFlags are the flags shared by run and role. They override the
// config file and the environment when set explicitly.
type configFlags struct {
	configPath      string
	fleet           string
	strategy        string
	nodeID          string
	registry        string
	discovery       string
	pollInterval    time.Duration
	pollMaxAttempts int
}

func (f *configFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.configPath, "config", "c", "", "Path to configuration file")
	cmd.Flags().StringVar(&f.fleet, "fleet", "", "Fleet identifier (label fleetboot.io/fleet)")
	cmd.Flags().StringVar(&f.strategy, "strategy", "", "Role resolution strategy: instance-ordering or versioned-lock")
	cmd.Flags().StringVar(&f.nodeID, "node-id", "", "Override the node ID from the metadata service")
	cmd.Flags().StringVar(&f.registry, "leader-registry", "", "Load balancer ID or name used as health registry")
	cmd.Flags().StringVar(&f.discovery, "leader-discovery", "", "How joiners find the leader: directory or health")
	cmd.Flags().DurationVar(&f.pollInterval, "poll-interval", 0, "Interval between poll attempts")
	cmd.Flags().IntVar(&f.pollMaxAttempts, "poll-max-attempts", 0, "Attempts per blocking wait")
}

// apply copies every explicitly set flag onto cfg.
func (f *configFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("fleet") {
		cfg.Fleet = f.fleet
	}
	if changed("strategy") {
		cfg.Strategy = f.strategy
	}
	if changed("node-id") {
		cfg.Node.ID = f.nodeID
	}
	if changed("leader-registry") {
		cfg.Leader.Registry = f.registry
	}
	if changed("leader-discovery") {
		cfg.Leader.Discovery = f.discovery
	}
	if changed("poll-interval") {
		cfg.Poll.Interval = f.pollInterval
	}
	if changed("poll-max-attempts") {
		cfg.Poll.MaxAttempts = f.pollMaxAttempts
	}
}
