package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/fleetboot/cmd/fleetboot/handlers"
	"github.com/imamik/fleetboot/internal/config"
)

// Run returns the command that bootstraps the local node.
func Run() *cobra.Command {
	var flags configFlags
	var readiness bool
	var metricsTextfile string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Bootstrap the local node into the fleet's cluster",
		Long: `Resolve the role of this node and either initialize the cluster or join it.

The command exits 0 once the node is READY and non-zero on any failure, so
the fleet manager can replace the instance. Running it again on a node whose
cluster runtime is already installed succeeds immediately.
`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Run(cmd.Context(), flags.configPath, func(cfg *config.Config) {
				flags.apply(cmd, cfg)
				if cmd.Flags().Changed("readiness") {
					cfg.Readiness.Enabled = readiness
				}
				if cmd.Flags().Changed("metrics-textfile") {
					cfg.Metrics.Textfile = metricsTextfile
				}
			})
		},
	}

	flags.bind(cmd)
	cmd.Flags().BoolVar(&readiness, "readiness", false, "Wait for the Kubernetes node to report Ready")
	cmd.Flags().StringVar(&metricsTextfile, "metrics-textfile", "", "Write metrics to this node-exporter textfile")

	return cmd
}
