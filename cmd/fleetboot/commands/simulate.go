package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/imamik/fleetboot/cmd/fleetboot/handlers"
)

// Simulate returns the command that boots a virtual fleet in-process.
func Simulate() *cobra.Command {
	var opts handlers.SimulateOptions

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Boot a virtual fleet in-process",
		Long: `Run the bootstrap sequence for a virtual fleet inside this process.

Every virtual node runs the real state machine against a shared store, an
in-memory fleet directory and health registry, and a runtime that only
records cluster membership. Use it to try strategies and retry budgets.
`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Simulate(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.Fleet, "fleet", "demo", "Fleet identifier")
	cmd.Flags().IntVarP(&opts.Nodes, "nodes", "n", 3, "Number of nodes")
	cmd.Flags().StringVar(&opts.Strategy, "strategy", "instance-ordering", "Role resolution strategy: instance-ordering or versioned-lock")
	cmd.Flags().StringVar(&opts.Discovery, "leader-discovery", "", "How joiners find the leader: directory or health")
	cmd.Flags().DurationVar(&opts.Stagger, "stagger", time.Second, "Launch time difference between nodes")
	cmd.Flags().IntVar(&opts.Outsiders, "outsiders", 0, "Running nodes of another fleet to ignore")
	cmd.Flags().DurationVar(&opts.PollInterval, "poll-interval", 10*time.Millisecond, "Interval between poll attempts")
	cmd.Flags().IntVar(&opts.PollMaxAttempts, "poll-max-attempts", 500, "Attempts per blocking wait")
	cmd.Flags().StringVar(&opts.Store, "store", "memory", "Shared store backend: memory or badger")
	cmd.Flags().StringVar(&opts.DataDir, "data-dir", "", "Badger directory (default: in-memory)")
	cmd.Flags().StringVar(&opts.MetricsTextfile, "metrics-textfile", "", "Write metrics to this file after the run")

	return cmd
}
