package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/fleetboot/cmd/fleetboot/handlers"
	"github.com/imamik/fleetboot/internal/config"
)

// Role returns the command that only resolves the role of the local node.
func Role() *cobra.Command {
	var flags configFlags
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "role",
		Short: "Resolve and print the role of the local node",
		Long: `Run role resolution only and print whether this node is the initializer.

Only the instance-ordering strategy can be resolved without side effects.
With versioned-lock a node's role is decided by its own lock write, which
only run performs, so the command refuses.
`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Role(cmd.Context(), flags.configPath, func(cfg *config.Config) {
				flags.apply(cmd, cfg)
			}, jsonOutput)
		},
	}

	flags.bind(cmd)
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	return cmd
}
