// Package commands defines the CLI command structure and flag bindings.
//
// Command execution is delegated to handler functions in the handlers
// package.
package commands

import "github.com/spf13/cobra"

// Root returns the root command for the fleetboot CLI.
func Root() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "fleetboot",
		Short:         "Bootstrap a fleet of identical nodes into one k3s cluster",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(Run())
	cmd.AddCommand(Role())
	cmd.AddCommand(Simulate())
	cmd.AddCommand(Version())

	return cmd
}
