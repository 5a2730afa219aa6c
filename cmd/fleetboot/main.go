// Package main is the entry point for the fleetboot CLI.
//
// fleetboot runs on every freshly launched node of a fleet and forms a
// single k3s cluster out of them: one node initializes the cluster, all
// others join it. Coordination happens only through an S3 bucket and the
// Hetzner Cloud API.
//
// Commands: run, role, simulate, version.
//
// For detailed usage information, run:
//
//	fleetboot --help
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"

	"github.com/imamik/fleetboot/cmd/fleetboot/commands"
	"github.com/imamik/fleetboot/cmd/fleetboot/handlers"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	devMode := handlers.IsInteractiveTTY() || os.Getenv("DEBUG") == "true"
	log.SetLogger(zap.New(zap.UseDevMode(devMode), zap.WriteTo(os.Stderr)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
