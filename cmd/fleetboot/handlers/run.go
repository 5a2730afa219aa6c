package handlers

import (
	"context"
	"fmt"

	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/imamik/fleetboot/internal/bootstrap"
	"github.com/imamik/fleetboot/internal/config"
	"github.com/imamik/fleetboot/internal/store"
	"github.com/imamik/fleetboot/internal/util/retry"
)

// Run handles the run command: it drives the local node to READY or FAILED.
func Run(ctx context.Context, configPath string, override func(*config.Config)) error {
	cfg, err := loadAndValidate(configPath, override)
	if err != nil {
		return err
	}
	logger := log.FromContext(ctx).WithValues("fleet", cfg.Fleet, "strategy", cfg.Strategy)
	ctx = log.IntoContext(ctx, logger)

	env, err := setup(ctx, cfg)
	if err != nil {
		return err
	}

	m := newMachine(env)
	state, runErr := m.Run(ctx)

	if cfg.Metrics.Textfile != "" {
		if err := writeMetrics(cfg.Metrics.Textfile); err != nil {
			logger.Error(err, "failed to write metrics", "path", cfg.Metrics.Textfile)
		}
	}

	fmt.Fprint(stdout, renderReport(cfg.Fleet, m.Report()))
	if runErr != nil {
		return fmt.Errorf("bootstrap of node %s ended in %s: %w", env.self.ID, state, runErr)
	}
	return nil
}

func newMachine(env *environment) *bootstrap.Machine {
	cfg := env.cfg
	rt := newRuntime(cfg, env.self)
	addrs := store.AddressRegistry{Store: env.store}

	var locator bootstrap.LeaderLocator = bootstrap.DirectoryLocator{Addresses: addrs}
	if cfg.LeaderDiscovery() == config.DiscoveryHealth {
		locator = bootstrap.HealthLocator{
			Registry:   env.cloud,
			RegistryID: cfg.Leader.Registry,
			Addresses:  addrs,
		}
	}

	m := &bootstrap.Machine{
		Fleet:         cfg.Fleet,
		Self:          env.self,
		Resolver:      env.resolver,
		Locator:       locator,
		Store:         env.store,
		Runtime:       rt,
		Policy:        retry.Policy{Interval: cfg.Poll.Interval, MaxAttempts: cfg.Poll.MaxAttempts},
		EnableMetrics: cfg.Metrics.Textfile != "",
	}
	if cfg.Readiness.Enabled {
		m.Readiness = newReadiness(rt.Kubeconfig(), kubeNodeName(cfg, env.self))
	}
	return m
}
