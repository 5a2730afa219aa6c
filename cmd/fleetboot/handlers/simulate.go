package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/imamik/fleetboot/internal/simulation"
	"github.com/imamik/fleetboot/internal/store"
	"github.com/imamik/fleetboot/internal/store/badgerstore"
	"github.com/imamik/fleetboot/internal/util/retry"
)

// Store backends available to the simulation.
const (
	SimStoreMemory = "memory"
	SimStoreBadger = "badger"
)

// SimulateOptions are the flags of the simulate command.
type SimulateOptions struct {
	Fleet           string
	Nodes           int
	Strategy        string
	Discovery       string
	Stagger         time.Duration
	Outsiders       int
	PollInterval    time.Duration
	PollMaxAttempts int
	Store           string
	DataDir         string
	MetricsTextfile string
}

// runSimulation is replaceable in tests.
var runSimulation = simulation.Run

// Simulate handles the simulate command.
func Simulate(ctx context.Context, opts SimulateOptions) (err error) {
	logger := log.FromContext(ctx)

	var s store.VersionedStore
	switch opts.Store {
	case SimStoreMemory, "":
		s = store.NewMemory()
	case SimStoreBadger:
		db, openErr := badgerstore.Open(opts.DataDir)
		if openErr != nil {
			return openErr
		}
		defer func() {
			err = errors.Join(err, db.Close())
		}()
		s = db
	default:
		return fmt.Errorf("unknown store %q (valid: %s, %s)", opts.Store, SimStoreMemory, SimStoreBadger)
	}

	res, runErr := runSimulation(ctx, simulation.Options{
		Fleet:         opts.Fleet,
		Nodes:         opts.Nodes,
		Strategy:      opts.Strategy,
		Discovery:     opts.Discovery,
		Stagger:       opts.Stagger,
		Outsiders:     opts.Outsiders,
		Policy:        retry.Policy{Interval: opts.PollInterval, MaxAttempts: opts.PollMaxAttempts},
		Store:         s,
		EnableMetrics: opts.MetricsTextfile != "",
	})
	if res.Cluster == nil {
		return runErr
	}

	if opts.MetricsTextfile != "" {
		if err := writeMetrics(opts.MetricsTextfile); err != nil {
			logger.Error(err, "failed to write metrics", "path", opts.MetricsTextfile)
		}
	}

	fmt.Fprint(stdout, renderSimulation(opts.Fleet, res))
	if runErr != nil {
		return runErr
	}
	return res.Verify()
}
