package simulation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/imamik/fleetboot/internal/bootstrap"
	"github.com/imamik/fleetboot/internal/config"
	"github.com/imamik/fleetboot/internal/election"
	"github.com/imamik/fleetboot/internal/node"
	"github.com/imamik/fleetboot/internal/store"
	"github.com/imamik/fleetboot/internal/util/async"
	"github.com/imamik/fleetboot/internal/util/labels"
	"github.com/imamik/fleetboot/internal/util/retry"
)

// MaxNodes bounds the size of a simulated fleet.
const MaxNodes = 1000

// Options configure a simulation.
type Options struct {
	Fleet    string
	Nodes    int
	Strategy string
	// Discovery is config.DiscoveryDirectory or config.DiscoveryHealth. Empty
	// selects directory for instance-ordering and health otherwise.
	Discovery string
	// Stagger is the launch time difference between consecutive nodes.
	Stagger time.Duration
	// Outsiders adds running nodes labelled for another fleet.
	Outsiders int
	Policy    retry.Policy
	// Store defaults to a fresh store.Memory.
	Store         store.VersionedStore
	EnableMetrics bool
}

// Result is the outcome of a simulation.
type Result struct {
	// Reports are in launch order.
	Reports []bootstrap.Report
	Cluster *Cluster
	// RegistryPolls counts health registry queries.
	RegistryPolls int
	Elapsed       time.Duration
}

// Initializers returns the reports of nodes that resolved to Initializer.
func (r Result) Initializers() []bootstrap.Report {
	var out []bootstrap.Report
	for _, rep := range r.Reports {
		if rep.Role == election.RoleInitializer {
			out = append(out, rep)
		}
	}
	return out
}

// Ready counts the nodes that reached READY.
func (r Result) Ready() int {
	n := 0
	for _, rep := range r.Reports {
		if rep.State == bootstrap.StateReady {
			n++
		}
	}
	return n
}

func (o *Options) setDefaults() error {
	if o.Fleet == "" {
		o.Fleet = "demo"
	}
	if o.Strategy == "" {
		o.Strategy = config.DefaultStrategy
	}
	if o.Discovery == "" {
		o.Discovery = config.DiscoveryHealth
		if o.Strategy == election.StrategyInstanceOrdering {
			o.Discovery = config.DiscoveryDirectory
		}
	}
	if o.Stagger == 0 {
		o.Stagger = time.Second
	}
	if o.Policy.MaxAttempts == 0 {
		o.Policy = retry.Policy{Interval: 10 * time.Millisecond, MaxAttempts: 500}
	}
	if o.Store == nil {
		o.Store = store.NewMemory()
	}
	if o.Nodes < 1 || o.Nodes > MaxNodes {
		return fmt.Errorf("nodes must be between 1 and %d, got %d", MaxNodes, o.Nodes)
	}
	if o.Discovery != config.DiscoveryDirectory && o.Discovery != config.DiscoveryHealth {
		return fmt.Errorf("unknown discovery %q", o.Discovery)
	}
	return nil
}

// Run boots the virtual fleet and waits for every node to finish. The
// returned error joins the failures of all nodes.
func Run(ctx context.Context, opts Options) (Result, error) {
	if err := opts.setDefaults(); err != nil {
		return Result{}, err
	}
	logger := log.FromContext(ctx).WithValues("fleet", opts.Fleet)

	shared := store.Prefixed{Prefix: opts.Fleet, Inner: opts.Store}
	dir := &Directory{}
	cluster := &Cluster{}

	base := time.Now().Truncate(time.Second)
	nodes := make([]node.Node, opts.Nodes)
	for i := range nodes {
		nodes[i] = virtualNode(opts.Fleet, i, base.Add(time.Duration(i)*opts.Stagger))
		dir.Add(nodes[i], labels.NewLabelBuilder(opts.Fleet).Build())
	}
	for i := range opts.Outsiders {
		outsider := virtualNode(opts.Fleet+"-other", opts.Nodes+i, base.Add(-time.Hour))
		dir.Add(outsider, labels.NewLabelBuilder(opts.Fleet+"-other").Build())
	}

	machines := make([]*bootstrap.Machine, len(nodes))
	tasks := make([]async.Task, len(nodes))
	for i, n := range nodes {
		m, err := newMachine(opts, n, shared, dir, cluster)
		if err != nil {
			return Result{}, err
		}
		machines[i] = m
		tasks[i] = async.Task{Name: n.Name, Func: func(ctx context.Context) error {
			_, err := m.Run(ctx)
			return err
		}}
	}

	logger.Info("starting simulated fleet", "nodes", opts.Nodes, "strategy", opts.Strategy, "discovery", opts.Discovery)
	start := time.Now()
	runErr := async.RunParallel(ctx, tasks)

	res := Result{
		Cluster:       cluster,
		RegistryPolls: dir.Polls(),
		Elapsed:       time.Since(start),
	}
	for _, m := range machines {
		res.Reports = append(res.Reports, m.Report())
	}
	if runErr == nil && len(res.Initializers()) != 1 {
		runErr = fmt.Errorf("fleet elected %d initializers", len(res.Initializers()))
	}
	logger.Info("simulated fleet finished", "ready", res.Ready(), "members", len(cluster.Members()), "elapsed", res.Elapsed)
	return res, runErr
}

func newMachine(opts Options, n node.Node, s store.VersionedStore, dir *Directory, cluster *Cluster) (*bootstrap.Machine, error) {
	resolver, err := election.New(opts.Strategy, election.Deps{Directory: dir, Fleet: opts.Fleet, Store: s})
	if err != nil {
		return nil, err
	}

	addrs := store.AddressRegistry{Store: s}
	var locator bootstrap.LeaderLocator = bootstrap.DirectoryLocator{Addresses: addrs}
	if opts.Discovery == config.DiscoveryHealth {
		locator = bootstrap.HealthLocator{Registry: dir, RegistryID: opts.Fleet, Addresses: addrs}
	}

	m := &bootstrap.Machine{
		Fleet:          opts.Fleet,
		Self:           n,
		Resolver:       resolver,
		Locator:        locator,
		Store:          s,
		Runtime:        &Runtime{Cluster: cluster},
		Policy:         opts.Policy,
		PublishBackoff: []retry.Option{retry.WithInitialDelay(opts.Policy.Interval)},
		EnableMetrics:  opts.EnableMetrics,
	}
	m.OnTransition = func(_, to bootstrap.State) {
		if to == bootstrap.StateReady {
			dir.markReady(n.ID, string(m.Report().Role))
		}
	}
	return m, nil
}

func virtualNode(fleet string, i int, launched time.Time) node.Node {
	return node.Node{
		ID:           uuid.NewString(),
		Name:         fmt.Sprintf("%s-%d", fleet, i),
		LaunchTime:   launched,
		LocalAddress: fmt.Sprintf("10.0.%d.%d", i/250, i%250+2),
		Health:       node.HealthUnknown,
	}
}

// ErrNotFormed reports a simulation in which not every node joined the cluster.
var ErrNotFormed = errors.New("fleet did not form a single cluster")

// Verify checks that every node is READY and a member of one cluster.
func (r Result) Verify() error {
	if n := len(r.Initializers()); n != 1 {
		return fmt.Errorf("%w: %d initializers", ErrNotFormed, n)
	}
	if r.Ready() != len(r.Reports) {
		return fmt.Errorf("%w: %d of %d nodes ready", ErrNotFormed, r.Ready(), len(r.Reports))
	}
	if got := len(r.Cluster.Members()); got != len(r.Reports) {
		return fmt.Errorf("%w: %d of %d nodes are members", ErrNotFormed, got, len(r.Reports))
	}
	return nil
}
