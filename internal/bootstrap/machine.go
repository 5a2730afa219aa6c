package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/imamik/fleetboot/internal/election"
	"github.com/imamik/fleetboot/internal/node"
	"github.com/imamik/fleetboot/internal/runtime"
	"github.com/imamik/fleetboot/internal/store"
	"github.com/imamik/fleetboot/internal/token"
	"github.com/imamik/fleetboot/internal/util/retry"
)

// Poll steps, used in logs, metrics and timeout errors.
const (
	StepRole      = "role"
	StepToken     = "token"
	StepLeader    = "leader"
	StepReadiness = "readiness"
)

// Readiness checks once whether the local cluster member is usable.
type Readiness interface {
	Check(ctx context.Context) error
}

// Machine runs the bootstrap sequence of one node.
type Machine struct {
	Fleet    string
	Self     node.Node
	Resolver election.Resolver
	Locator  LeaderLocator
	// Store holds the token and the address registry.
	Store   store.Store
	Runtime runtime.Cluster
	// Readiness is optional.
	Readiness Readiness
	Policy    retry.Policy
	// PublishBackoff tunes the retries of token and address publication.
	PublishBackoff []retry.Option
	EnableMetrics  bool
	// OnTransition, when set, is called synchronously for every transition.
	OnTransition func(from, to State)

	mu     sync.Mutex
	report Report
}

// Report summarizes a Run.
type Report struct {
	Node          string
	State         State
	Role          election.Role
	LeaderAddress string
	// Fingerprint identifies the token without revealing it.
	Fingerprint string
	// AlreadyRunning is set when the runtime was found installed.
	AlreadyRunning bool
	Duration       time.Duration
	Err            error
}

// Report returns a snapshot of the current progress.
func (m *Machine) Report() Report {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.report
}

// State returns the current state.
func (m *Machine) State() State {
	return m.Report().State
}

// Run executes the state machine until READY or FAILED.
func (m *Machine) Run(ctx context.Context) (State, error) {
	start := time.Now()
	logger := log.FromContext(ctx).WithValues("node", m.Self.ID)
	ctx = log.IntoContext(ctx, logger)

	m.mu.Lock()
	m.report = Report{Node: m.Self.ID}
	m.mu.Unlock()

	err := m.run(ctx, logger)

	final := StateReady
	if err != nil {
		final = StateFailed
		logger.Error(err, "bootstrap failed", "from", m.State())
	}
	m.transition(logger, final)

	m.mu.Lock()
	m.report.Duration = time.Since(start)
	m.report.Err = err
	m.mu.Unlock()

	if m.EnableMetrics {
		recordBootMetric(m.Fleet, final, time.Since(start).Seconds())
	}
	return final, err
}

func (m *Machine) run(ctx context.Context, logger logr.Logger) error {
	running, err := m.Runtime.IsAlreadyRunning(ctx)
	if err != nil {
		return &ClusterRuntimeError{Op: OpIsAlreadyRunning, Err: err}
	}
	if running {
		logger.Info("cluster runtime already running, nothing to do")
		m.mu.Lock()
		m.report.AlreadyRunning = true
		m.mu.Unlock()
		return nil
	}

	m.transition(logger, StateDeterminingRole)
	res, err := poll(ctx, m, StepRole, func(ctx context.Context) (election.Resolution, error) {
		return m.Resolver.Resolve(ctx, m.Self)
	})
	if err != nil {
		return err
	}
	m.setRole(res.Role)
	logger = logger.WithValues("role", res.Role)
	logger.Info("role resolved")

	switch res.Role {
	case election.RoleInitializer:
		return m.initialize(ctx, logger)
	case election.RoleJoiner:
		return m.join(ctx, logger, res)
	default:
		return fmt.Errorf("unknown role %q", res.Role)
	}
}

func (m *Machine) initialize(ctx context.Context, logger logr.Logger) error {
	m.transition(logger, StateInitializing)
	tokens := token.Exchange{Store: m.Store}

	type existing struct {
		tok token.ClusterToken
		ok  bool
	}
	prev, err := poll(ctx, m, StepToken, func(ctx context.Context) (existing, error) {
		tok, ok, err := tokens.Existing(ctx)
		return existing{tok, ok}, err
	})
	if err != nil {
		return err
	}
	if prev.ok {
		logger.Info("reusing published cluster token", "fingerprint", prev.tok.Fingerprint())
	}

	tok, err := m.Runtime.Init(ctx, runtime.InitOptions{Self: m.Self, Token: prev.tok})
	if err != nil {
		return &ClusterRuntimeError{Op: OpInit, Err: err}
	}
	if !tok.Valid() {
		return &ClusterRuntimeError{Op: OpInit, Err: fmt.Errorf("runtime produced %w", token.ErrInvalid)}
	}
	m.setFingerprint(tok)
	m.setLeader(m.Self.AdvertiseAddress())
	logger.Info("cluster initialized", "fingerprint", tok.Fingerprint())

	if err := m.publishAddress(ctx); err != nil {
		return err
	}
	if prev.ok && prev.tok == tok {
		logger.V(1).Info("token unchanged, not republishing")
	} else {
		err := retry.WithExponentialBackoff(ctx, func(ctx context.Context) error {
			return tokens.Publish(ctx, tok)
		}, m.PublishBackoff...)
		if err != nil {
			return fmt.Errorf("failed to publish cluster token: %w", err)
		}
		logger.Info("cluster token published", "fingerprint", tok.Fingerprint())
	}

	return m.awaitReadiness(ctx)
}

func (m *Machine) join(ctx context.Context, logger logr.Logger, res election.Resolution) error {
	m.transition(logger, StateAwaitingLeader)

	addr, err := poll(ctx, m, StepLeader, func(ctx context.Context) (string, error) {
		return m.Locator.Locate(ctx, m.Self, res)
	})
	if err != nil {
		return err
	}
	m.setLeader(addr)
	logger.Info("leader located", "leader", addr)

	tokens := token.Exchange{Store: m.Store}
	tok, err := poll(ctx, m, StepToken, tokens.Fetch)
	if err != nil {
		return err
	}
	m.setFingerprint(tok)

	m.transition(logger, StateJoining)
	if err := m.Runtime.Join(ctx, runtime.JoinOptions{Self: m.Self, LeaderAddress: addr, Token: tok}); err != nil {
		return &ClusterRuntimeError{Op: OpJoin, Err: err}
	}
	logger.Info("joined cluster", "leader", addr, "fingerprint", tok.Fingerprint())

	if err := m.publishAddress(ctx); err != nil {
		return err
	}
	return m.awaitReadiness(ctx)
}

func (m *Machine) publishAddress(ctx context.Context) error {
	registry := store.AddressRegistry{Store: m.Store}
	err := retry.WithExponentialBackoff(ctx, func(ctx context.Context) error {
		return registry.Publish(ctx, m.Self.ID, m.Self.AdvertiseAddress())
	}, m.PublishBackoff...)
	if err != nil {
		return fmt.Errorf("failed to publish node address: %w", err)
	}
	return nil
}

func (m *Machine) awaitReadiness(ctx context.Context) error {
	if m.Readiness == nil {
		return nil
	}
	_, err := poll(ctx, m, StepReadiness, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, m.Readiness.Check(ctx)
	})
	return err
}

// poll runs op under the machine's policy. An exhausted budget becomes
// ErrResolutionTimeout.
func poll[T any](ctx context.Context, m *Machine, step string, op func(context.Context) (T, error)) (T, error) {
	logger := log.FromContext(ctx).WithValues("step", step)

	v, err := retry.Poll(ctx, m.Policy, func(ctx context.Context) (T, error) {
		v, err := op(ctx)
		if err == nil && m.EnableMetrics {
			recordPollAttemptMetric(m.Fleet, step, "success")
		}
		return v, err
	}, func(attempt int, err error) {
		if m.EnableMetrics {
			recordPollAttemptMetric(m.Fleet, step, "failure")
		}
		logger.V(1).Info("attempt failed", "attempt", attempt, "maxAttempts", m.Policy.MaxAttempts, "error", err.Error())
	})
	if errors.Is(err, retry.ErrExhausted) {
		return v, fmt.Errorf("%w: %s: %w", ErrResolutionTimeout, step, err)
	}
	return v, err
}

func (m *Machine) transition(logger logr.Logger, to State) {
	m.mu.Lock()
	from := m.report.State
	m.report.State = to
	m.mu.Unlock()

	if !CanTransition(from, to) {
		logger.Info("unexpected state transition", "from", from, "to", to)
	}
	logger.V(1).Info("state transition", "from", from, "to", to)
	if m.EnableMetrics {
		recordTransitionMetric(m.Fleet, from, to)
	}
	if m.OnTransition != nil {
		m.OnTransition(from, to)
	}
}

func (m *Machine) setRole(r election.Role) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.report.Role = r
	if m.EnableMetrics {
		recordRoleMetric(m.Fleet, string(r))
	}
}

func (m *Machine) setLeader(addr string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.report.LeaderAddress = addr
}

func (m *Machine) setFingerprint(tok token.ClusterToken) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.report.Fingerprint = tok.Fingerprint()
}
