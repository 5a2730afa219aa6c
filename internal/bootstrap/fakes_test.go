package bootstrap

import (
	"context"
	"sync"

	"github.com/imamik/fleetboot/internal/election"
	"github.com/imamik/fleetboot/internal/node"
	"github.com/imamik/fleetboot/internal/runtime"
	"github.com/imamik/fleetboot/internal/token"
)

const validToken token.ClusterToken = "K10abc::server:secret"

// fakeRuntime records hook calls.
type fakeRuntime struct {
	mu        sync.Mutex
	running   bool
	runErr    error
	initToken token.ClusterToken
	initErr   error
	joinErr   error
	inits     []runtime.InitOptions
	joins     []runtime.JoinOptions
}

func (f *fakeRuntime) IsAlreadyRunning(context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running, f.runErr
}

func (f *fakeRuntime) Init(_ context.Context, opts runtime.InitOptions) (token.ClusterToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inits = append(f.inits, opts)
	if f.initErr != nil {
		return "", f.initErr
	}
	f.running = true
	if opts.Token != "" {
		return opts.Token, nil
	}
	return f.initToken, nil
}

func (f *fakeRuntime) Join(_ context.Context, opts runtime.JoinOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.joins = append(f.joins, opts)
	if f.joinErr != nil {
		return f.joinErr
	}
	f.running = true
	return nil
}

// resolverFunc adapts a function to election.Resolver.
type resolverFunc func(ctx context.Context, self node.Node) (election.Resolution, error)

func (f resolverFunc) Resolve(ctx context.Context, self node.Node) (election.Resolution, error) {
	return f(ctx, self)
}

func fixedRole(role election.Role, leader *node.Node) election.Resolver {
	return resolverFunc(func(context.Context, node.Node) (election.Resolution, error) {
		return election.Resolution{Role: role, Leader: leader}, nil
	})
}

// scriptedRegistry answers DescribeTargets from a script; the last entry
// repeats once the script is used up.
type scriptedRegistry struct {
	mu     sync.Mutex
	script [][]node.TargetHealth
	err    error
	calls  int
}

func (r *scriptedRegistry) DescribeTargets(context.Context, string) ([]node.TargetHealth, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	i := min(r.calls, len(r.script)) - 1
	return r.script[i], nil
}

func (r *scriptedRegistry) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func repeat(n int, targets []node.TargetHealth) [][]node.TargetHealth {
	out := make([][]node.TargetHealth, n)
	for i := range out {
		out[i] = targets
	}
	return out
}
