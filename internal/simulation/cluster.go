package simulation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/imamik/fleetboot/internal/runtime"
	"github.com/imamik/fleetboot/internal/token"
)

// ErrAlreadyInitialized is returned when a second node initializes the cluster.
var ErrAlreadyInitialized = errors.New("cluster already initialized by another node")

// Cluster is the virtual cluster all simulated runtimes attach to.
type Cluster struct {
	mu          sync.Mutex
	initializer string
	address     string
	token       token.ClusterToken
	members     []string
}

// Members returns the IDs of all nodes that initialized or joined, in order.
func (c *Cluster) Members() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.members...)
}

// Initializer returns the ID of the node that created the cluster.
func (c *Cluster) Initializer() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initializer
}

func (c *Cluster) init(id, addr string, tok token.ClusterToken) (token.ClusterToken, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.initializer != "" && c.initializer != id {
		return "", fmt.Errorf("%w: %s", ErrAlreadyInitialized, c.initializer)
	}
	if tok == "" {
		tok = newToken()
	}
	c.initializer = id
	c.address = addr
	c.token = tok
	c.members = append(c.members, id)
	return tok, nil
}

func (c *Cluster) join(id, leader string, tok token.ClusterToken) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.initializer == "":
		return fmt.Errorf("no cluster is served at %s", leader)
	case leader != c.address:
		return fmt.Errorf("no cluster is served at %s (leader is %s)", leader, c.address)
	case tok != c.token:
		return fmt.Errorf("token %s rejected by %s", tok, leader)
	}
	c.members = append(c.members, id)
	return nil
}

func newToken() token.ClusterToken {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return token.ClusterToken("K10" + id + "::server:" + uuid.NewString())
}

// Runtime is the runtime.Cluster of one virtual node.
type Runtime struct {
	Cluster *Cluster

	mu      sync.Mutex
	running bool
}

var _ runtime.Cluster = (*Runtime)(nil)

// IsAlreadyRunning implements runtime.Cluster.
func (r *Runtime) IsAlreadyRunning(context.Context) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running, nil
}

// Init implements runtime.Cluster.
func (r *Runtime) Init(_ context.Context, opts runtime.InitOptions) (token.ClusterToken, error) {
	tok, err := r.Cluster.init(opts.Self.ID, opts.Self.AdvertiseAddress(), opts.Token)
	if err != nil {
		return "", err
	}
	r.setRunning()
	return tok, nil
}

// Join implements runtime.Cluster.
func (r *Runtime) Join(_ context.Context, opts runtime.JoinOptions) error {
	if err := r.Cluster.join(opts.Self.ID, opts.LeaderAddress, opts.Token); err != nil {
		return err
	}
	r.setRunning()
	return nil
}

func (r *Runtime) setRunning() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.running = true
}
