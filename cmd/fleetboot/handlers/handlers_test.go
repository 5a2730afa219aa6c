package handlers

import (
	"bytes"
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/imamik/fleetboot/internal/bootstrap"
	"github.com/imamik/fleetboot/internal/config"
	"github.com/imamik/fleetboot/internal/node"
	"github.com/imamik/fleetboot/internal/runtime"
	"github.com/imamik/fleetboot/internal/store"
	"github.com/imamik/fleetboot/internal/token"
)

const testToken token.ClusterToken = "K10abc::server:secret"

type fakeBucket struct {
	*store.Memory
	versioning    bool
	versioningErr error
	checks        int
}

func (b *fakeBucket) VersioningEnabled(context.Context) (bool, error) {
	b.checks++
	return b.versioning, b.versioningErr
}

type fakeCloud struct {
	nodes   []node.Node
	targets []node.TargetHealth
}

func (c *fakeCloud) ListFleet(context.Context, string) ([]node.Node, error) {
	return c.nodes, nil
}

func (c *fakeCloud) DescribeTargets(context.Context, string) ([]node.TargetHealth, error) {
	return c.targets, nil
}

type fakeMetadata struct {
	id      int64
	address string
}

func (m fakeMetadata) InstanceID() (int64, error) { return m.id, nil }
func (m fakeMetadata) Hostname() (string, error)  { return "demo-node", nil }
func (m fakeMetadata) PublicIPv4() (net.IP, error) {
	return nil, errors.New("no public network")
}
func (m fakeMetadata) PrivateNetworks() (string, error) {
	return "- ip: " + m.address + "\n", nil
}

type fakeRuntime struct {
	mu      sync.Mutex
	running bool
	tok     token.ClusterToken
	initErr error
	joined  []runtime.JoinOptions
}

func (r *fakeRuntime) IsAlreadyRunning(context.Context) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running, nil
}

func (r *fakeRuntime) Init(_ context.Context, opts runtime.InitOptions) (token.ClusterToken, error) {
	if r.initErr != nil {
		return "", r.initErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.running = true
	if opts.Token != "" {
		return opts.Token, nil
	}
	return r.tok, nil
}

func (r *fakeRuntime) Join(_ context.Context, opts runtime.JoinOptions) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.joined = append(r.joined, opts)
	r.running = true
	return nil
}

func (r *fakeRuntime) Kubeconfig() string { return "/nonexistent/k3s.yaml" }

// fixture swaps every factory for fakes and restores them after the test.
type fixture struct {
	cfg     *config.Config
	bucket  *fakeBucket
	cloud   *fakeCloud
	rt      *fakeRuntime
	out     *bytes.Buffer
	metrics []string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := config.Default()
	cfg.Fleet = "demo"
	cfg.Store.Bucket = "fleet-state"
	cfg.HCloudToken = "test-token"
	cfg.Poll = config.PollConfig{Interval: time.Millisecond, MaxAttempts: 5}

	f := &fixture{
		cfg:    cfg,
		bucket: &fakeBucket{Memory: store.NewMemory(), versioning: true},
		cloud:  &fakeCloud{},
		rt:     &fakeRuntime{tok: testToken},
		out:    &bytes.Buffer{},
	}

	origLoad, origBucket, origCloud := loadConfig, newBucket, newCloud
	origMeta, origRuntime, origReadiness := newMetadataSource, newRuntime, newReadiness
	origMetrics, origStdout, origColor := writeMetrics, stdout, colorEnabled
	origSim := runSimulation
	t.Cleanup(func() {
		loadConfig, newBucket, newCloud = origLoad, origBucket, origCloud
		newMetadataSource, newRuntime, newReadiness = origMeta, origRuntime, origReadiness
		writeMetrics, stdout, colorEnabled = origMetrics, origStdout, origColor
		runSimulation = origSim
	})

	loadConfig = func(string) (*config.Config, error) { return f.cfg, nil }
	newBucket = func(context.Context, *config.Config) (Bucket, error) { return f.bucket, nil }
	newCloud = func(string) Cloud { return f.cloud }
	newMetadataSource = func(string) node.MetadataSource { return fakeMetadata{id: 1, address: "10.0.0.2"} }
	newRuntime = func(*config.Config, node.Node) ClusterRuntime { return f.rt }
	newReadiness = func(string, string) bootstrap.Readiness { return nil }
	writeMetrics = func(path string) error {
		f.metrics = append(f.metrics, path)
		return nil
	}
	stdout = f.out
	colorEnabled = func() bool { return false }

	return f
}

func demoFleet() []node.Node {
	base := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	return []node.Node{
		{ID: "1", LaunchTime: base, LocalAddress: "10.0.0.2"},
		{ID: "2", LaunchTime: base.Add(time.Second), LocalAddress: "10.0.0.3"},
		{ID: "3", LaunchTime: base.Add(2 * time.Second), LocalAddress: "10.0.0.4"},
	}
}
