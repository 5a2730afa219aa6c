// Package k3s installs and configures k3s server nodes.
//
// The node configuration is written to the k3s config file before the
// official install script runs, so the script itself only receives the
// channel and the "server" sub-command:
//
//	curl -sfL https://get.k3s.io | INSTALL_K3S_CHANNEL=stable sh -s - server
package k3s

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/yaml"

	"github.com/imamik/fleetboot/internal/runtime"
	"github.com/imamik/fleetboot/internal/token"
	"github.com/imamik/fleetboot/internal/util/retry"
)

// Defaults matching a stock k3s install.
const (
	DefaultInstallURL = "https://get.k3s.io"
	DefaultChannel    = "stable"
	DefaultConfigPath = "/etc/rancher/k3s/config.yaml"
	DefaultTokenPath  = "/var/lib/rancher/k3s/server/node-token"
	DefaultKubeconfig = "/etc/rancher/k3s/k3s.yaml"
	DefaultAPIPort    = 6443
	defaultBinary     = "k3s"
)

// Runner executes the installer. The default runs it through /bin/sh.
type Runner interface {
	Run(ctx context.Context, env []string, script string) ([]byte, error)
}

// ShellRunner runs scripts with sh -c.
type ShellRunner struct{}

// Run implements Runner.
func (ShellRunner) Run(ctx context.Context, env []string, script string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "/bin/sh", "-c", script)
	cmd.Env = append(os.Environ(), env...)
	return cmd.CombinedOutput()
}

// Options configure the k3s runtime.
type Options struct {
	InstallURL string
	Channel    string
	ConfigPath string
	TokenPath  string
	Kubeconfig string
	APIPort    int
	// NodeName overrides the Kubernetes node name, which defaults to the hostname.
	NodeName string
	// ProviderID is passed to the kubelet, e.g. "hcloud://4711".
	ProviderID string
	// ExtraArgs are appended to the install command after "server".
	ExtraArgs []string
	// TokenWait bounds how long Init waits for k3s to write the token file.
	TokenWait time.Duration
	// TokenPollInterval is the pause between reads of the token file.
	TokenPollInterval time.Duration
}

// Runtime implements runtime.Cluster for k3s.
type Runtime struct {
	opts     Options
	runner   Runner
	lookPath func(string) (string, error)
}

var _ runtime.Cluster = (*Runtime)(nil)

// Option customises a Runtime.
type Option func(*Runtime)

// WithRunner replaces the installer runner (useful for testing).
func WithRunner(r Runner) Option {
	return func(rt *Runtime) {
		rt.runner = r
	}
}

// WithLookPath replaces binary lookup (useful for testing).
func WithLookPath(fn func(string) (string, error)) Option {
	return func(rt *Runtime) {
		rt.lookPath = fn
	}
}

// New returns a k3s runtime with defaults applied to opts.
func New(opts Options, o ...Option) *Runtime {
	if opts.InstallURL == "" {
		opts.InstallURL = DefaultInstallURL
	}
	if opts.Channel == "" {
		opts.Channel = DefaultChannel
	}
	if opts.ConfigPath == "" {
		opts.ConfigPath = DefaultConfigPath
	}
	if opts.TokenPath == "" {
		opts.TokenPath = DefaultTokenPath
	}
	if opts.Kubeconfig == "" {
		opts.Kubeconfig = DefaultKubeconfig
	}
	if opts.APIPort == 0 {
		opts.APIPort = DefaultAPIPort
	}
	if opts.TokenWait == 0 {
		opts.TokenWait = 2 * time.Minute
	}
	if opts.TokenPollInterval <= 0 {
		opts.TokenPollInterval = time.Second
	}
	rt := &Runtime{opts: opts, runner: ShellRunner{}, lookPath: exec.LookPath}
	for _, fn := range o {
		fn(rt)
	}
	return rt
}

// IsAlreadyRunning reports whether the k3s binary is installed.
func (r *Runtime) IsAlreadyRunning(_ context.Context) (bool, error) {
	_, err := r.lookPath(defaultBinary)
	return err == nil, nil
}

// Init installs the first server with embedded etcd and returns the token
// k3s generated, or the one it was told to reuse.
func (r *Runtime) Init(ctx context.Context, opts runtime.InitOptions) (token.ClusterToken, error) {
	cfg := r.baseConfig(opts.Self.LocalAddress, opts.Self.PublicAddress)
	cfg.ClusterInit = true
	cfg.Token = string(opts.Token)

	if err := r.install(ctx, cfg); err != nil {
		return "", err
	}

	tok, err := r.readToken(ctx)
	if err != nil {
		return "", err
	}
	return tok, nil
}

// Join installs a server that joins the cluster at the leader.
func (r *Runtime) Join(ctx context.Context, opts runtime.JoinOptions) error {
	if opts.LeaderAddress == "" {
		return fmt.Errorf("leader address is required to join")
	}
	cfg := r.baseConfig(opts.Self.LocalAddress, opts.Self.PublicAddress)
	cfg.Server = r.ServerURL(opts.LeaderAddress)
	cfg.Token = string(opts.Token)
	return r.install(ctx, cfg)
}

// ServerURL returns the supervisor URL of a server at addr.
func (r *Runtime) ServerURL(addr string) string {
	return "https://" + net.JoinHostPort(addr, strconv.Itoa(r.opts.APIPort))
}

// Kubeconfig returns the path k3s writes the admin kubeconfig to.
func (r *Runtime) Kubeconfig() string {
	return r.opts.Kubeconfig
}

// serverConfig mirrors the keys of /etc/rancher/k3s/config.yaml.
type serverConfig struct {
	ClusterInit         bool     `json:"cluster-init,omitempty"`
	Server              string   `json:"server,omitempty"`
	Token               string   `json:"token,omitempty"`
	NodeName            string   `json:"node-name,omitempty"`
	NodeIP              string   `json:"node-ip,omitempty"`
	NodeExternalIP      string   `json:"node-external-ip,omitempty"`
	AdvertiseAddress    string   `json:"advertise-address,omitempty"`
	WriteKubeconfigMode string   `json:"write-kubeconfig-mode,omitempty"`
	KubeletArgs         []string `json:"kubelet-arg,omitempty"`
}

func (r *Runtime) baseConfig(localIP, publicIP string) serverConfig {
	cfg := serverConfig{
		NodeName:            r.opts.NodeName,
		NodeIP:              localIP,
		NodeExternalIP:      publicIP,
		AdvertiseAddress:    localIP,
		WriteKubeconfigMode: "0644",
	}
	if r.opts.ProviderID != "" {
		cfg.KubeletArgs = []string{"provider-id=" + r.opts.ProviderID}
	}
	return cfg
}

func (r *Runtime) install(ctx context.Context, cfg serverConfig) error {
	logger := log.FromContext(ctx)

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal k3s config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(r.opts.ConfigPath), 0o755); err != nil {
		return fmt.Errorf("failed to create k3s config directory: %w", err)
	}
	// #nosec G306 -- contains the join token, readable by root only
	if err := os.WriteFile(r.opts.ConfigPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write k3s config: %w", err)
	}

	script := fmt.Sprintf("curl -sfL %s | sh -s - server", r.opts.InstallURL)
	for _, arg := range r.opts.ExtraArgs {
		script += " " + strconv.Quote(arg)
	}
	env := []string{"INSTALL_K3S_CHANNEL=" + r.opts.Channel}

	logger.Info("running k3s installer", "channel", r.opts.Channel, "clusterInit", cfg.ClusterInit, "server", cfg.Server)
	out, err := r.runner.Run(ctx, env, script)
	if err != nil {
		return fmt.Errorf("k3s installer failed: %w: %s", err, tail(out, 2048))
	}
	return nil
}

// readToken waits for k3s to write the server token file.
func (r *Runtime) readToken(ctx context.Context) (token.ClusterToken, error) {
	policy := retry.Policy{
		Interval:    r.opts.TokenPollInterval,
		MaxAttempts: int(r.opts.TokenWait/r.opts.TokenPollInterval) + 1,
	}
	tok, err := retry.Poll(ctx, policy, func(context.Context) (token.ClusterToken, error) {
		// #nosec G304 -- path from trusted configuration
		raw, err := os.ReadFile(r.opts.TokenPath)
		if err != nil {
			return "", err
		}
		return token.Parse(raw)
	})
	if err != nil {
		return "", fmt.Errorf("failed to read k3s token from %s: %w", r.opts.TokenPath, err)
	}
	return tok, nil
}

func tail(b []byte, n int) string {
	if len(b) > n {
		b = b[len(b)-n:]
	}
	return string(b)
}
